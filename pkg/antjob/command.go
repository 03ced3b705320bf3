package antjob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/antworks/antexec/pkg/install"
)

const (
	antLibDirName     = "antlib"
	antContribJarName = "ant-contrib.jar"
)

// Command is a fully assembled Ant invocation.
type Command struct {
	Argv []string
	Env  map[string]string
	// Dir is the working directory for the process, always the workspace that
	// contains the generated build file.
	Dir string
}

// CommandRequest carries everything BuildCommand needs; the environment and
// the installation lookup are passed in explicitly instead of being read from
// any ambient state.
type CommandRequest struct {
	Config         *Config
	Workspace      string
	DescriptorName string
	Env            map[string]string
	Lookup         install.Lookup
	// ContribJar is the bundled ant-contrib.jar that gets copied into the
	// workspace's antlib directory on first use.
	ContribJar string
	Windows    bool
}

// BuildCommand resolves the executable and assembles the argument vector and
// environment for the invocation. Resolution failures are fatal; no process
// is spawned for a job whose installation can't be found.
func BuildCommand(ctx context.Context, req CommandRequest) (*Command, error) {
	cfg := req.Config
	env := MergeEnv(req.Env, nil)
	argv := make([]string, 0, 8)

	if cfg.AntName == "" {
		if req.Windows {
			argv = append(argv, "ant.bat")
		} else {
			argv = append(argv, "ant")
		}
	} else {
		inst, found := req.Lookup(cfg.AntName)
		if !found {
			return nil, eris.Errorf("no Ant installation named %s is registered", cfg.AntName)
		}

		inst = inst.ForEnvironment(env)
		exe := inst.Executable(req.Windows)
		if _, err := os.Stat(exe); err != nil {
			return nil, eris.Wrapf(err, "cannot find the executable of the Ant installation %s", cfg.AntName)
		}

		argv = append(argv, exe)
		inst.BuildEnv(env)
	}

	argv = append(argv, "-file", req.DescriptorName)

	if cfg.AntOpts != "" {
		env["ANT_OPTS"] = install.ExpandRefs(cfg.AntOpts, env)
	}

	if !cfg.NoAntContrib {
		if cfg.Verbose {
			log(ctx).Info().Msg("ant-contrib tasks are available to the script")
		}

		err := provisionAntLib(req.Workspace, req.ContribJar)
		if err != nil {
			return nil, err
		}

		argv = append(argv, "-lib", antLibDirName)
	} else if cfg.Verbose {
		log(ctx).Info().Msg("running with Ant core tasks only")
	}

	if cfg.Verbose {
		argv = append(argv, "-verbose")
	}

	if cfg.Emacs {
		argv = append(argv, "-emacs")
	}

	if req.Windows {
		argv = toWindowsCommand(argv)
		// Must stay right after the quoting transform; the fix only covers the
		// last argument.
		argv[len(argv)-1] = fixEmptyPropertyArgs(argv[len(argv)-1])
	}

	return &Command{Argv: argv, Env: env, Dir: req.Workspace}, nil
}

// provisionAntLib makes sure the workspace has an antlib directory holding
// ant-contrib.jar. An existing directory is reused as-is, even across builds;
// it is never cleaned up so repeated invocations don't pay the copy again.
func provisionAntLib(workspace, contribJar string) error {
	libDir := filepath.Join(workspace, antLibDirName)
	_, err := os.Stat(libDir)
	if err == nil {
		return nil
	}
	if !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "failed to check %s", libDir)
	}

	err = os.MkdirAll(libDir, os.FileMode(0770))
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", libDir)
	}

	source, err := os.Open(contribJar)
	if err != nil {
		return eris.Wrapf(err, "failed to open the bundled %s at %s", antContribJarName, contribJar)
	}
	defer source.Close()

	destPath := filepath.Join(libDir, antContribJarName)
	dest, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", destPath)
	}
	defer dest.Close()

	_, err = io.Copy(dest, source)
	if err != nil {
		return eris.Wrapf(err, "failed to copy %s into %s", contribJar, destPath)
	}

	return nil
}

// toWindowsCommand wraps the argument vector in a cmd.exe invocation, quoting
// arguments that contain whitespace or are empty. Joining the arguments this
// way leaves empty -D property values as a bare "-Dname= " inside the command
// string; fixEmptyPropertyArgs repairs those afterwards.
func toWindowsCommand(argv []string) []string {
	quoted := make([]string, len(argv))
	for idx, arg := range argv {
		switch {
		case arg == "":
			quoted[idx] = `""`
		case strings.ContainsAny(arg, " \t"):
			quoted[idx] = `"` + arg + `"`
		default:
			quoted[idx] = arg
		}
	}

	joined := strings.Join(quoted, " ")
	return []string{"cmd.exe", "/C", `"` + joined + ` && exit %%ERRORLEVEL%%"`}
}

var emptyPropRe = regexp.MustCompile(`( |^)(-D[^" ]+)= `)

// fixEmptyPropertyArgs gives empty property definitions an explicit quoted
// value. Ant on windows rejects a bare -Dname= while POSIX platforms accept
// it. Replacement loops because the trailing space of one match doubles as
// the leading space of the next.
func fixEmptyPropertyArgs(arg string) string {
	for {
		fixed := emptyPropRe.ReplaceAllString(arg, `$1$2="" `)
		if fixed == arg {
			return fixed
		}
		arg = fixed
	}
}

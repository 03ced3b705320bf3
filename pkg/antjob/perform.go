package antjob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rotisserie/eris"

	"github.com/antworks/antexec/pkg/install"
)

const (
	debugScriptBegin = "------- resolved script source - begin -------"
	debugScriptEnd   = "------- resolved script source -  end  -------"
	debugPropsBegin  = "------- job properties - begin -------"
	debugPropsEnd    = "------- job properties -  end  -------"
)

// PerformOpts carries the per-invocation context that used to live in ambient
// state: the workspace, the build variables contributed by the surrounding
// build, the installation lookup and the output sink.
type PerformOpts struct {
	// Workspace is the directory the transient files are generated into and
	// the working directory of the Ant process. Defaults to ".".
	Workspace string
	// BuildVars override the ambient environment on conflicts and seed the
	// generated property file.
	BuildVars map[string]string
	// Environ is the ambient environment in KEY=VALUE form. Defaults to
	// os.Environ().
	Environ []string
	Lookup  install.Lookup
	// HasInstallations tells the spawn-failure diagnostics whether any
	// installation is registered at all.
	HasInstallations bool
	ContribJar       string
	Windows          bool
	// Sink receives the annotated console output. Defaults to os.Stdout.
	Sink io.Writer
}

// Perform runs one complete build invocation: placeholder resolution,
// property materialization, build file generation, the Ant process itself and
// the cleanup of the transient files. The returned bool is the build result
// (exit code zero); a non-nil error means the invocation itself broke down.
func Perform(ctx context.Context, cfg *Config, opts PerformOpts) (result bool, err error) {
	sink := opts.Sink
	if sink == nil {
		sink = os.Stdout
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = func(string) (*install.Installation, bool) { return nil, false }
	}

	workspace := opts.Workspace
	if workspace == "" {
		workspace = "."
	}
	info, statErr := os.Stat(workspace)
	if statErr != nil {
		return false, eris.Wrapf(statErr, "the workspace %s is not available", workspace)
	}
	if !info.IsDir() {
		return false, eris.Errorf("the workspace %s is not a directory", workspace)
	}

	env := MergeEnv(ParseEnviron(environ), opts.BuildVars)
	name := cfg.DescriptorName()

	// Each field falls back to its raw text on its own; one broken
	// placeholder doesn't spoil the other field.
	scriptResolved := resolveField(ctx, "script", cfg.Script, env)
	extendedResolved := resolveField(ctx, "extendedScript", cfg.ExtendedScript, env)

	propertyFile := ""
	descriptorFile := ""
	defer func() {
		if cfg.KeepBuildfile {
			return
		}
		removeTransient(ctx, propertyFile, "temporary property file")
		removeTransient(ctx, descriptorFile, "temporary build file")
	}()

	if cfg.Properties != "" || len(opts.BuildVars) > 0 {
		merged, mergeErr := MergeProperties(opts.BuildVars, cfg.Properties)
		if mergeErr != nil {
			return false, mergeErr
		}

		propertyFile, err = WriteProperties(workspace, name, merged)
		if err != nil {
			return false, err
		}
	}

	descriptorFile, err = WriteDescriptor(workspace, name, BuildDescriptorXML(scriptResolved, extendedResolved, name))
	if err != nil {
		return false, err
	}

	cmd, err := BuildCommand(ctx, CommandRequest{
		Config:         cfg,
		Workspace:      workspace,
		DescriptorName: name,
		Env:            env,
		Lookup:         lookup,
		ContribJar:     opts.ContribJar,
		Windows:        opts.Windows,
	})
	if err != nil {
		return false, err
	}

	if cfg.Verbose {
		writeDebugBlocks(sink, scriptResolved, cfg.Properties)
	}

	start := time.Now()
	code, err := RunCommand(ctx, cmd, sink)
	if err != nil {
		// A cancelled build ends quickly on its own; don't dress it up as a
		// misconfigured installation.
		if ctx.Err() != nil {
			return false, err
		}

		message := "command execution failed"
		// A failure within a second of launching a bare "ant" usually means
		// the executable wasn't found rather than a genuine build problem.
		if cfg.AntName == "" && time.Since(start) < time.Second {
			if !opts.HasInstallations {
				message += ". Maybe you need to configure where your Ant installations are?"
			} else {
				message += ". Maybe you need to configure the job to choose one of your Ant installations?"
			}
		}
		return false, eris.Wrap(err, message)
	}

	if code != 0 {
		log(ctx).Error().Int("exitCode", code).Msg("ant exited with a non-zero status")
		return false, nil
	}

	return true, nil
}

// DefaultWindows reports whether the current platform needs the windows
// command-line treatment.
func DefaultWindows() bool {
	return runtime.GOOS == "windows"
}

func removeTransient(ctx context.Context, path, label string) {
	if path == "" {
		return
	}

	err := os.Remove(path)
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		log(ctx).Warn().
			Err(err).
			Str("path", filepath.Clean(path)).
			Msgf("the %s couldn't be deleted", label)
	}
}

// writeDebugBlocks dumps the resolved script source and the raw properties
// text to the sink, each framed by begin/end markers and blank lines.
func writeDebugBlocks(sink io.Writer, script, rawProps string) {
	fmt.Fprintln(sink)
	fmt.Fprintln(sink, debugScriptBegin)
	fmt.Fprintln(sink, script)
	fmt.Fprintln(sink, debugScriptEnd)
	fmt.Fprintln(sink)
	fmt.Fprintln(sink, debugPropsBegin)
	fmt.Fprintln(sink, rawProps)
	fmt.Fprintln(sink, debugPropsEnd)
	fmt.Fprintln(sink)
}

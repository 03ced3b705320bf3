// Package install manages named Ant installations: a small YAML registry
// mapping logical names to unpacked Ant distributions, plus the provisioning
// commands that download and register them.
package install

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Installation describes one registered Ant distribution.
type Installation struct {
	Name string `yaml:"name"`
	// Home points at the distribution root (the directory containing bin/).
	// It may contain ${VAR} references which are resolved against the
	// execution environment via ForEnvironment.
	Home string `yaml:"home"`
	// Env lists additional environment variables this installation
	// contributes to every invocation.
	Env map[string]string `yaml:"env,omitempty"`
}

// Lookup resolves a logical installation name. The core pipeline depends on
// this instead of reaching into any global registry.
type Lookup func(name string) (*Installation, bool)

// Registry is the serialized form of the installations file.
type Registry struct {
	Installations []Installation `yaml:"installations"`
}

// LoadRegistry reads the installations file. A missing file yields an empty
// registry since that simply means nothing has been registered yet.
func LoadRegistry(path string) (*Registry, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return &Registry{}, nil
		}
		return nil, eris.Wrapf(err, "could not read %s", path)
	}

	var reg Registry
	err = yaml.Unmarshal(data, &reg)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", path)
	}

	return &reg, nil
}

// Save writes the registry back, creating parent directories as needed.
func (r *Registry) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "failed to serialize the installation registry")
	}

	err = os.MkdirAll(filepath.Dir(path), os.FileMode(0770))
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}

	err = ioutil.WriteFile(path, data, os.FileMode(0660))
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}

	return nil
}

// Lookup implements the Lookup contract on top of the registry.
func (r *Registry) Lookup(name string) (*Installation, bool) {
	for idx := range r.Installations {
		if r.Installations[idx].Name == name {
			return &r.Installations[idx], true
		}
	}
	return nil, false
}

// Add registers the passed installation, replacing an existing entry with the
// same name.
func (r *Registry) Add(inst Installation) {
	for idx := range r.Installations {
		if r.Installations[idx].Name == inst.Name {
			r.Installations[idx] = inst
			return
		}
	}
	r.Installations = append(r.Installations, inst)
}

// ExpandRefs substitutes ${VAR} references against the passed variables.
// Unknown references are left in place which allows partially resolvable
// values to survive unchanged.
func ExpandRefs(text string, env map[string]string) string {
	return os.Expand(text, func(name string) string {
		if value, ok := env[name]; ok {
			return value
		}
		return "${" + name + "}"
	})
}

// ForEnvironment returns a copy of the installation with environment
// references in Home resolved.
func (i *Installation) ForEnvironment(env map[string]string) *Installation {
	clone := *i
	clone.Home = ExpandRefs(i.Home, env)
	return &clone
}

// Executable returns the path of the Ant launcher inside this installation.
func (i *Installation) Executable(windows bool) string {
	name := "ant"
	if windows {
		name = "ant.bat"
	}
	return filepath.Join(i.Home, "bin", name)
}

// BuildEnv merges this installation's contributions into the execution
// environment: ANT_HOME, a PATH entry for bin/ and any configured extras.
func (i *Installation) BuildEnv(env map[string]string) {
	env["ANT_HOME"] = i.Home

	bin := filepath.Join(i.Home, "bin")
	if path := env["PATH"]; path != "" {
		env["PATH"] = bin + string(os.PathListSeparator) + path
	} else {
		env["PATH"] = bin
	}

	for key, value := range i.Env {
		env[key] = ExpandRefs(value, env)
	}
}

// DefaultRegistryPath returns the per-user installations file.
func DefaultRegistryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "failed to determine the home directory")
	}
	return filepath.Join(home, ".antexec", "installations.yml"), nil
}

// DefaultContribJar returns the per-user location of the bundled
// ant-contrib.jar that gets copied into workspaces.
func DefaultContribJar() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "failed to determine the home directory")
	}
	return filepath.Join(home, ".antexec", "lib", "ant-contrib.jar"), nil
}

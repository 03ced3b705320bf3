package antjob

import (
	"io/ioutil"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultDescriptorName is used whenever the job doesn't set a script name.
const DefaultDescriptorName = "antexec_build.xml"

const propertiesSuffix = ".properties"

// Config contains everything a job specifies about a single Ant invocation.
// Every string field may be empty; all booleans default to false which matches
// the behavior of an unchecked checkbox.
type Config struct {
	// Script is the body of the default target (required for a useful build).
	Script string `yaml:"script"`
	// ExtendedScript is inserted after the default target as additional
	// top-level declarations (targets, macrodefs, ...).
	ExtendedScript string `yaml:"extendedScript,omitempty"`
	// ScriptName overrides the name of the generated build file and of the
	// default target.
	ScriptName string `yaml:"scriptName,omitempty"`
	// Properties holds key=value lines that are written to the generated
	// property file, overriding build variables on conflicts.
	Properties string `yaml:"properties,omitempty"`
	// AntName selects a registered Ant installation. If empty, a bare "ant"
	// command resolved through PATH is used.
	AntName string `yaml:"antName,omitempty"`
	// AntOpts is exported as ANT_OPTS after ${VAR} references were expanded
	// against the execution environment.
	AntOpts string `yaml:"antOpts,omitempty"`

	KeepBuildfile bool `yaml:"keepBuildfile,omitempty"`
	Verbose       bool `yaml:"verbose,omitempty"`
	Emacs         bool `yaml:"emacs,omitempty"`
	NoAntContrib  bool `yaml:"noAntContrib,omitempty"`
}

// LoadConfig reads a job file
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "could not read job file %s", path)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse job file %s", path)
	}

	return &cfg, nil
}

// DescriptorName returns the name of the generated build file.
func (c *Config) DescriptorName() string {
	if c.ScriptName != "" {
		return c.ScriptName
	}
	return DefaultDescriptorName
}

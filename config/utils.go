package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	"github.com/imdario/mergo"
	"github.com/mitchellh/go-homedir"
)

// ToYaml formats the configuration into YAML and returns the bytes.
func ToYaml(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// ToYamlFile writes the configuration to a YAML file.
func ToYamlFile(c Config, path string) error {
	b, err := ToYaml(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// Parse parses a YAML doc into the given Config instance.
func Parse(raw []byte, conf *Config) error {
	if err := yaml.Unmarshal(raw, conf); err != nil {
		return fmt.Errorf("failed to parse config: %v", err)
	}
	return nil
}

// ParseFile parses a gxrunner config file, which is formatted in YAML,
// into the given Config instance.
func ParseFile(relpath string, conf *Config) error {
	if relpath == "" {
		return nil
	}

	// Try to get absolute path. If it fails, fall back to relative path.
	path, abserr := filepath.Abs(relpath)
	if abserr != nil {
		path = relpath
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config at path %s: \n%v", path, err)
	}

	err = Parse(source, conf)
	if err != nil {
		return fmt.Errorf("failed to parse config at path %s: %v", path, err)
	}
	return nil
}

// Merge builds a config from defaults, the config file at the given path
// (if any), and finally the non-zero values of flagConf, in that order of
// increasing precedence.
func Merge(file string, flagConf Config) (Config, error) {
	conf := DefaultConfig()
	if err := ParseFile(file, &conf); err != nil {
		return conf, err
	}

	// file vals <- cli val
	if err := mergo.MergeWithOverwrite(&conf, flagConf); err != nil {
		return conf, err
	}
	if err := expandPaths(&conf); err != nil {
		return conf, err
	}
	return conf, conf.Validate()
}

// expandPaths resolves a leading "~" in the configured filesystem paths.
func expandPaths(c *Config) error {
	for _, p := range []*string{
		&c.Runner.WorkDir,
		&c.BoltDB.Path,
		&c.Badger.Path,
		&c.Logger.OutputFile,
	} {
		x, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding %s: %v", *p, err)
		}
		*p = x
	}
	return nil
}

package util

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/galaxyproject/gxrunner/config"
)

// MergeConfigFileWithFlags is a util used by commands that use flags to set
// config values. These commands can also take in the path to a config file.
// Flag values override values in the provided config file.
func MergeConfigFileWithFlags(file string, flagConf config.Config) (config.Config, error) {
	return config.Merge(file, flagConf)
}

// TempConfigFile writes the configuration to a temporary file.
// Returns:
// - "path" is the path of the file.
// - "cleanup" can be called to remove the temporary file.
func TempConfigFile(c config.Config, name string) (path string, cleanup func()) {
	tmpdir, err := ioutil.TempDir("", "")
	if err != nil {
		panic(err)
	}

	cleanup = func() {
		os.RemoveAll(tmpdir)
	}

	p := filepath.Join(tmpdir, name)
	err = config.ToYamlFile(c, p)
	if err != nil {
		panic(err)
	}
	return p, cleanup
}

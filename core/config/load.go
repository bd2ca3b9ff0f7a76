package config

import (
	"log"
	"os"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load reads and validates the configuration at path. A missing file
// yields the default configuration; that is not an error.
func Load(fs afero.Fs, path string) (*Configuration, error) {
	contents, err := afero.ReadFile(fs, ExpandHome(path))
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	out := Default()
	if err := yaml.UnmarshalStrict(contents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Initialize writes the default configuration to path unless a file
// already exists there.
func Initialize(fs afero.Fs, path string, logger *log.Logger) (*Configuration, error) {
	path = ExpandHome(path)

	if exists, err := afero.Exists(fs, path); err != nil {
		return nil, err
	} else if exists {
		logger.Printf("configuration already exists at %q, leaving it alone", path)
		return Load(fs, path)
	}

	cfg := Default()
	contents, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	if err := afero.WriteFile(fs, path, contents, 0600); err != nil {
		return nil, err
	}
	logger.Printf("wrote default configuration to %q", path)
	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}

// LoadTunables reads a tunables file, fills unset fields with defaults and validates.
func LoadTunables(path string) (*Tunables, error) {
	var tc Tunables
	if err := loadYAML(path, &tc); err != nil {
		return nil, fmt.Errorf("load tunables %s: %w", path, err)
	}
	tc.ApplyDefaults()
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return &tc, nil
}

func LoadItems(path string) (*ItemsConfig, error) {
	var ic ItemsConfig
	if err := loadYAML(path, &ic); err != nil {
		return nil, fmt.Errorf("load items %s: %w", path, err)
	}
	return &ic, nil
}

func LoadRoster(path string) (*RosterConfig, error) {
	var rc RosterConfig
	if err := loadYAML(path, &rc); err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	return &rc, nil
}

func LoadAll(dir string) (*Tunables, *ItemsConfig, *RosterConfig, error) {
	tc, err := LoadTunables(filepath.Join(dir, "tunables.yaml"))
	if err != nil {
		return nil, nil, nil, err
	}
	ic, err := LoadItems(filepath.Join(dir, "items.yaml"))
	if err != nil {
		return nil, nil, nil, err
	}
	rc, err := LoadRoster(filepath.Join(dir, "roster.yaml"))
	if err != nil {
		return nil, nil, nil, err
	}
	return tc, ic, rc, nil
}

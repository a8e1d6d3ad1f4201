package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	envServer = "TASKCTL_SERVER"
	envToken  = "TASKCTL_TOKEN"

	defaultServer = "http://localhost:5000"
)

// Profile is the persisted taskctl configuration.
type Profile struct {
	Server string `yaml:"server"`
	Token  string `yaml:"token,omitempty"`
}

func defaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".taskctl", "config.yaml")
	}
	return filepath.Join(dir, "taskctl", "config.yaml")
}

// LoadProfile reads the profile at path. A missing file yields the defaults.
func LoadProfile(path string) (*Profile, error) {
	profile := &Profile{Server: defaultServer}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if profile.Server == "" {
		profile.Server = defaultServer
	}
	return profile, nil
}

// Save writes the profile with owner-only permissions since it holds a token.
func (p *Profile) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Merge applies environment overrides and then explicit flag values.
func (p *Profile) Merge(server, token string) {
	if v := os.Getenv(envServer); v != "" {
		p.Server = v
	}
	if v := os.Getenv(envToken); v != "" {
		p.Token = v
	}
	if server != "" {
		p.Server = server
	}
	if token != "" {
		p.Token = token
	}
}

package main

import (
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors ~/.config/rabit/config.yaml. Every field is
// optional; flags override anything set here.
type fileConfig struct {
	MaxConcurrent  int    `yaml:"maxConcurrent"`
	MinDelayMs     int    `yaml:"minDelayMs"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxDepth       int    `yaml:"maxDepth"`
	MaxEntries     int    `yaml:"maxEntries"`
	Strategy       string `yaml:"strategy"`
	GitCacheDir    string `yaml:"gitCacheDir"`
	NoGitFallback  bool   `yaml:"noGitFallback"`
}

// loadConfig reads the optional config file. A missing or unreadable
// file yields the zero config; a malformed one is ignored the same way
// so a bad config never blocks the CLI.
func loadConfig() fileConfig {
	var cfg fileConfig
	path := configPath()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(data, &cfg)
	return cfg
}

func configPath() string {
	if v := os.Getenv("RABIT_CONFIG"); v != "" {
		return v
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := homedir.Dir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "rabit", "config.yaml")
}

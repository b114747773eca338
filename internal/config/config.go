// Package config provides configuration management for dufs-get.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/rescale/dufs-get/internal/constants"
)

// Config holds the settings read from the optional config file.
//
// INI format:
//
//	[server]
//	url = http://nas.local:6008
//
//	[download]
//	dir = /data/downloads
//	notify = false
type Config struct {
	// ServerURL is the default server when no argument or DUFS_URL is given.
	ServerURL string

	// DownloadDir is the default save directory when --dir is not given.
	DownloadDir string

	// Notify enables desktop notifications after folder downloads.
	Notify bool
}

// DefaultConfigPath returns the default location of the config file:
// <UserConfigDir>/dufs-get/config (e.g. ~/.config/dufs-get/config on Linux).
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to determine config directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "dufs-get", "config"), nil
}

// Load reads configuration from path. An empty path uses DefaultConfigPath.
// A missing file is not an error: an empty Config is returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	serverSection := iniFile.Section("server")
	cfg.ServerURL = strings.TrimSpace(serverSection.Key("url").String())

	downloadSection := iniFile.Section("download")
	cfg.DownloadDir = strings.TrimSpace(downloadSection.Key("dir").String())
	cfg.Notify = downloadSection.Key("notify").MustBool(false)

	return cfg, nil
}

// ResolveServerURL picks the server URL by precedence:
// explicit argument > environment variable > config file > built-in default.
func (c *Config) ResolveServerURL(arg string) string {
	if arg = strings.TrimSpace(arg); arg != "" {
		return arg
	}
	if env := strings.TrimSpace(os.Getenv(constants.ServerURLEnv)); env != "" {
		return env
	}
	if c != nil && c.ServerURL != "" {
		return c.ServerURL
	}
	return constants.DefaultServerURL
}

// ResolveDownloadDir picks the save directory by precedence:
// --dir flag > config file > the directory holding the executable.
func (c *Config) ResolveDownloadDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if c != nil && c.DownloadDir != "" {
		return c.DownloadDir, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Package config reads the bridgectl settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config mirrors config.toml. Every field is optional; command line flags
// take precedence.
type Config struct {
	Broker    string            `toml:"broker"`
	Identity  string            `toml:"identity"`
	TopicBase string            `toml:"topic_base"`
	NodeID    string            `toml:"node_id"`
	Aliases   map[string]string `toml:"aliases"`
	Defaults  Defaults          `toml:"defaults"`
	TLS       TLS               `toml:"tls"`
	Auth      Auth              `toml:"auth"`
}

// Defaults applies when a command names no device.
type Defaults struct {
	Device string `toml:"device"`
}

// TLS points at PEM files for an mqtts:// broker.
type TLS struct {
	CA   string `toml:"ca"`
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

// Auth is the broker login.
type Auth struct {
	User string `toml:"user"`
	Pass string `toml:"pass"`
}

// Load reads the file at Path.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile reads path. A missing file is not an error; misspelled keys are.
func LoadFile(path string) (Config, error) {
	cfg := Config{Aliases: map[string]string{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys %s", path, strings.Join(names, ", "))
	}

	aliases := make(map[string]string, len(cfg.Aliases))
	for short, room := range cfg.Aliases {
		aliases[strings.TrimSpace(short)] = strings.TrimSpace(room)
	}
	cfg.Aliases = aliases
	return cfg, nil
}

// Path is raumbridge/config.toml under the user config directory.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "raumbridge", "config.toml"), nil
}

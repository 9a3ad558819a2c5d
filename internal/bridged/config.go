package bridged

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mikey-austin/raumbridge/pkg/brain"
)

// Config is the top-level configuration for bridged.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Raumfeld RaumfeldConfig `toml:"raumfeld"`
	Bridge   BridgeConfig   `toml:"bridge"`
	Modules  ModulesConfig  `toml:"modules"`
}

// ServerConfig holds the MQTT connection and logging settings.
type ServerConfig struct {
	Broker    string     `toml:"broker"`
	Identity  string     `toml:"identity"`
	TopicBase string     `toml:"topic_base"`
	LogLevel  string     `toml:"log_level"`
	LogFormat string     `toml:"log_format"`
	LogOutput string     `toml:"log_output"`
	LogSource bool       `toml:"log_source"`
	LogUTC    bool       `toml:"log_utc"`
	LogColor  bool       `toml:"log_color"`
	TLS       TLSConfig  `toml:"tls"`
	Auth      AuthConfig `toml:"auth"`
}

// TLSConfig holds TLS paths for MQTT.
type TLSConfig struct {
	CA   string `toml:"ca"`
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

// AuthConfig holds MQTT credentials.
type AuthConfig struct {
	User string `toml:"user"`
	Pass string `toml:"pass"`
}

// RaumfeldConfig locates the Raumfeld host.
type RaumfeldConfig struct {
	Host               string `toml:"host"`
	TimeoutMS          int64  `toml:"timeout_ms"`
	PollIntervalMS     int64  `toml:"poll_interval_ms"`
	TopologyIntervalMS int64  `toml:"topology_interval_ms"`
}

// Timeout returns the HTTP timeout for host and renderer calls.
func (r RaumfeldConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// PollInterval returns the renderer state poll period.
func (r RaumfeldConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalMS) * time.Millisecond
}

// TopologyInterval returns the zone configuration refresh period.
func (r RaumfeldConfig) TopologyInterval() time.Duration {
	return time.Duration(r.TopologyIntervalMS) * time.Millisecond
}

// BridgeConfig configures the brain-facing node.
type BridgeConfig struct {
	NodeID     string `toml:"node_id"`
	Name       string `toml:"name"`
	VolumeStep int    `toml:"volume_step"`
	VolumeMax  int    `toml:"volume_max"`
	QueueSize  int    `toml:"queue_size"`
}

// ModulesConfig holds optional module configurations.
type ModulesConfig struct {
	EmbeddedMQTT EmbeddedMQTTConfig `toml:"embedded_mqtt"`
}

// EmbeddedMQTTConfig configures the embedded MQTT broker.
type EmbeddedMQTTConfig struct {
	Enabled        bool   `toml:"enabled"`
	Listen         string `toml:"listen"`
	AllowAnonymous bool   `toml:"allow_anonymous"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TLSCA          string `toml:"tls_ca"`
	TLSCert        string `toml:"tls_cert"`
	TLSKey         string `toml:"tls_key"`
}

// TLSEnabled reports whether the embedded listener serves TLS.
func (e EmbeddedMQTTConfig) TLSEnabled() bool {
	return e.TLSCert != "" || e.TLSKey != "" || e.TLSCA != ""
}

// DefaultEmbeddedListen is the embedded broker address when none is set.
const DefaultEmbeddedListen = "127.0.0.1:1883"

// DefaultNodeID is the bridge node id when none is configured.
const DefaultNodeID = "raumbridge:bridge:raumfeld:default:main"

// LoadConfig loads a config file from path.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Server.TopicBase == "" {
		c.Server.TopicBase = brain.BaseTopic
	}
	if c.Server.Identity == "" {
		c.Server.Identity = "bridged"
	}
	if c.Bridge.NodeID == "" {
		c.Bridge.NodeID = DefaultNodeID
	}
	if c.Bridge.Name == "" {
		c.Bridge.Name = "Raumfeld"
	}
	if c.Modules.EmbeddedMQTT.Enabled && c.Modules.EmbeddedMQTT.Listen == "" {
		c.Modules.EmbeddedMQTT.Listen = DefaultEmbeddedListen
	}
}

// Validate reports settings the daemon cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Raumfeld.Host) == "" {
		return errors.New("raumfeld host is required")
	}
	if c.Server.Broker == "" && !c.Modules.EmbeddedMQTT.Enabled {
		return errors.New("broker is required")
	}
	if c.Bridge.VolumeStep < 0 || c.Bridge.VolumeMax < 0 || c.Bridge.VolumeMax > 100 {
		return fmt.Errorf("invalid volume settings: step=%d max=%d", c.Bridge.VolumeStep, c.Bridge.VolumeMax)
	}
	if c.Bridge.QueueSize < 0 {
		return fmt.Errorf("invalid queue size: %d", c.Bridge.QueueSize)
	}
	return nil
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "raumbridge", "bridged.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "raumbridge", "bridged.toml"), nil
}

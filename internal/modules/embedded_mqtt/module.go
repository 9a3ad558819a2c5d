// Package embeddedmqtt runs an in-process MQTT broker for single-host setups.
package embeddedmqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey-austin/raumbridge/internal/adapters/mqtttls"
	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"go.uber.org/zap"
)

// DefaultListen is the broker address when none is configured.
const DefaultListen = "127.0.0.1:1883"

// Config configures the embedded MQTT broker.
type Config struct {
	Listen         string
	AllowAnonymous bool
	Username       string
	Password       string
	TLSCA          string
	TLSCert        string
	TLSKey         string
}

// TLSEnabled reports whether the listener serves TLS.
func (c Config) TLSEnabled() bool {
	return c.TLSCert != "" || c.TLSKey != "" || c.TLSCA != ""
}

// Module runs an embedded MQTT broker.
type Module struct {
	log    *zap.Logger
	server *mqtt.Server
	config Config
}

// NewModule creates a new embedded broker module.
func NewModule(log *zap.Logger, cfg Config) (*Module, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = DefaultListen
	}

	server, err := newServer(log, cfg)
	if err != nil {
		return nil, err
	}
	return &Module{log: log, server: server, config: cfg}, nil
}

// Run serves until ctx is done.
func (m *Module) Run(ctx context.Context) error {
	listenerConfig := listeners.Config{ID: "tcp-embedded", Address: m.config.Listen}
	tlsConfig, err := mqtttls.Load(m.config.TLSCA, m.config.TLSCert, m.config.TLSKey)
	if err != nil {
		return err
	}
	listenerConfig.TLSConfig = tlsConfig

	if err := m.server.AddListener(listeners.NewTCP(listenerConfig)); err != nil {
		return fmt.Errorf("embedded mqtt listen %s: %w", m.config.Listen, err)
	}
	if err := m.server.Serve(); err != nil {
		return fmt.Errorf("embedded mqtt serve: %w", err)
	}
	m.log.Info("embedded mqtt listening", zap.String("listen", m.config.Listen), zap.Bool("tls", tlsConfig != nil))

	<-ctx.Done()
	return m.server.Close()
}

func newServer(log *zap.Logger, cfg Config) (*mqtt.Server, error) {
	server := mqtt.New(&mqtt.Options{InlineClient: true, Logger: newSlogLogger(log)})

	switch {
	case cfg.AllowAnonymous:
		if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
			return nil, err
		}
	case cfg.Username != "":
		ledger := &auth.Ledger{
			Auth: auth.AuthRules{{Username: auth.RString(cfg.Username), Password: auth.RString(cfg.Password), Allow: true}},
			ACL:  auth.ACLRules{{Username: auth.RString(cfg.Username), Filters: auth.Filters{auth.RString("#"): auth.ReadWrite}}},
		}
		if err := server.AddHook(new(auth.Hook), &auth.Options{Ledger: ledger}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("embedded mqtt requires allow_anonymous or username")
	}
	return server, nil
}

// BrokerURL returns the client URL for a listen address. Wildcard hosts map
// to loopback.
func BrokerURL(listen string, tlsEnabled bool) string {
	scheme := "mqtt"
	if tlsEnabled {
		scheme = "mqtts"
	}
	switch {
	case strings.HasPrefix(listen, ":"):
		listen = "127.0.0.1" + listen
	case strings.HasPrefix(listen, "0.0.0.0:"):
		listen = "127.0.0.1" + strings.TrimPrefix(listen, "0.0.0.0")
	}
	return fmt.Sprintf("%s://%s", scheme, listen)
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikey-austin/raumbridge/internal/bridged"
	"github.com/mikey-austin/raumbridge/pkg/brain"
	"go.uber.org/zap"
)

type nopClient struct{}

func (nopClient) Publish(string, byte, bool, []byte) error          { return nil }
func (nopClient) Subscribe(string, byte, paho.MessageHandler) error { return nil }
func (nopClient) Unsubscribe(string) error                          { return nil }

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridged.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestResolveConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
broker = "tcp://cfg:1883"
log_level = "info"

[raumfeld]
host = "10.0.0.2"
`)
	cfg, err := resolveConfig(path, overrides{broker: "tcp://flag:1883", logLevel: "debug", raumfeldHost: "10.0.0.9", logUTC: true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Server.Broker != "tcp://flag:1883" || cfg.Server.LogLevel != "debug" || !cfg.Server.LogUTC {
		t.Fatalf("overrides not applied: %+v", cfg.Server)
	}
	if cfg.Raumfeld.Host != "10.0.0.9" {
		t.Fatalf("host = %q", cfg.Raumfeld.Host)
	}
	if cfg.Bridge.NodeID != bridged.DefaultNodeID || cfg.Server.Identity != "bridged" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestResolveConfigEmbeddedBroker(t *testing.T) {
	path := writeConfig(t, `
[raumfeld]
host = "10.0.0.2"

[modules.embedded_mqtt]
enabled = true
listen = ":1884"
allow_anonymous = true
`)
	cfg, err := resolveConfig(path, overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Server.Broker != "mqtt://127.0.0.1:1884" {
		t.Fatalf("broker = %q", cfg.Server.Broker)
	}
	if cfg.Server.Broker != embeddedBrokerURL(cfg) {
		t.Fatalf("embedded url mismatch")
	}
}

func TestResolveConfigRequiresHost(t *testing.T) {
	path := writeConfig(t, "[server]\nbroker = \"tcp://cfg:1883\"\n")
	if _, err := resolveConfig(path, overrides{}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := resolveConfig(path, overrides{raumfeldHost: "10.0.0.2"}); err != nil {
		t.Fatalf("host override: %v", err)
	}
}

func TestBuildModules(t *testing.T) {
	cfg := bridged.Config{}
	cfg.Raumfeld.Host = "10.0.0.2"
	cfg.ApplyDefaults()

	modules, err := buildModules(cfg, nopClient{}, zap.NewNop(), false)
	if err != nil {
		t.Fatalf("buildModules: %v", err)
	}
	names := []string{}
	for _, m := range modules {
		names = append(names, m.Name)
	}
	if got := strings.Join(names, ","); got != "raumfeld,synchronizer,notifier,brain_bridge" {
		t.Fatalf("modules = %s", got)
	}

	cfg.Modules.EmbeddedMQTT.Enabled = true
	cfg.Modules.EmbeddedMQTT.AllowAnonymous = true
	modules, err = buildModules(cfg, nopClient{}, zap.NewNop(), false)
	if err != nil {
		t.Fatalf("buildModules: %v", err)
	}
	if len(modules) != 5 || modules[0].Name != "embedded_mqtt" {
		t.Fatalf("expected embedded module first, got %d modules", len(modules))
	}

	modules, err = buildModules(cfg, nopClient{}, zap.NewNop(), true)
	if err != nil {
		t.Fatalf("buildModules: %v", err)
	}
	if len(modules) != 4 {
		t.Fatalf("expected embedded module skipped")
	}
}

func TestBuildModulesBadHost(t *testing.T) {
	cfg := bridged.Config{}
	cfg.ApplyDefaults()
	if _, err := buildModules(cfg, nopClient{}, zap.NewNop(), false); err == nil {
		t.Fatalf("expected error for missing host")
	}
}

func TestPrintResolvedConfig(t *testing.T) {
	cfg := bridged.Config{}
	cfg.Raumfeld.Host = "10.0.0.2"
	cfg.ApplyDefaults()
	var buf bytes.Buffer
	printResolvedConfig(&buf, cfg)
	out := buf.String()
	if !strings.Contains(out, "raumfeld_host=10.0.0.2") || !strings.Contains(out, "node_id="+bridged.DefaultNodeID) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestWaitForListen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	if err := waitForListen(ln.Addr().String(), time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}

	addr := ln.Addr().String()
	ln.Close()
	if err := waitForListen(addr, 200*time.Millisecond); err == nil {
		t.Fatalf("expected timeout on closed listener")
	}
}

func TestConnectClientToEmbeddedBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	listen := ln.Addr().String()
	ln.Close()

	path := writeConfig(t, fmt.Sprintf(`
[raumfeld]
host = "10.0.0.2"

[modules.embedded_mqtt]
enabled = true
listen = %q
allow_anonymous = true
`, listen))
	cfg, err := resolveConfig(path, overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := startEmbeddedBroker(ctx, cfg, zap.NewNop(), cancel); err != nil {
		t.Fatalf("embedded broker: %v", err)
	}

	client, err := connectClient(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close(0)

	topic := brain.TopicEvents(cfg.Server.TopicBase, cfg.Bridge.NodeID)
	received := make(chan []byte, 1)
	if err := client.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		select {
		case received <- msg.Payload():
		default:
		}
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := client.Publish(topic, 1, false, []byte(`{"component":"VOLUME"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case payload := <-received:
		if string(payload) != `{"component":"VOLUME"}` {
			t.Fatalf("unexpected payload %q", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message never arrived")
	}
}

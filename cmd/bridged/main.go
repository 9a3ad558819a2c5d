package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikey-austin/raumbridge/internal/adapters/idgen"
	"github.com/mikey-austin/raumbridge/internal/adapters/mqttserver"
	"github.com/mikey-austin/raumbridge/internal/adapters/raumfeld"
	"github.com/mikey-austin/raumbridge/internal/bridged"
	brainbridge "github.com/mikey-austin/raumbridge/internal/modules/brain_bridge"
	embeddedmqtt "github.com/mikey-austin/raumbridge/internal/modules/embedded_mqtt"
	"github.com/mikey-austin/raumbridge/internal/player"
	"github.com/mikey-austin/raumbridge/pkg/brain"
	"go.uber.org/zap"
)

type overrides struct {
	broker       string
	identity     string
	topicBase    string
	logLevel     string
	logFormat    string
	logOutput    string
	logSource    bool
	logUTC       bool
	logColor     bool
	raumfeldHost string
}

func main() {
	var (
		configPath  string
		printConfig bool
		dryRun      bool
		ov          overrides
	)

	defaultConfig, err := bridged.DefaultConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.StringVar(&configPath, "config", defaultConfig, "config file path")
	flag.StringVar(&ov.broker, "broker", "", "MQTT broker URL override")
	flag.StringVar(&ov.identity, "identity", "", "server identity override")
	flag.StringVar(&ov.topicBase, "topic-base", "", "topic base override")
	flag.StringVar(&ov.logLevel, "log-level", "", "log level override")
	flag.StringVar(&ov.logFormat, "log-format", "", "log format override (console|json)")
	flag.StringVar(&ov.logOutput, "log-output", "", "log output override (stdout|stderr|path)")
	flag.BoolVar(&ov.logSource, "log-source", false, "include source file in logs")
	flag.BoolVar(&ov.logUTC, "log-utc", false, "use UTC timestamps in logs")
	flag.BoolVar(&ov.logColor, "log-color", false, "enable colored log output (console only)")
	flag.StringVar(&ov.raumfeldHost, "raumfeld-host", "", "Raumfeld host override")
	flag.BoolVar(&printConfig, "print-config", false, "print resolved config and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "validate config and exit")
	flag.Parse()

	cfg, err := resolveConfig(configPath, ov)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if printConfig {
		printResolvedConfig(os.Stdout, cfg)
		return
	}
	if dryRun {
		return
	}

	logger, err := bridged.NewLogger(bridged.LogConfig{
		Level:     cfg.Server.LogLevel,
		Format:    cfg.Server.LogFormat,
		Output:    cfg.Server.LogOutput,
		AddSource: cfg.Server.LogSource,
		UTC:       cfg.Server.LogUTC,
		Color:     cfg.Server.LogColor,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	skipEmbedded := false
	if cfg.Modules.EmbeddedMQTT.Enabled && cfg.Server.Broker == embeddedBrokerURL(cfg) {
		if err := startEmbeddedBroker(ctx, cfg, logger, cancel); err != nil {
			logger.Error("embedded mqtt failed", zap.Error(err))
			os.Exit(1)
		}
		skipEmbedded = true
	}

	logger.Info("bridged starting",
		zap.String("broker", cfg.Server.Broker),
		zap.String("identity", cfg.Server.Identity),
		zap.String("topic_base", cfg.Server.TopicBase),
		zap.String("raumfeld_host", cfg.Raumfeld.Host),
		zap.String("node_id", cfg.Bridge.NodeID),
		zap.String("log_level", cfg.Server.LogLevel),
		zap.String("log_format", cfg.Server.LogFormat),
		zap.Strings("modules", enabledModules(cfg)),
	)

	client, err := connectClient(cfg, logger)
	if err != nil {
		logger.Error("mqtt connection failed", zap.Error(err))
		os.Exit(1)
	}
	defer client.Close(250 * time.Millisecond)

	modules, err := buildModules(cfg, client, logger, skipEmbedded)
	if err != nil {
		logger.Error("failed to build modules", zap.Error(err))
		os.Exit(1)
	}

	supervisor := bridged.Supervisor{Logger: logger}
	if err := supervisor.Run(ctx, modules); err != nil {
		logger.Error("supervisor error", zap.Error(err))
		os.Exit(1)
	}
}

// resolveConfig loads path and layers the command line on top. A missing
// broker falls back to the embedded listener when that module is enabled.
func resolveConfig(path string, ov overrides) (bridged.Config, error) {
	cfg, err := bridged.LoadConfig(path)
	if err != nil {
		return bridged.Config{}, err
	}
	applyOverrides(&cfg, ov)
	cfg.ApplyDefaults()
	if cfg.Server.Broker == "" && cfg.Modules.EmbeddedMQTT.Enabled {
		cfg.Server.Broker = embeddedBrokerURL(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return bridged.Config{}, err
	}
	return cfg, nil
}

func applyOverrides(cfg *bridged.Config, ov overrides) {
	if ov.broker != "" {
		cfg.Server.Broker = ov.broker
	}
	if ov.identity != "" {
		cfg.Server.Identity = ov.identity
	}
	if ov.topicBase != "" {
		cfg.Server.TopicBase = ov.topicBase
	}
	if ov.logLevel != "" {
		cfg.Server.LogLevel = ov.logLevel
	}
	if ov.logFormat != "" {
		cfg.Server.LogFormat = ov.logFormat
	}
	if ov.logOutput != "" {
		cfg.Server.LogOutput = ov.logOutput
	}
	if ov.logSource {
		cfg.Server.LogSource = true
	}
	if ov.logUTC {
		cfg.Server.LogUTC = true
	}
	if ov.logColor {
		cfg.Server.LogColor = true
	}
	if ov.raumfeldHost != "" {
		cfg.Raumfeld.Host = ov.raumfeldHost
	}
}

// mqttClient is what the bridge module needs from the daemon connection.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler paho.MessageHandler) error
	Unsubscribe(topic string) error
}

// connectClient dials the broker. The last will marks the node offline if
// the connection drops without a clean shutdown.
func connectClient(cfg bridged.Config, logger *zap.Logger) (*mqttserver.Client, error) {
	return mqttserver.NewClient(mqttserver.Options{
		BrokerURL: cfg.Server.Broker,
		ClientID:  "bridged-" + idgen.Generator{}.NewID(),
		Username:  cfg.Server.Auth.User,
		Password:  cfg.Server.Auth.Pass,
		TLSCA:     cfg.Server.TLS.CA,
		TLSCert:   cfg.Server.TLS.Cert,
		TLSKey:    cfg.Server.TLS.Key,
		Timeout:   2 * time.Second,
		Will: &mqttserver.Will{
			Topic:    brain.TopicPresence(cfg.Server.TopicBase, cfg.Bridge.NodeID),
			Payload:  brain.OfflinePresence(cfg.Bridge.NodeID),
			Retained: true,
		},
		Logger: logger.With(zap.String("component", "mqtt")),
		Debug:  cfg.Server.LogLevel == "debug",
	})
}

func buildModules(cfg bridged.Config, client mqttClient, logger *zap.Logger, skipEmbedded bool) ([]bridged.ModuleRunner, error) {
	modules := []bridged.ModuleRunner{}
	if cfg.Modules.EmbeddedMQTT.Enabled && !skipEmbedded {
		mod, err := embeddedmqtt.NewModule(logger.With(zap.String("module", "embedded_mqtt")), embeddedConfig(cfg))
		if err != nil {
			return nil, err
		}
		modules = append(modules, bridged.ModuleRunner{Name: "embedded_mqtt", Run: mod.Run})
	}

	network, err := raumfeld.New(logger.With(zap.String("module", "raumfeld")), raumfeld.Config{
		Host:             cfg.Raumfeld.Host,
		Timeout:          cfg.Raumfeld.Timeout(),
		PollInterval:     cfg.Raumfeld.PollInterval(),
		TopologyInterval: cfg.Raumfeld.TopologyInterval(),
	})
	if err != nil {
		return nil, err
	}

	playerLog := logger.With(zap.String("module", "player"))
	notifier := player.NewNotifier(playerLog)
	synchronizer := player.NewSynchronizer(playerLog, network, notifier)
	controller := player.NewController(playerLog, synchronizer, player.Config{
		VolumeStep: cfg.Bridge.VolumeStep,
		VolumeMax:  cfg.Bridge.VolumeMax,
		QueueSize:  cfg.Bridge.QueueSize,
	})

	bridge, err := brainbridge.NewModule(logger.With(zap.String("module", "brain_bridge")), client, controller, notifier, brainbridge.Config{
		NodeID:    cfg.Bridge.NodeID,
		TopicBase: cfg.Server.TopicBase,
		Name:      cfg.Bridge.Name,
	})
	if err != nil {
		return nil, err
	}

	modules = append(modules,
		bridged.ModuleRunner{Name: "raumfeld", Run: func(ctx context.Context) error {
			return runNetwork(ctx, network, controller, logger)
		}},
		bridged.ModuleRunner{Name: "synchronizer", Run: synchronizer.Run},
		bridged.ModuleRunner{Name: "notifier", Run: notifier.Run},
		bridged.ModuleRunner{Name: "brain_bridge", Run: bridge.Run},
	)
	return modules, nil
}

// runNetwork discovers the rooms once so they are known before the first
// command, then keeps the topology fresh.
func runNetwork(ctx context.Context, network *raumfeld.Network, controller *player.Controller, logger *zap.Logger) error {
	devices, err := controller.DiscoverDevices(ctx)
	if err != nil {
		logger.Warn("initial discovery failed", zap.Error(err))
	} else {
		logger.Info("raumfeld rooms discovered", zap.Int("devices", len(devices)))
	}
	return network.Run(ctx)
}

func enabledModules(cfg bridged.Config) []string {
	out := []string{}
	if cfg.Modules.EmbeddedMQTT.Enabled {
		out = append(out, "embedded_mqtt")
	}
	return append(out, "raumfeld", "synchronizer", "notifier", "brain_bridge")
}

func printResolvedConfig(w io.Writer, cfg bridged.Config) {
	fmt.Fprintf(w,
		"broker=%s identity=%s topic_base=%s node_id=%s name=%s raumfeld_host=%s log_level=%s log_format=%s log_output=%s log_source=%t log_utc=%t log_color=%t embedded_mqtt=%t\n",
		cfg.Server.Broker,
		cfg.Server.Identity,
		cfg.Server.TopicBase,
		cfg.Bridge.NodeID,
		cfg.Bridge.Name,
		cfg.Raumfeld.Host,
		cfg.Server.LogLevel,
		cfg.Server.LogFormat,
		cfg.Server.LogOutput,
		cfg.Server.LogSource,
		cfg.Server.LogUTC,
		cfg.Server.LogColor,
		cfg.Modules.EmbeddedMQTT.Enabled,
	)
}

func embeddedConfig(cfg bridged.Config) embeddedmqtt.Config {
	return embeddedmqtt.Config{
		Listen:         cfg.Modules.EmbeddedMQTT.Listen,
		AllowAnonymous: cfg.Modules.EmbeddedMQTT.AllowAnonymous,
		Username:       cfg.Modules.EmbeddedMQTT.Username,
		Password:       cfg.Modules.EmbeddedMQTT.Password,
		TLSCA:          cfg.Modules.EmbeddedMQTT.TLSCA,
		TLSCert:        cfg.Modules.EmbeddedMQTT.TLSCert,
		TLSKey:         cfg.Modules.EmbeddedMQTT.TLSKey,
	}
}

func embeddedListen(cfg bridged.Config) string {
	if cfg.Modules.EmbeddedMQTT.Listen == "" {
		return bridged.DefaultEmbeddedListen
	}
	return cfg.Modules.EmbeddedMQTT.Listen
}

func embeddedBrokerURL(cfg bridged.Config) string {
	return embeddedmqtt.BrokerURL(embeddedListen(cfg), cfg.Modules.EmbeddedMQTT.TLSEnabled())
}

func startEmbeddedBroker(ctx context.Context, cfg bridged.Config, logger *zap.Logger, cancel context.CancelFunc) error {
	mod, err := embeddedmqtt.NewModule(logger.With(zap.String("module", "embedded_mqtt")), embeddedConfig(cfg))
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- mod.Run(ctx)
	}()
	go func() {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("embedded mqtt exited", zap.Error(err))
			cancel()
		}
	}()
	return waitForListen(embeddedListen(cfg), 3*time.Second)
}

func waitForListen(listen string, timeout time.Duration) error {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	addr := net.JoinHostPort(host, port)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("embedded mqtt not ready at %s", addr)
}

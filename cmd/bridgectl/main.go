package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/raumbridge/internal/adapters/clock"
	"github.com/mikey-austin/raumbridge/internal/adapters/config"
	"github.com/mikey-austin/raumbridge/internal/adapters/idgen"
	"github.com/mikey-austin/raumbridge/internal/adapters/mqtt"
	"github.com/mikey-austin/raumbridge/internal/adapters/output"
	"github.com/mikey-austin/raumbridge/internal/core"
	"github.com/mikey-austin/raumbridge/pkg/brain"
)

type app struct {
	service core.Service
	printer output.Printer
	node    string
	timeout time.Duration
	close   func()
}

type globalFlags struct {
	broker    string
	topicBase string
	identity  string
	node      string
	timeout   time.Duration
	jsonOut   bool
	noColor   bool
	tlsCA     string
	tlsCert   string
	tlsKey    string
	user      string
	pass      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := rootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(core.ExitCode(err))
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bridgectl",
		Short:         "Drive a Raumfeld bridge over MQTT",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	var flags globalFlags
	root.PersistentFlags().StringVarP(&flags.broker, "broker", "b", "", "MQTT broker URL")
	root.PersistentFlags().StringVar(&flags.topicBase, "topic-base", brain.BaseTopic, "MQTT topic base")
	root.PersistentFlags().StringVarP(&flags.identity, "identity", "i", "", "controller identity")
	root.PersistentFlags().StringVarP(&flags.node, "node", "n", "", "bridge node id or name")
	root.PersistentFlags().DurationVarP(&flags.timeout, "timeout", "t", 5*time.Second, "command timeout")
	root.PersistentFlags().BoolVarP(&flags.jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable color")
	root.PersistentFlags().StringVar(&flags.tlsCA, "tls-ca", "", "TLS CA path")
	root.PersistentFlags().StringVar(&flags.tlsCert, "tls-cert", "", "TLS cert path")
	root.PersistentFlags().StringVar(&flags.tlsKey, "tls-key", "", "TLS key path")
	root.PersistentFlags().StringVar(&flags.user, "user", "", "MQTT username")
	root.PersistentFlags().StringVar(&flags.pass, "pass", "", "MQTT password")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return core.WrapError(core.ExitUsage, "load config", err)
		}
		resolved, err := resolveFlags(flags, cfg)
		if err != nil {
			return err
		}

		ids := idgen.Generator{}
		clientID := "bridgectl-" + ids.NewID()
		mqttClient, err := mqtt.NewClient(mqtt.Options{
			BrokerURL: resolved.broker,
			ClientID:  clientID,
			Username:  resolved.user,
			Password:  resolved.pass,
			TLSCA:     resolved.tlsCA,
			TLSCert:   resolved.tlsCert,
			TLSKey:    resolved.tlsKey,
			TopicBase: resolved.topicBase,
			Timeout:   resolved.timeout,
		})
		if err != nil {
			return core.WrapError(core.ExitRuntime, "connect broker", err)
		}

		coreCfg := core.Config{
			Identity:      resolved.identity,
			NodeID:        resolved.node,
			DefaultDevice: cfg.Defaults.Device,
			Aliases:       cfg.Aliases,
		}
		service := core.Service{
			Broker:   mqttClient,
			Resolver: core.Resolver{Presence: mqttClient, Config: coreCfg},
			Clock:    clock.Clock{},
			IDGen:    ids,
			Config:   coreCfg,
		}

		var printer output.Printer = output.HumanPrinter{NoColor: resolved.noColor}
		if resolved.jsonOut {
			printer = output.JSONPrinter{}
		}

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
			service: service,
			printer: printer,
			node:    resolved.node,
			timeout: resolved.timeout,
			close:   mqttClient.Close,
		}))
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app := fromContext(cmd); app != nil && app.close != nil {
			app.close()
		}
	}

	root.AddCommand(nodesCommand())
	root.AddCommand(pressCommand())
	root.AddCommand(setCommand())
	root.AddCommand(getCommand())
	root.AddCommand(volumeCommand())
	root.AddCommand(browseCommand())
	root.AddCommand(actionCommand())
	root.AddCommand(discoverCommand())
	root.AddCommand(playURICommand())
	root.AddCommand(watchCommand())
	return root
}

// resolveFlags layers config.toml under the command line flags.
func resolveFlags(flags globalFlags, cfg config.Config) (globalFlags, error) {
	flags.identity = defaultIdentity(flags.identity, cfg.Identity)
	if flags.broker == "" {
		flags.broker = cfg.Broker
	}
	if flags.topicBase == brain.BaseTopic && cfg.TopicBase != "" {
		flags.topicBase = cfg.TopicBase
	}
	if flags.node == "" {
		flags.node = cfg.NodeID
	}
	if flags.tlsCA == "" {
		flags.tlsCA = cfg.TLS.CA
	}
	if flags.tlsCert == "" {
		flags.tlsCert = cfg.TLS.Cert
	}
	if flags.tlsKey == "" {
		flags.tlsKey = cfg.TLS.Key
	}
	if flags.user == "" {
		flags.user = cfg.Auth.User
		if flags.pass == "" {
			flags.pass = cfg.Auth.Pass
		}
	}
	if flags.broker == "" {
		return flags, &core.CLIError{Code: core.ExitUsage, Msg: "broker is required (set --broker or config)", Err: errors.New("no broker")}
	}
	return flags, nil
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (a *app) target(device string) core.Target {
	return core.Target{Node: a.node, Device: device}
}

func defaultIdentity(flagVal string, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	usr, _ := user.Current()
	host, _ := os.Hostname()
	if usr != nil && host != "" {
		return fmt.Sprintf("%s@%s", usr.Username, host)
	}
	if host != "" {
		return host
	}
	return "bridgectl-unknown"
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/xelactl/internal/logging"
	"github.com/danmuck/xelactl/internal/monitor"
	"github.com/danmuck/xelactl/internal/protocol/session"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xelactl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xelactl",
		Short: "Live terminal view of a tactile sensor hub",
		Long: `xelactl connects to a tactile sensor hub, keeps the latest grid for
every sensor it reports, and redraws the Z-axis of each grid ten times a second.

Optionally mirrors each sensor onto an MQTT topic and serves a read-only
admin endpoint with a JSON snapshot and Prometheus metrics.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureRuntime()
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			svc, err := monitor.NewService(cfg)
			if err != nil {
				return err
			}
			return svc.Run()
		},
	}

	defaults := monitor.DefaultServiceConfig()
	flags := cmd.Flags()
	flags.String("config", "", "TOML config file")
	flags.String("host", defaults.Session.Host, "hub host")
	flags.Int("port", defaults.Session.Port, "hub port")
	flags.String("transport", string(defaults.Session.Transport), "hub transport, one of [ws, tcp]")
	flags.Bool("reconnect", defaults.Session.Reconnect, "redial the hub with backoff when the connection drops")
	flags.Bool("tui", defaults.Display.TUI, "full-screen view (q to quit)")
	flags.Duration("interval", defaults.Display.Interval, "redraw interval")
	flags.String("mqtt-broker", "", "publish each sensor to this MQTT broker, e.g. tcp://localhost:1883")
	flags.String("admin-addr", "", "serve /health, /snapshot and /metrics on this address")
	return cmd
}

// resolveConfig layers defaults, the config file, XELACTL_* env, then flags.
func resolveConfig(cmd *cobra.Command) (monitor.ServiceConfig, error) {
	cfg := monitor.DefaultServiceConfig()
	flags := cmd.Flags()

	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if cfg, err = loadFileConfig(path, cfg); err != nil {
			return monitor.ServiceConfig{}, err
		}
	}

	cfg, err := applyEnv(cfg)
	if err != nil {
		return monitor.ServiceConfig{}, err
	}

	if flags.Changed("host") {
		cfg.Session.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Session.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("transport") {
		v, _ := flags.GetString("transport")
		cfg.Session.Transport = session.Transport(strings.ToLower(strings.TrimSpace(v)))
	}
	if flags.Changed("reconnect") {
		cfg.Session.Reconnect, _ = flags.GetBool("reconnect")
	}
	if flags.Changed("tui") {
		cfg.Display.TUI, _ = flags.GetBool("tui")
	}
	if flags.Changed("interval") {
		cfg.Display.Interval, _ = flags.GetDuration("interval")
	}
	if flags.Changed("mqtt-broker") {
		cfg.Publish.Broker, _ = flags.GetString("mqtt-broker")
	}
	if flags.Changed("admin-addr") {
		cfg.Admin.Addr, _ = flags.GetString("admin-addr")
	}
	return cfg, cfg.Validate()
}

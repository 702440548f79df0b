package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/danmuck/xelactl/internal/monitor"
	"github.com/danmuck/xelactl/internal/protocol/session"
)

type backoffFileConfig struct {
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
	Jitter       bool    `toml:"jitter"`
}

type displayFileConfig struct {
	Interval string `toml:"interval"`
	TUI      bool   `toml:"tui"`
}

type mqttFileConfig struct {
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	Interval    string `toml:"interval"`
	QoS         int    `toml:"qos"`
	Retained    bool   `toml:"retained"`
}

type fileConfig struct {
	Host        string            `toml:"host"`
	Port        int               `toml:"port"`
	Path        string            `toml:"path"`
	Transport   string            `toml:"transport"`
	Reconnect   bool              `toml:"reconnect"`
	AdminAddr   string            `toml:"admin_addr"`
	CorsOrigins []string          `toml:"cors_origins"`
	Backoff     backoffFileConfig `toml:"backoff"`
	Display     displayFileConfig `toml:"display"`
	MQTT        mqttFileConfig    `toml:"mqtt"`
}

// envConfig carries XELACTL_* overrides. Unset variables leave the
// prefilled value alone.
type envConfig struct {
	Host       string `env:"XELACTL_HOST"`
	Port       int    `env:"XELACTL_PORT"`
	Transport  string `env:"XELACTL_TRANSPORT"`
	Reconnect  bool   `env:"XELACTL_RECONNECT"`
	TUI        bool   `env:"XELACTL_TUI"`
	MQTTBroker string `env:"XELACTL_MQTT_BROKER"`
	AdminAddr  string `env:"XELACTL_ADMIN_ADDR"`
}

func loadFileConfig(path string, cfg monitor.ServiceConfig) (monitor.ServiceConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return monitor.ServiceConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("host") {
		cfg.Session.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Session.Port = raw.Port
	}
	if meta.IsDefined("path") {
		cfg.Session.Path = strings.TrimSpace(raw.Path)
	}
	if meta.IsDefined("transport") {
		cfg.Session.Transport = session.Transport(strings.ToLower(strings.TrimSpace(raw.Transport)))
	}
	if meta.IsDefined("reconnect") {
		cfg.Session.Reconnect = raw.Reconnect
	}

	if meta.IsDefined("backoff", "initial_delay") {
		if cfg.Session.Backoff.InitialDelay, err = parseDuration("backoff.initial_delay", raw.Backoff.InitialDelay); err != nil {
			return monitor.ServiceConfig{}, err
		}
	}
	if meta.IsDefined("backoff", "multiplier") {
		cfg.Session.Backoff.Multiplier = raw.Backoff.Multiplier
	}
	if meta.IsDefined("backoff", "max_delay") {
		if cfg.Session.Backoff.MaxDelay, err = parseDuration("backoff.max_delay", raw.Backoff.MaxDelay); err != nil {
			return monitor.ServiceConfig{}, err
		}
	}
	if meta.IsDefined("backoff", "jitter") {
		cfg.Session.Backoff.Jitter = raw.Backoff.Jitter
	}

	if meta.IsDefined("display", "interval") {
		if cfg.Display.Interval, err = parseDuration("display.interval", raw.Display.Interval); err != nil {
			return monitor.ServiceConfig{}, err
		}
	}
	if meta.IsDefined("display", "tui") {
		cfg.Display.TUI = raw.Display.TUI
	}

	if meta.IsDefined("mqtt", "broker") {
		cfg.Publish.Broker = strings.TrimSpace(raw.MQTT.Broker)
	}
	if meta.IsDefined("mqtt", "client_id") {
		cfg.Publish.ClientID = strings.TrimSpace(raw.MQTT.ClientID)
	}
	if meta.IsDefined("mqtt", "topic_prefix") {
		cfg.Publish.TopicPrefix = strings.TrimSpace(raw.MQTT.TopicPrefix)
	}
	if meta.IsDefined("mqtt", "interval") {
		if cfg.Publish.Interval, err = parseDuration("mqtt.interval", raw.MQTT.Interval); err != nil {
			return monitor.ServiceConfig{}, err
		}
	}
	if meta.IsDefined("mqtt", "qos") {
		if raw.MQTT.QoS < 0 || raw.MQTT.QoS > 2 {
			return monitor.ServiceConfig{}, fmt.Errorf("parse mqtt.qos: %d out of range", raw.MQTT.QoS)
		}
		cfg.Publish.QoS = byte(raw.MQTT.QoS)
	}
	if meta.IsDefined("mqtt", "retained") {
		cfg.Publish.Retained = raw.MQTT.Retained
	}

	if meta.IsDefined("admin_addr") {
		cfg.Admin.Addr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.Admin.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	return cfg, nil
}

func applyEnv(cfg monitor.ServiceConfig) (monitor.ServiceConfig, error) {
	ec := envConfig{
		Host:       cfg.Session.Host,
		Port:       cfg.Session.Port,
		Transport:  string(cfg.Session.Transport),
		Reconnect:  cfg.Session.Reconnect,
		TUI:        cfg.Display.TUI,
		MQTTBroker: cfg.Publish.Broker,
		AdminAddr:  cfg.Admin.Addr,
	}
	if err := env.Parse(&ec); err != nil {
		return monitor.ServiceConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Session.Host = strings.TrimSpace(ec.Host)
	cfg.Session.Port = ec.Port
	cfg.Session.Transport = session.Transport(strings.ToLower(strings.TrimSpace(ec.Transport)))
	cfg.Session.Reconnect = ec.Reconnect
	cfg.Display.TUI = ec.TUI
	cfg.Publish.Broker = strings.TrimSpace(ec.MQTTBroker)
	cfg.Admin.Addr = strings.TrimSpace(ec.AdminAddr)
	return cfg, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

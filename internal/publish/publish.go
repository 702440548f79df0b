// Package publish mirrors the sensor table onto an MQTT bus, one topic per
// sensor, for downstream robotics consumers. It only reads snapshots.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/xelactl/internal/hub"
	"github.com/danmuck/xelactl/internal/observability"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrBrokerRequired = errors.New("publish: broker required")
	ErrClientRequired = errors.New("publish: client required")
)

// Config describes the bus connection and publication cadence.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Interval    time.Duration
	QoS         byte
	Retained    bool
}

// DefaultConfig publishes every sensor at 20 Hz on xela/sensor_<id>.
func DefaultConfig() Config {
	return Config{
		TopicPrefix: "xela/sensor_",
		Interval:    50 * time.Millisecond,
		QoS:         0,
	}
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Broker) != ""
}

func (c Config) Topic(sensorID string) string {
	return c.TopicPrefix + sensorID
}

// Client is the slice of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Source hands out table snapshots.
type Source interface {
	Snapshot() hub.Snapshot
}

// Connect opens an auto-reconnecting MQTT client to cfg.Broker. It gives up
// when ctx is done even if the broker never answers CONNECT.
func Connect(ctx context.Context, cfg Config) (mqtt.Client, error) {
	if !cfg.Enabled() {
		return nil, ErrBrokerRequired
	}
	id := strings.TrimSpace(cfg.ClientID)
	if id == "" {
		id = "xelactl-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(id)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(5 * time.Second)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	select {
	case <-ctx.Done():
		go c.Disconnect(0)
		return nil, ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("publish: connect %s: %w", cfg.Broker, err)
	}
	log.Debug().Str("broker", cfg.Broker).Str("client_id", id).Msg("mqtt connected")
	return c, nil
}

type Publisher struct {
	cfg    Config
	client Client
	src    Source
}

func NewPublisher(cfg Config, client Client, src Source) (*Publisher, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultConfig().TopicPrefix
	}
	return &Publisher{cfg: cfg, client: client, src: src}, nil
}

// Run publishes the current snapshot on every tick until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.PublishSnapshot(p.src.Snapshot()); err != nil {
				log.Debug().Err(err).Msg("publish snapshot")
			}
		}
	}
}

// PublishSnapshot sends each sensor's flattened grid as a JSON array.
// Every sensor is attempted; the first error is returned.
func (p *Publisher) PublishSnapshot(snap hub.Snapshot) error {
	var first error
	for _, id := range snap.IDs {
		payload, err := json.Marshal(snap.Grids[id].Flatten())
		if err == nil {
			token := p.client.Publish(p.cfg.Topic(id), p.cfg.QoS, p.cfg.Retained, payload)
			token.Wait()
			err = token.Error()
		}
		observability.RecordPublish(err == nil)
		if err != nil && first == nil {
			first = fmt.Errorf("publish: sensor %s: %w", id, err)
		}
	}
	return first
}

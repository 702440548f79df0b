package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/xelactl/internal/grid"
	"github.com/danmuck/xelactl/internal/hub"
	"github.com/danmuck/xelactl/internal/testutil/testlog"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu      sync.Mutex
	msgs    []published
	failFor string
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{topic: topic, payload: payload.([]byte)})
	if topic == f.failFor {
		return doneToken{err: errors.New("broker unavailable")}
	}
	return doneToken{}
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func seqGrid(offset float64) grid.Grid {
	vals := make([]float64, grid.Size)
	for i := range vals {
		vals[i] = offset + float64(i)
	}
	g, _ := grid.FromFlat(vals)
	return g
}

func TestConfigDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	if cfg.Enabled() {
		t.Fatalf("expected publisher disabled without broker")
	}
	if cfg.Topic("3") != "xela/sensor_3" {
		t.Fatalf("unexpected topic: %q", cfg.Topic("3"))
	}
	if cfg.Interval != 50*time.Millisecond {
		t.Fatalf("unexpected interval: %v", cfg.Interval)
	}
	if _, err := Connect(context.Background(), cfg); !errors.Is(err, ErrBrokerRequired) {
		t.Fatalf("expected ErrBrokerRequired, got %v", err)
	}
	if _, err := NewPublisher(cfg, nil, hub.NewTable()); !errors.Is(err, ErrClientRequired) {
		t.Fatalf("expected ErrClientRequired, got %v", err)
	}
}

func TestPublishSnapshotPerSensorTopic(t *testing.T) {
	testlog.Start(t)
	table := hub.NewTable()
	table.Replace("2", seqGrid(100))
	table.Replace("1", seqGrid(0))

	client := &fakeClient{}
	p, err := NewPublisher(DefaultConfig(), client, table)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if err := p.PublishSnapshot(table.Snapshot()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(client.msgs) != 2 {
		t.Fatalf("unexpected publish count: %d", len(client.msgs))
	}
	if client.msgs[0].topic != "xela/sensor_1" || client.msgs[1].topic != "xela/sensor_2" {
		t.Fatalf("unexpected topics: %q %q", client.msgs[0].topic, client.msgs[1].topic)
	}
	var data []float64
	if err := json.Unmarshal(client.msgs[1].payload, &data); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(data) != grid.Size || data[0] != 100 || data[71] != 171 {
		t.Fatalf("unexpected payload: len=%d first=%v last=%v", len(data), data[0], data[len(data)-1])
	}
}

func TestPublishSnapshotContinuesAfterFailure(t *testing.T) {
	testlog.Start(t)
	table := hub.NewTable()
	table.Replace("1", seqGrid(0))
	table.Replace("2", seqGrid(1))

	client := &fakeClient{failFor: "xela/sensor_1"}
	p, _ := NewPublisher(DefaultConfig(), client, table)
	if err := p.PublishSnapshot(table.Snapshot()); err == nil {
		t.Fatalf("expected error from failing topic")
	}
	if len(client.msgs) != 2 {
		t.Fatalf("expected both sensors attempted, got %d", len(client.msgs))
	}
}

func TestRunPublishesUntilCancel(t *testing.T) {
	testlog.Start(t)
	table := hub.NewTable()
	table.Replace("5", seqGrid(5))
	client := &fakeClient{}
	cfg := DefaultConfig()
	cfg.Interval = 2 * time.Millisecond
	p, _ := NewPublisher(cfg, client, table)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for client.count() < 3 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("publisher stalled at %d messages", client.count())
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestConnectGivesUpWhenBrokerIsSilent(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	cfg := DefaultConfig()
	cfg.Broker = "tcp://" + ln.Addr().String()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := Connect(ctx, cfg); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("connect ignored ctx for %v", elapsed)
	}
}

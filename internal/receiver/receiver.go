// Package receiver owns the hub connection and keeps the sensor table
// current. It is the table's only writer.
//
// The receive loop is launched once and never joined; when the connection
// ends the table simply stops changing. Health exposes that state for
// anyone who wants to look.
package receiver

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/xelactl/internal/hub"
	"github.com/danmuck/xelactl/internal/observability"
	"github.com/danmuck/xelactl/internal/protocol/frame"
	"github.com/danmuck/xelactl/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

var ErrTableRequired = errors.New("receiver: sensor table required")

// State is the connection lifecycle as seen from outside the loop.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Health is a point-in-time view of the receive loop.
type Health struct {
	State     State  `json:"state"`
	Accepted  uint64 `json:"accepted"`
	Discarded uint64 `json:"discarded"`
	LastError string `json:"last_error,omitempty"`
}

type Receiver struct {
	cfg   session.Config
	table *hub.Table
	rng   *rand.Rand

	state     atomic.Value
	accepted  atomic.Uint64
	discarded atomic.Uint64

	errMu   sync.Mutex
	lastErr error
}

func New(cfg session.Config, table *hub.Table) (*Receiver, error) {
	if table == nil {
		return nil, ErrTableRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Receiver{
		cfg:   cfg,
		table: table,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	r.state.Store(StateIdle)
	return r, nil
}

// Run dials the hub and applies messages until the connection ends.
// With Reconnect set it redials with backoff until ctx is done.
func (r *Receiver) Run(ctx context.Context) error {
	attempt := 0
	for {
		r.setState(StateConnecting)
		conn, err := session.Dial(ctx, r.cfg)
		if err == nil {
			attempt = 0
			r.setState(StateConnected)
			log.Debug().Str("transport", string(r.cfg.Transport)).Str("addr", r.cfg.Address()).Msg("receiver connected")
			err = r.consume(ctx, conn)
		}
		r.setState(StateDisconnected)
		r.setErr(err)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !r.cfg.Reconnect {
			return err
		}
		attempt++
		log.Debug().Err(err).Int("attempt", attempt).Str("addr", r.cfg.Address()).Msg("receiver redialing")
		if err := session.SleepBackoff(ctx, r.cfg.Backoff, attempt, r.rng); err != nil {
			return err
		}
	}
}

func (r *Receiver) consume(ctx context.Context, conn session.Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		r.Handle(msg)
	}
}

// Handle decodes one message and applies it whole, or drops it silently.
func (r *Receiver) Handle(msg []byte) frame.Outcome {
	f, err := frame.Decode(msg)
	outcome := frame.Classify(err)
	observability.RecordFrame(string(outcome))
	if err != nil {
		r.discarded.Add(1)
		return outcome
	}
	f.Apply(r.table)
	r.accepted.Add(1)
	observability.SetSensors(r.table.Len())
	return outcome
}

func (r *Receiver) Health() Health {
	h := Health{
		State:     r.state.Load().(State),
		Accepted:  r.accepted.Load(),
		Discarded: r.discarded.Load(),
	}
	r.errMu.Lock()
	if r.lastErr != nil {
		h.LastError = r.lastErr.Error()
	}
	r.errMu.Unlock()
	return h
}

func (r *Receiver) setState(s State) {
	r.state.Store(s)
	observability.SetReceiverConnected(s == StateConnected)
}

func (r *Receiver) setErr(err error) {
	r.errMu.Lock()
	r.lastErr = err
	r.errMu.Unlock()
}

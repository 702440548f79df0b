package monitor

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/xelactl/internal/display"
	"github.com/danmuck/xelactl/internal/hub"
	"github.com/danmuck/xelactl/internal/protocol/session"
	"github.com/danmuck/xelactl/internal/publish"
	"github.com/danmuck/xelactl/internal/receiver"
	"github.com/danmuck/xelactl/internal/server"
	"github.com/rs/zerolog/log"
)

var ErrInvalidInterval = errors.New("monitor: invalid display interval")

// DisplayConfig controls the terminal view.
type DisplayConfig struct {
	Interval time.Duration
	TUI      bool
}

// AdminConfig enables the read-only HTTP surface when Addr is set.
type AdminConfig struct {
	Addr        string
	CorsOrigins []string
}

// ServiceConfig is the full runtime configuration.
type ServiceConfig struct {
	Session session.Config
	Display DisplayConfig
	Publish publish.Config
	Admin   AdminConfig
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Session: session.DefaultConfig(),
		Display: DisplayConfig{Interval: display.DefaultInterval},
		Publish: publish.DefaultConfig(),
	}
}

func (c ServiceConfig) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if c.Display.Interval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}

// Service owns the table and every component that touches it.
type Service struct {
	cfg   ServiceConfig
	table *hub.Table
	recv  *receiver.Receiver
	out   io.Writer
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table := hub.NewTable()
	recv, err := receiver.New(cfg.Session, table)
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, table: table, recv: recv, out: os.Stdout}, nil
}

func (s *Service) Table() *hub.Table {
	return s.table
}

func (s *Service) Receiver() *receiver.Receiver {
	return s.recv
}

// Run blocks until SIGINT/SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve starts the receiver detached, the optional side components bound to
// ctx, and then runs the display until ctx is done.
func (s *Service) Serve(ctx context.Context) error {
	go func() {
		err := s.recv.Run(context.Background())
		log.Debug().Err(err).Str("addr", s.cfg.Session.Address()).Msg("receiver stopped")
	}()

	if s.cfg.Publish.Enabled() {
		go s.runPublisher(ctx)
	}
	if strings.TrimSpace(s.cfg.Admin.Addr) != "" {
		admin := server.New(s.cfg.Admin.Addr, s.cfg.Admin.CorsOrigins, s.table, s.recv)
		go func() {
			if err := admin.Run(ctx); err != nil {
				log.Error().Err(err).Msg("admin server stopped")
			}
		}()
	}

	if s.cfg.Display.TUI {
		return display.RunTUI(ctx, s.table, s.cfg.Display.Interval)
	}
	return display.NewLoop(s.table, s.out, s.cfg.Display.Interval).Run(ctx)
}

// runPublisher connects off the display path; a silent broker only delays
// publication, never the first frame.
func (s *Service) runPublisher(ctx context.Context) {
	client, err := publish.Connect(ctx, s.cfg.Publish)
	if err != nil {
		if ctx.Err() == nil {
			log.Debug().Err(err).Msg("publisher disabled")
		}
		return
	}
	defer client.Disconnect(250)
	p, err := publish.NewPublisher(s.cfg.Publish, client, s.table)
	if err != nil {
		log.Debug().Err(err).Msg("publisher disabled")
		return
	}
	_ = p.Run(ctx)
}

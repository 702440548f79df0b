package display

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

// model drives the same frame text through a Bubble Tea program.
type model struct {
	src      Source
	interval time.Duration
	view     string
}

func newModel(src Source, interval time.Duration) model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return model{src: src, interval: interval, view: Frame(src.Snapshot())}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.view = Frame(m.src.Snapshot())
		return m, m.tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	return m.view
}

// RunTUI runs the full-screen variant until the user quits or ctx ends.
func RunTUI(ctx context.Context, src Source, interval time.Duration, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(newModel(src, interval), opts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/atsexpert/internal/model"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ErrCancelled is returned by RunLoader when the user pressed ctrl+c.
var ErrCancelled = errors.New("cancelled")

// AnalyzeFunc runs one analysis.
type AnalyzeFunc func(ctx context.Context) (*model.AnalysisResponse, error)

type loadDoneMsg struct {
	resp *model.AnalysisResponse
	err  error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	label  string
	ctx    context.Context
	cancel context.CancelFunc
	fn     AnalyzeFunc
	frame  int
	start  time.Time
	now    func() time.Time
	result *model.AnalysisResponse
	err    error
	done   bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doAnalyze(), m.tick())
}

func (m loaderModel) doAnalyze() tea.Cmd {
	ctx, fn := m.ctx, m.fn
	return func() tea.Msg {
		resp, err := fn(ctx)
		return loadDoneMsg{resp: resp, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		m.result = msg.resp
		if m.err == nil {
			m.err = msg.err
		}
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			m.err = ErrCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	elapsed := m.now().Sub(m.start).Truncate(time.Second)
	return fmt.Sprintf("%s %s... %s\n", spinner, m.label, elapsed)
}

// RunLoader shows a spinner while fn runs. It renders inline (no alt screen).
func RunLoader(label string, fn AnalyzeFunc) (*model.AnalysisResponse, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := loaderModel{
		label:  label,
		ctx:    ctx,
		cancel: cancel,
		fn:     fn,
		start:  time.Now(),
		now:    time.Now,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}

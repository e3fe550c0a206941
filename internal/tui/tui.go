package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/atsexpert/internal/model"
)

// Lines taken by everything except the result pane.
const formChromeHeight = 20

const jdHeight = 5

// MsgNoResume is shown when Analyze is pressed without a file.
const MsgNoResume = "Please upload a PDF resume first."

type formState int

const (
	stateIdle formState = iota
	stateProcessing
)

type focusField int

const (
	focusPath focusField = iota
	focusJD
	focusMode
	focusButton
	focusCount
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	activeLabelStyle = labelStyle.
				Foreground(lipgloss.Color("39"))

	modeStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252"))

	selectedModeStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238"))

	activeButtonStyle = buttonStyle.
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("33"))

	resultBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	resultTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))
)

// analysisDoneMsg is sent when an async analysis completes.
type analysisDoneMsg struct {
	file string
	resp *model.AnalysisResponse
	err  error
}

// Options pre-fills the form.
type Options struct {
	ResumePath     string
	JobDescription string
	Mode           model.Mode
}

type formModel struct {
	analyzer model.Analyzer
	readFile func(string) ([]byte, error)

	path    textinput.Model
	jd      textarea.Model
	modes   []model.Mode
	modeIdx int
	focus   focusField

	state   formState
	running string // file name being analyzed
	spinner spinner.Model
	result  viewport.Model
	hasText bool
	errMsg  string

	width  int
	height int
	ready  bool
}

func newFormModel(analyzer model.Analyzer, opts Options) formModel {
	path := textinput.New()
	path.Placeholder = "path/to/resume.pdf"
	path.Prompt = "› "
	path.SetValue(opts.ResumePath)
	path.Focus()

	jd := textarea.New()
	jd.Placeholder = "Paste the job description here (optional)"
	jd.ShowLineNumbers = false
	jd.SetHeight(jdHeight)
	jd.SetValue(opts.JobDescription)
	jd.Blur()

	m := formModel{
		analyzer: analyzer,
		readFile: os.ReadFile,
		path:     path,
		jd:       jd,
		modes:    model.AllModes,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("33")))),
	}
	for i, mode := range m.modes {
		if mode == opts.Mode {
			m.modeIdx = i
		}
	}
	return m
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case analysisDoneMsg:
		m.state = stateIdle
		m.running = ""
		if msg.err != nil {
			m.errMsg = model.UserMessage(msg.err)
			m.hasText = false
			m.result.SetContent("")
			return m, nil
		}
		m.errMsg = ""
		m.hasText = true
		m.result.SetContent(renderResult(msg.file, msg.resp, m.result.Width))
		m.result.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if m.state != stateProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m.updateFocused(msg)
}

func (m formModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		return m.setFocus((m.focus + 1) % focusCount)
	case "shift+tab":
		return m.setFocus((m.focus + focusCount - 1) % focusCount)
	case "ctrl+r":
		return m.startAnalysis()
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		return m, cmd
	}

	switch m.focus {
	case focusPath:
		if msg.String() == "enter" {
			return m.startAnalysis()
		}
	case focusMode:
		switch msg.String() {
		case "left", "h", "up", "k":
			m.modeIdx = (m.modeIdx + len(m.modes) - 1) % len(m.modes)
			return m, nil
		case "right", "l", "down", "j":
			m.modeIdx = (m.modeIdx + 1) % len(m.modes)
			return m, nil
		case "1", "2", "3", "4":
			if i := int(msg.String()[0] - '1'); i < len(m.modes) {
				m.modeIdx = i
			}
			return m, nil
		case "enter", " ":
			return m.startAnalysis()
		}
		return m, nil
	case focusButton:
		if msg.String() == "enter" || msg.String() == " " {
			return m.startAnalysis()
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// updateFocused forwards msg to whichever text input has focus.
func (m formModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusPath:
		m.path, cmd = m.path.Update(msg)
	case focusJD:
		m.jd, cmd = m.jd.Update(msg)
	}
	return m, cmd
}

func (m formModel) setFocus(f focusField) (tea.Model, tea.Cmd) {
	m.focus = f
	m.path.Blur()
	m.jd.Blur()
	switch f {
	case focusPath:
		return m, m.path.Focus()
	case focusJD:
		return m, m.jd.Focus()
	}
	return m, nil
}

// startAnalysis kicks off one analysis. Presses while one is running are ignored.
func (m formModel) startAnalysis() (tea.Model, tea.Cmd) {
	if m.state == stateProcessing {
		return m, nil
	}
	path := strings.TrimSpace(m.path.Value())
	if path == "" {
		m.errMsg = MsgNoResume
		return m, nil
	}

	m.state = stateProcessing
	m.running = filepath.Base(path)
	m.errMsg = ""
	return m, tea.Batch(m.spinner.Tick, m.analyzeCmd(path, m.jd.Value(), m.modes[m.modeIdx]))
}

func (m formModel) analyzeCmd(path, jobDescription string, mode model.Mode) tea.Cmd {
	analyzer, readFile := m.analyzer, m.readFile
	return func() tea.Msg {
		name := filepath.Base(path)
		data, err := readFile(path)
		if err != nil {
			return analysisDoneMsg{file: name, err: &model.ConversionError{Reason: "could not read " + name, Err: err}}
		}
		resp, err := analyzer.Run(context.Background(), model.Document{Name: name, Data: data}, mode, jobDescription)
		return analysisDoneMsg{file: name, resp: resp, err: err}
	}
}

func (m *formModel) recalcLayout() {
	inputWidth := max(m.width-4, 20)
	m.path.Width = inputWidth - 2
	m.jd.SetWidth(inputWidth)

	// Border top/bottom (2) plus the form above it.
	resultHeight := max(m.height-formChromeHeight, 3)
	if !m.ready {
		m.result = viewport.New(inputWidth, resultHeight)
		m.ready = true
	} else {
		m.result.Width = inputWidth
		m.result.Height = resultHeight
	}
}

func (m formModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ATS Resume Expert"))
	b.WriteString("\n\n")

	b.WriteString(m.label("Resume PDF", focusPath) + "\n")
	b.WriteString(" " + m.path.View() + "\n\n")

	b.WriteString(m.label("Job Description", focusJD) + "\n")
	b.WriteString(" " + strings.ReplaceAll(m.jd.View(), "\n", "\n ") + "\n\n")

	b.WriteString(m.label("Analysis", focusMode) + "\n")
	b.WriteString(" " + m.modeRow() + "\n\n")

	button := buttonStyle.Render("Analyze")
	if m.focus == focusButton {
		button = activeButtonStyle.Render("Analyze")
	}
	b.WriteString(" " + button + "\n")

	switch {
	case m.state == stateProcessing:
		b.WriteString(fmt.Sprintf(" %s Analyzing %s (%s)...\n", m.spinner.View(), m.running, m.modes[m.modeIdx].Title()))
	case m.errMsg != "":
		b.WriteString(errorStyle.Render("⚠ "+m.errMsg) + "\n")
	default:
		b.WriteString("\n")
	}

	pane := m.result.View()
	if !m.hasText {
		pane = hintStyle.Render("Results appear here.")
	}
	b.WriteString(resultBorderStyle.Width(m.result.Width).Render(pane) + "\n")

	status := " tab/shift+tab move  ←/→ mode  enter/ctrl+r analyze  pgup/pgdn scroll  esc quit"
	b.WriteString(statusBarStyle.Width(m.width).Render(status))
	return b.String()
}

func (m formModel) label(text string, f focusField) string {
	if m.focus == f {
		return activeLabelStyle.Render(text)
	}
	return labelStyle.Render(text)
}

func (m formModel) modeRow() string {
	parts := make([]string, 0, len(m.modes))
	for i, mode := range m.modes {
		if i == m.modeIdx {
			parts = append(parts, selectedModeStyle.Render(mode.Title()))
		} else {
			parts = append(parts, modeStyle.Render(mode.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderResult formats a response for the result pane, wrapped to width.
func renderResult(file string, resp *model.AnalysisResponse, width int) string {
	var b strings.Builder
	b.WriteString(resultTitleStyle.Render("Results for: " + resp.Mode.Title()))
	b.WriteByte('\n')

	meta := fmt.Sprintf("%s · %d page(s) · %s/%s · %s", file, resp.Pages, resp.Provider, resp.Model, resp.Elapsed.Round(100*time.Millisecond))
	b.WriteString(metaStyle.Render(meta))
	b.WriteByte('\n')

	for _, w := range resp.Warnings {
		b.WriteString(warningStyle.Render("! " + w))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(lipgloss.NewStyle().Width(max(width, 20)).Render(resp.Text))
	return b.String()
}

// Run launches the interactive analysis form in the alternate screen.
func Run(analyzer model.Analyzer, opts Options) error {
	p := tea.NewProgram(newFormModel(analyzer, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/atsexpert/internal/model"
)

type fakeAnalyzer struct {
	resp    *model.AnalysisResponse
	err     error
	calls   int
	gotDoc  model.Document
	gotMode model.Mode
	gotJD   string
}

func (f *fakeAnalyzer) Run(_ context.Context, doc model.Document, mode model.Mode, jd string) (*model.AnalysisResponse, error) {
	f.calls++
	f.gotDoc = doc
	f.gotMode = mode
	f.gotJD = jd
	return f.resp, f.err
}

func newTestForm(a model.Analyzer, opts Options) formModel {
	m := newFormModel(a, opts)
	m.readFile = func(path string) ([]byte, error) {
		if strings.HasSuffix(path, "missing.pdf") {
			return nil, os.ErrNotExist
		}
		return []byte("%PDF-1.4 fake"), nil
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(formModel)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m formModel, keys ...string) (formModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(formModel)
	}
	return m, cmd
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func doneMsg(t *testing.T, cmd tea.Cmd) analysisDoneMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if done, ok := msg.(analysisDoneMsg); ok {
			return done
		}
	}
	t.Fatal("command produced no analysisDoneMsg")
	return analysisDoneMsg{}
}

func TestForm_AnalyzeWithoutResumeShowsMessage(t *testing.T) {
	a := &fakeAnalyzer{}
	m := newTestForm(a, Options{})

	m, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Error("expected no command without a resume")
	}
	if m.state != stateIdle {
		t.Errorf("state = %v, want idle", m.state)
	}
	if m.errMsg != MsgNoResume {
		t.Errorf("errMsg = %q", m.errMsg)
	}
	if a.calls != 0 {
		t.Errorf("analyzer called %d times", a.calls)
	}
}

func TestForm_SuccessfulAnalysis(t *testing.T) {
	a := &fakeAnalyzer{resp: &model.AnalysisResponse{
		Mode: model.ModeScore, Text: "Match Percentage: 81%", Provider: "gemini", Model: "gemini-2.5-pro", Pages: 1,
	}}
	m := newTestForm(a, Options{ResumePath: "/tmp/cv.pdf", JobDescription: "Go engineer", Mode: model.ModeScore})

	m, cmd := press(t, m, "enter")
	if m.state != stateProcessing {
		t.Fatalf("state = %v, want processing", m.state)
	}

	done := doneMsg(t, cmd)
	next, _ := m.Update(done)
	m = next.(formModel)

	if m.state != stateIdle {
		t.Errorf("state = %v, want idle", m.state)
	}
	if a.calls != 1 || a.gotMode != model.ModeScore || a.gotJD != "Go engineer" {
		t.Errorf("analyzer got calls=%d mode=%s jd=%q", a.calls, a.gotMode, a.gotJD)
	}
	if a.gotDoc.Name != "cv.pdf" {
		t.Errorf("doc name = %q, want cv.pdf", a.gotDoc.Name)
	}
	view := m.View()
	if !strings.Contains(view, "Results for: Percentage Match") {
		t.Errorf("view missing results heading:\n%s", view)
	}
	if !strings.Contains(view, "Match Percentage: 81%") {
		t.Errorf("view missing response text:\n%s", view)
	}
}

func TestForm_ErrorShowsUserMessage(t *testing.T) {
	a := &fakeAnalyzer{err: &model.AuthenticationError{Provider: "gemini", Err: errors.New("401")}}
	m := newTestForm(a, Options{ResumePath: "cv.pdf"})

	m, cmd := press(t, m, "ctrl+r")
	next, _ := m.Update(doneMsg(t, cmd))
	m = next.(formModel)

	if m.state != stateIdle {
		t.Errorf("state = %v, want idle", m.state)
	}
	want := model.UserMessage(a.err)
	if m.errMsg != want {
		t.Errorf("errMsg = %q, want %q", m.errMsg, want)
	}
	if m.hasText {
		t.Error("result pane should be empty after an error")
	}
}

func TestForm_UnreadableFileIsConversionError(t *testing.T) {
	a := &fakeAnalyzer{}
	m := newTestForm(a, Options{ResumePath: "missing.pdf"})

	_, cmd := press(t, m, "enter")
	done := doneMsg(t, cmd)
	var convErr *model.ConversionError
	if !errors.As(done.err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", done.err)
	}
	if a.calls != 0 {
		t.Errorf("analyzer called %d times, want 0", a.calls)
	}
}

func TestForm_PressWhileProcessingIsIgnored(t *testing.T) {
	a := &fakeAnalyzer{resp: &model.AnalysisResponse{Mode: model.ModeFit, Text: "ok"}}
	m := newTestForm(a, Options{ResumePath: "cv.pdf"})

	m, first := press(t, m, "enter")
	if first == nil {
		t.Fatal("expected a command for the first press")
	}
	m, second := press(t, m, "ctrl+r")
	if second != nil {
		t.Error("second press while processing should not start another analysis")
	}
	if m.state != stateProcessing {
		t.Errorf("state = %v, want processing", m.state)
	}
}

func TestForm_ModeSelection(t *testing.T) {
	m := newTestForm(&fakeAnalyzer{}, Options{})
	if m.modes[m.modeIdx] != model.AllModes[0] {
		t.Fatalf("default mode = %s", m.modes[m.modeIdx])
	}

	m, _ = press(t, m, "tab", "tab")
	if m.focus != focusMode {
		t.Fatalf("focus = %v, want mode selector", m.focus)
	}
	m, _ = press(t, m, "right")
	if m.modes[m.modeIdx] != model.AllModes[1] {
		t.Errorf("after right: %s", m.modes[m.modeIdx])
	}
	m, _ = press(t, m, "left", "left")
	if m.modes[m.modeIdx] != model.AllModes[len(model.AllModes)-1] {
		t.Errorf("left should wrap to the last mode, got %s", m.modes[m.modeIdx])
	}
	m, _ = press(t, m, "3")
	if m.modes[m.modeIdx] != model.AllModes[2] {
		t.Errorf("after 3: %s", m.modes[m.modeIdx])
	}
}

func TestForm_OptionsPreselectMode(t *testing.T) {
	m := newTestForm(&fakeAnalyzer{}, Options{Mode: model.ModeRedFlags})
	if m.modes[m.modeIdx] != model.ModeRedFlags {
		t.Errorf("mode = %s, want redflags", m.modes[m.modeIdx])
	}
}

func TestForm_FocusCycles(t *testing.T) {
	m := newTestForm(&fakeAnalyzer{}, Options{})
	m, _ = press(t, m, "tab", "tab", "tab", "tab")
	if m.focus != focusPath {
		t.Errorf("focus = %v after full cycle, want path", m.focus)
	}
	m, _ = press(t, m, "shift+tab")
	if m.focus != focusButton {
		t.Errorf("focus = %v after shift+tab, want button", m.focus)
	}
}

func TestForm_EscQuits(t *testing.T) {
	m := newTestForm(&fakeAnalyzer{}, Options{})
	_, cmd := press(t, m, "esc")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should quit")
	}
}

func TestPicker_SelectsMode(t *testing.T) {
	m := pickerModel{modes: model.AllModes, chosen: -1}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := next.(pickerModel).selected(); got != model.AllModes[1] {
		t.Errorf("selected = %s, want %s", got, model.AllModes[1])
	}
}

func TestPicker_QuitSelectsNothing(t *testing.T) {
	m := pickerModel{modes: model.AllModes, chosen: -1}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if got := next.(pickerModel).selected(); got != "" {
		t.Errorf("selected = %s, want none", got)
	}
}

func TestLoader_DoneAndCancel(t *testing.T) {
	resp := &model.AnalysisResponse{Text: "ok"}
	m := loaderModel{fn: func(context.Context) (*model.AnalysisResponse, error) { return resp, nil }}

	next, _ := m.Update(m.doAnalyze()())
	final := next.(loaderModel)
	if !final.done || final.result != resp || final.err != nil {
		t.Errorf("unexpected loader state: %+v", final)
	}

	cancelled := false
	m = loaderModel{cancel: func() { cancelled = true }}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	final = next.(loaderModel)
	if !cancelled || !errors.Is(final.err, ErrCancelled) {
		t.Errorf("ctrl+c: cancelled=%v err=%v", cancelled, final.err)
	}
}

func TestForm_ViewFitsWindow(t *testing.T) {
	a := &fakeAnalyzer{resp: &model.AnalysisResponse{
		Mode: model.ModeFit, Text: strings.Repeat("line\n", 80), Provider: "gemini", Model: "gemini-2.5-pro", Pages: 1,
	}}
	m := newTestForm(a, Options{ResumePath: "/tmp/cv.pdf", Mode: model.ModeFit})

	m, cmd := press(t, m, "enter")
	next, _ := m.Update(doneMsg(t, cmd))
	m = next.(formModel)

	view := m.View()
	if got := lipgloss.Height(view); got != 40 {
		t.Errorf("view height = %d, want 40 (window height)", got)
	}
	if !strings.HasPrefix(strings.TrimSpace(view), "ATS Resume Expert") {
		t.Errorf("title should be the first line:\n%s", view)
	}
}

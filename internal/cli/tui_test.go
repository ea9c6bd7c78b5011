package cli

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/cardforge/pkg/pipeline"
)

func TestGenerateModelProgress(t *testing.T) {
	m := NewGenerateModel(func() {})

	next, _ := m.Update(progressMsg(50))
	m = next.(GenerateModel)
	if m.Percent != 50 {
		t.Errorf("Percent = %v, want 50", m.Percent)
	}
	if view := m.View(); !strings.Contains(view, " 50%") {
		t.Errorf("View() missing percentage:\n%s", view)
	}
}

func TestGenerateModelKeepsRecentLines(t *testing.T) {
	m := NewGenerateModel(func() {})
	for i := range visibleLogs + 3 {
		next, _ := m.Update(logMsg(fmt.Sprintf("saved %d.jpg", i)))
		m = next.(GenerateModel)
	}
	if len(m.Lines) != visibleLogs {
		t.Fatalf("len(Lines) = %d, want %d", len(m.Lines), visibleLogs)
	}
	if m.Lines[0] != "saved 3.jpg" {
		t.Errorf("oldest line = %q", m.Lines[0])
	}
}

func TestGenerateModelQuitCancels(t *testing.T) {
	cancelled := 0
	m := NewGenerateModel(func() { cancelled++ })

	for range 2 {
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		m = next.(GenerateModel)
		if cmd != nil {
			t.Error("quit key should wait for the batch to stop")
		}
	}
	if cancelled != 1 {
		t.Errorf("cancel called %d times, want 1", cancelled)
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Error("View() should show the stopping state")
	}
}

func TestGenerateModelDone(t *testing.T) {
	m := NewGenerateModel(func() {})
	result := &pipeline.Result{Total: 2, Rendered: 2}

	next, cmd := m.Update(doneMsg{result: result})
	m = next.(GenerateModel)
	if cmd == nil {
		t.Fatal("done should quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done command is not tea.Quit")
	}
	if m.result != result {
		t.Error("result not kept")
	}
}

func TestGenerateModelFatal(t *testing.T) {
	m := NewGenerateModel(func() {})
	next, _ := m.Update(fatalMsg("template missing"))
	if view := next.(GenerateModel).View(); !strings.Contains(view, "template missing") {
		t.Errorf("View() missing fatal message:\n%s", view)
	}
}

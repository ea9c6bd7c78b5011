package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cardforge/pkg/pipeline"
)

const (
	barWidth    = 40
	visibleLogs = 8
)

var (
	barFilledStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
	logLineStyle   = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Messages
// =============================================================================

type progressMsg float64

type logMsg string

type fatalMsg string

type doneMsg struct {
	result *pipeline.Result
	err    error
}

// =============================================================================
// GenerateModel - Batch progress view
// =============================================================================

// GenerateModel is the bubbletea model showing a running batch.
type GenerateModel struct {
	Percent float64
	Lines   []string
	Fatal   string

	result   *pipeline.Result
	err      error
	stopping bool
	cancel   context.CancelFunc
}

// NewGenerateModel creates a progress view. cancel stops the batch when the
// user quits.
func NewGenerateModel(cancel context.CancelFunc) GenerateModel {
	return GenerateModel{cancel: cancel}
}

func (m GenerateModel) Init() tea.Cmd {
	return nil
}

func (m GenerateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// The batch goroutine still reports doneMsg once it notices.
			if !m.stopping {
				m.stopping = true
				m.cancel()
			}
		}
	case progressMsg:
		m.Percent = float64(msg)
	case logMsg:
		m.Lines = append(m.Lines, string(msg))
		if len(m.Lines) > visibleLogs {
			m.Lines = m.Lines[len(m.Lines)-visibleLogs:]
		}
	case fatalMsg:
		m.Fatal = string(msg)
	case doneMsg:
		m.result, m.err = msg.result, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m GenerateModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating cards"))
	b.WriteString("\n\n")

	filled := int(m.Percent / 100 * barWidth)
	filled = max(0, min(barWidth, filled))
	b.WriteString(barFilledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(barEmptyStyle.Render(strings.Repeat("░", barWidth-filled)))
	b.WriteString(fmt.Sprintf(" %3.0f%%\n\n", m.Percent))

	for _, line := range m.Lines {
		b.WriteString(logLineStyle.Render(line))
		b.WriteString("\n")
	}
	if m.Fatal != "" {
		b.WriteString("\n")
		b.WriteString(styleIconError.Render(iconError) + " " + m.Fatal + "\n")
	}

	b.WriteString("\n")
	if m.stopping {
		b.WriteString(StyleDim.Render("stopping after the current rows..."))
	} else {
		b.WriteString(StyleDim.Render("q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Sink
// =============================================================================

// programSink forwards batch events into a running program.
type programSink struct {
	p *tea.Program
}

func (s programSink) Progress(percent float64) { s.p.Send(progressMsg(percent)) }
func (s programSink) Log(line string)          { s.p.Send(logMsg(line)) }
func (s programSink) Fatal(text string)        { s.p.Send(fatalMsg(text)) }

// runWithTUI runs the batch behind a progress view. Log output goes to the
// view instead of the terminal.
func runWithTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewGenerateModel(cancel))
	opts.Sink = programSink{p: p}
	opts.Logger = quietLogger()

	go func() {
		result, err := runner.Run(ctx, opts)
		p.Send(doneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(GenerateModel)
	return m.result, m.err
}

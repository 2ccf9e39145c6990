// Package ui renders sweep progress and session summaries on the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"membench/internal/benchmark"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const barWidth = 40

type startMsg struct{ total int }

type pointMsg struct {
	rec    benchmark.Record
	cached bool
}

type doneMsg struct{}

// SweepModel is the bubbletea model behind the interactive progress line.
type SweepModel struct {
	Total  int
	Done   int
	Cached int
	Last   string

	progress progress.Model
	quitting bool
}

func NewSweepModel() SweepModel {
	p := progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))
	return SweepModel{progress: p}
}

func (m SweepModel) Init() tea.Cmd { return nil }

func (m SweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		m.Total = msg.total
	case pointMsg:
		m.Done++
		if msg.cached {
			m.Cached++
		}
		m.Last = describe(msg.rec, msg.cached)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if w := msg.Width - 40; w > 10 && w < barWidth {
			m.progress.Width = w
		}
	}
	return m, nil
}

func (m SweepModel) Percent() float64 {
	if m.Total <= 0 {
		return 0
	}
	return float64(m.Done) / float64(m.Total)
}

func (m SweepModel) View() string {
	count := countStyle.Render(fmt.Sprintf("%d/%d (%d cached)", m.Done, m.Total, m.Cached))
	line := lipgloss.JoinHorizontal(lipgloss.Top, m.progress.ViewAs(m.Percent()), " ", count)
	if m.Last != "" {
		line += " " + m.Last
	}
	if m.quitting {
		return line + "\n"
	}
	return line
}

func describe(rec benchmark.Record, cached bool) string {
	s := fmt.Sprintf("%s %s %s align=%d", rec.Variant, rec.Function, PrettySize(rec.Bytes), rec.Alignment)
	if cached {
		return cachedStyle.Render(s + " (cached)")
	}
	return pointStyle.Render(s)
}

// PrettySize formats a byte count the way the sweep sizes are usually read.
func PrettySize(n int) string {
	switch {
	case n >= 1024*1024 && n%(1024*1024) == 0:
		return fmt.Sprintf("%dM", n/(1024*1024))
	case n >= 1024 && n%1024 == 0:
		return fmt.Sprintf("%dk", n/1024)
	}
	return fmt.Sprintf("%d", n)
}

// Bar follows a session's reported points. On a terminal it drives a
// bubbletea program; otherwise it prints a line at every tenth of the sweep.
type Bar struct {
	w           io.Writer
	interactive bool

	program *tea.Program
	done    chan struct{}

	mu    sync.Mutex
	model SweepModel
	shown int
}

// NewProgress returns a Bar for w, interactive when w is a colour-capable
// terminal.
func NewProgress(w io.Writer) *Bar {
	return NewBar(w, isTerminal(w))
}

// NewBar returns a Bar; interactive selects the redrawn progress line.
func NewBar(w io.Writer, interactive bool) *Bar {
	return &Bar{w: w, interactive: interactive, model: NewSweepModel(), shown: -1}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return termenv.NewOutput(f).Profile != termenv.Ascii
}

func (b *Bar) Start(total int) {
	if b.interactive {
		b.model.Total = total
		b.program = tea.NewProgram(b.model,
			tea.WithOutput(b.w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		)
		b.done = make(chan struct{})
		go func() {
			defer close(b.done)
			_, _ = b.program.Run()
		}()
		b.program.Send(startMsg{total: total})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.model.Total = total
	fmt.Fprintf(b.w, "%s %d points planned\n", headerStyle.Render("membench"), total)
}

func (b *Bar) Advance(rec benchmark.Record, cached bool) {
	if b.interactive {
		b.program.Send(pointMsg{rec: rec, cached: cached})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	next, _ := b.model.Update(pointMsg{rec: rec, cached: cached})
	b.model = next.(SweepModel)
	tenth := int(b.model.Percent() * 10)
	if tenth > b.shown {
		b.shown = tenth
		fmt.Fprintf(b.w, "%3.0f%% %d/%d (%d cached) %s\n",
			b.model.Percent()*100, b.model.Done, b.model.Total, b.model.Cached, b.model.Last)
	}
}

// Finish stops the interactive program, leaving its last frame on screen.
func (b *Bar) Finish() {
	if b.program == nil {
		return
	}
	b.program.Send(doneMsg{})
	<-b.done
}

// RenderSummary writes the closing line of a session.
func RenderSummary(w io.Writer, summary string, failed bool) {
	summary = strings.TrimSpace(summary)
	if failed {
		fmt.Fprintln(w, errorStyle.Render("✗ ")+summary)
		return
	}
	fmt.Fprintln(w, successStyle.Render("✓ ")+summary)
}

// KeyValue renders aligned label/value rows, used for cache statistics.
func KeyValue(w io.Writer, rows [][2]string) {
	for _, r := range rows {
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r[0]), r[1]))
	}
}

package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/xoptymiz/xoptymiz/internal/pipeline"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// batchProgressMsg carries one finished URL.
type batchProgressMsg pipeline.Progress

// batchDoneMsg carries the final batch result.
type batchDoneMsg struct {
	result *pipeline.BatchResult
}

// batchModel is the bubbletea model for batch progress.
type batchModel struct {
	progress  progress.Model
	theme     Theme
	total     int
	completed int
	failed    int
	lastURL   string
	result    *pipeline.BatchResult
	quitting  bool
}

func newBatchModel(total int) batchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return batchModel{
		progress: prog,
		theme:    defaultTheme,
		total:    total,
	}
}

// Init returns the initial command.
func (m batchModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case batchProgressMsg:
		m.completed = msg.Completed
		m.lastURL = msg.URL
		if msg.Err != nil {
			m.failed++
		}
		return m, nil

	case batchDoneMsg:
		m.result = msg.result
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m batchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m batchModel) renderContent() string {
	if m.result != nil {
		return m.finalView()
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.completed) / float64(m.total)
	}

	status := m.theme.statusStyle().Render("[processing]")
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d urls", m.completed, m.total)
	if m.failed > 0 {
		counts += m.theme.errorStyle().Render(fmt.Sprintf(" (%d failed)", m.failed))
	}
	hint := m.theme.hintStyle().Render(m.lastURL)

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the completion message.
func (m batchModel) finalView() string {
	r := m.result
	var output string
	if r.Failed == 0 {
		output = m.theme.completedStyle().Render("✓ Completed") + "\n\n"
	} else {
		output = m.theme.errorStyle().Render("✓ Completed with failures") + "\n\n"
	}
	output += fmt.Sprintf("  Succeeded: %d\n", r.Succeeded)
	output += fmt.Sprintf("  Failed:    %d\n", r.Failed)
	return output
}

// RunBatchProgress runs the interactive progress UI around a batch run.
// The run callback executes on a background goroutine and reports per-URL
// completion through the provided channel.
func RunBatchProgress(total int, run func(progress chan<- pipeline.Progress) *pipeline.BatchResult) (*pipeline.BatchResult, error) {
	p := tea.NewProgram(newBatchModel(total))

	events := make(chan pipeline.Progress, total)
	done := make(chan *pipeline.BatchResult, 1)
	go func() {
		res := run(events)
		close(events)
		done <- res
	}()
	go func() {
		for ev := range events {
			p.Send(batchProgressMsg(ev))
		}
		res := <-done
		p.Send(batchDoneMsg{result: res})
		done <- res
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(batchModel); ok {
		if m.quitting {
			// The batch keeps running; wait for it so results are complete.
			fmt.Println("Waiting for in-flight URLs to finish...")
		}
		if m.result != nil {
			return m.result, nil
		}
	}
	return <-done, nil
}

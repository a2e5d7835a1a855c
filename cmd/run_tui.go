package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/internal/core/services"
	"github.com/maidsafe/safeload/pkg/logging"
	"github.com/maidsafe/safeload/pkg/ui"
)

// maxRecentLines is how many finished items the view keeps on screen
const maxRecentLines = 8

type runProgressMsg services.RunProgress

type runDoneMsg struct {
	resp *services.RunResponse
	err  error
}

// runModel renders a batch while it runs
type runModel struct {
	spinner    spinner.Model
	bar        progress.Model
	cancel     context.CancelFunc
	total      int
	current    int
	failed     int
	uploading  string
	recent     []string
	cancelling bool
	done       bool
	resp       *services.RunResponse
	err        error
}

func newRunModel(total int, cancel context.CancelFunc) runModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.StyleAccent

	return runModel{
		spinner: s,
		bar:     ui.NewProgressBar(40),
		cancel:  cancel,
		total:   total,
	}
}

func (m runModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil && !m.cancelling {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 20
		if width > 60 {
			width = 60
		}
		if width < 10 {
			width = 10
		}
		m.bar.Width = width
		return m, nil

	case runProgressMsg:
		return m.applyProgress(services.RunProgress(msg)), nil

	case runDoneMsg:
		m.done = true
		m.resp = msg.resp
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m runModel) applyProgress(p services.RunProgress) runModel {
	if p.Total > 0 {
		m.total = p.Total
	}

	switch p.Stage {
	case services.StageUploading:
		m.uploading = p.Item.FilePath
	case services.StageDone:
		m.current = p.Current

		var line string
		switch {
		case p.Item.Succeeded():
			line = ui.FormatSuccess(fmt.Sprintf("#%d %s", p.Item.Index, p.Item.XORURL))
		case p.Item.Skipped:
			m.failed++
			line = ui.FormatSkipped(fmt.Sprintf("#%d skipped", p.Item.Index))
		default:
			m.failed++
			line = ui.FormatError(fmt.Sprintf("#%d %s", p.Item.Index, p.Item.Error))
		}

		m.recent = append(m.recent, line)
		if len(m.recent) > maxRecentLines {
			m.recent = m.recent[len(m.recent)-maxRecentLines:]
		}
	}
	return m
}

func (m runModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	status := "Uploading"
	if m.cancelling {
		status = "Cancelling"
	}
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), ui.StyleBold.Render(status))
	fmt.Fprintf(&b, "%s %d/%d", ui.RenderProgress(m.bar, m.current, m.total), m.current, m.total)
	if m.failed > 0 {
		b.WriteString(" " + ui.StyleError.Render(fmt.Sprintf("(%d failed)", m.failed)))
	}
	b.WriteString("\n\n")

	if m.uploading != "" && !m.cancelling {
		b.WriteString(ui.FormatMuted("  " + m.uploading))
		b.WriteString("\n\n")
	}

	for _, line := range m.recent {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(ui.FormatMuted("q/ctrl+c: cancel"))
	b.WriteString("\n")

	return b.String()
}

// runBatchTUI runs a batch behind the interactive progress view
func runBatchTUI(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(getContext(cmd))
	defer cancel()

	req := buildRunRequest()
	total := req.Count
	if total <= 0 {
		total = appConfig.FileCount
	}

	// Keep log lines out of the view unless verbose
	if !verbose {
		slog.SetDefault(logging.New(io.Discard, logging.Options{}))
	}

	p := tea.NewProgram(newRunModel(total, cancel))

	go func() {
		progressChan := make(chan services.RunProgress, total)
		forwarded := make(chan struct{})
		go func() {
			defer close(forwarded)
			for progress := range progressChan {
				p.Send(runProgressMsg(progress))
			}
		}()

		resp, err := runService.ExecuteWithProgress(ctx, req, progressChan)
		<-forwarded
		p.Send(runDoneMsg{resp: resp, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running progress view: %w", err)
	}

	m, ok := final.(runModel)
	if !ok || !m.done {
		return fmt.Errorf("progress view exited before the batch finished")
	}

	printRunSummary(m.resp)
	return m.err
}

// Package watch is a live terminal view of a running daemon.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/actionsum/activetime/internal/web"
	"github.com/actionsum/activetime/pkg/utils"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Source is satisfied by *web.Client
type Source interface {
	Status(ctx context.Context) (*web.StatusResponse, error)
	Usage(ctx context.Context, date string) (*web.UsageResponse, error)
}

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
}

type tickMsg time.Time

type dataMsg struct {
	status *web.StatusResponse
	usage  *web.UsageResponse
	err    error
}

type Model struct {
	source   Source
	interval time.Duration
	timeout  time.Duration
	spinner  spinner.Model

	status  *web.StatusResponse
	usage   *web.UsageResponse
	err     error
	loaded  bool
	updated time.Time

	width    int
	maxRows  int
	quitting bool
}

func New(source Source, interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		source:   source,
		interval: interval,
		timeout:  2 * time.Second,
		spinner:  s,
		width:    80,
		maxRows:  10,
	}
}

// Run starts the full-screen program
func Run(source Source, interval time.Duration) error {
	_, err := tea.NewProgram(New(source, interval), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetch() tea.Cmd {
	source, timeout := m.source, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		status, err := source.Status(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		usage, err := source.Usage(ctx, status.Date)
		if err != nil {
			return dataMsg{err: err}
		}
		return dataMsg{status: status, usage: usage}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Height > 12 {
			m.maxRows = msg.Height - 10
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, m.fetch()
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case dataMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.usage = msg.usage
			m.updated = time.Now()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("activetime"))
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(m.spinner.View() + " connecting to daemon...\n")
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
		if m.status == nil {
			b.WriteString("\n" + m.help())
			return b.String()
		}
		b.WriteString("\n")
	}

	b.WriteString(m.header())
	b.WriteString("\n\n")
	b.WriteString(m.rows())
	b.WriteString("\n" + m.help())
	return b.String()
}

func (m Model) header() string {
	st := m.status.Tracker

	var state string
	switch {
	case !st.Tracking:
		state = dimStyle.Render("stopped")
	case st.CurrentlyIdle:
		state = idleStyle.Render("idle")
	default:
		state = activeStyle.Render("active")
	}

	line := fmt.Sprintf("%s  %s  today %s", state, m.status.Date, utils.FormatDuration(m.status.TodaySeconds))
	if st.CurrentApp != "" {
		line += fmt.Sprintf("\nnow: %s", appStyle.Render(st.CurrentApp))
		if st.CurrentTitle != "" {
			line += dimStyle.Render(" - " + truncate(st.CurrentTitle, m.width-12))
		}
	}
	if m.status.Degraded {
		line += "\n" + errorStyle.Render("database unavailable, tracking in memory only")
	}
	return line
}

func (m Model) rows() string {
	if m.usage == nil || len(m.usage.Apps) == 0 {
		return dimStyle.Render("No activity recorded today.") + "\n"
	}

	barWidth := m.width - 40
	if barWidth < 10 {
		barWidth = 10
	}

	var b strings.Builder
	for i, app := range m.usage.Apps {
		if i >= m.maxRows {
			fmt.Fprintf(&b, "%s\n", dimStyle.Render(fmt.Sprintf("... %d more", len(m.usage.Apps)-i)))
			break
		}
		share := 0.0
		if m.usage.TotalSeconds > 0 {
			share = app.TotalSeconds / m.usage.TotalSeconds
		}
		fmt.Fprintf(&b, "%-20s %8s %s\n",
			truncate(app.AppName, 20),
			utils.FormatDuration(app.TotalSeconds),
			barStyle.Render(bar(share, barWidth)))
	}
	return b.String()
}

func (m Model) help() string {
	return helpStyle.Render(fmt.Sprintf("%s %s  %s %s",
		keys.Refresh.Help().Key, keys.Refresh.Help().Desc,
		keys.Quit.Help().Key, keys.Quit.Help().Desc))
}

func bar(share float64, width int) string {
	n := int(share*float64(width) + 0.5)
	if n > width {
		n = width
	}
	if n < 0 {
		n = 0
	}
	return strings.Repeat("█", n)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 {
		maxLen = 4
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pairbench/internal/loadtest"
	"pairbench/internal/stats"
	"pairbench/internal/tui/styles"
)

// SnapshotMsg carries a live engine snapshot into the update loop.
type SnapshotMsg loadtest.Snapshot

// DoneMsg signals that every target finished; reports are already on disk.
type DoneMsg struct {
	Reports []*loadtest.Report
}

// Model is the live run view: a progress bar for the current scenario
// plus one metric card per backend.
type Model struct {
	updates loadtest.SnapshotChan

	nameA, nameB string

	snap     loadtest.Snapshot
	hasSnap  bool
	done     bool
	reports  []*loadtest.Report
	progress progress.Model
	width    int
}

func NewModel(nameA, nameB string, updates loadtest.SnapshotChan) Model {
	return Model{
		updates:  updates,
		nameA:    nameA,
		nameB:    nameB,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func waitForUpdate(sub loadtest.SnapshotChan) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg(<-sub)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		if m.done {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 8
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}

	case SnapshotMsg:
		m.snap = loadtest.Snapshot(msg)
		m.hasSnap = true
		return m, waitForUpdate(m.updates)

	case DoneMsg:
		m.done = true
		m.reports = msg.Reports
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("PairBench live comparison"))
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(styles.Success.Render("✔ all scenarios complete"))
		b.WriteString("\n")
		for _, r := range m.reports {
			b.WriteString(styles.Text.Render(
				fmt.Sprintf("  %s: %d scenarios (%s vs %s)", r.Target, len(r.Entries), r.BackendA, r.BackendB)))
			b.WriteString("\n")
		}
		b.WriteString(styles.Subtle.Render("\nreports written, press any key to exit"))
		return b.String()
	}

	if !m.hasSnap {
		b.WriteString(styles.Subtle.Render("waiting for first samples…"))
		return b.String()
	}

	s := m.snap
	b.WriteString(styles.Text.Render(
		fmt.Sprintf("target %s · %d concurrent users", s.Target, s.Users)))
	b.WriteString("\n")

	if s.Total > 0 {
		pct := s.Elapsed.Seconds() / s.Total.Seconds()
		if pct > 1 {
			pct = 1
		}
		b.WriteString(m.progress.ViewAs(pct))
		b.WriteString(styles.Subtle.Render(
			fmt.Sprintf("  %s / %s", s.Elapsed.Round(time.Second), s.Total)))
	} else {
		b.WriteString(styles.Subtle.Render("single-shot mode"))
	}
	b.WriteString("\n\n")

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		backendCard(m.nameA, s.A),
		backendCard(m.nameB, s.B),
	)
	b.WriteString(cards)
	b.WriteString("\n")
	b.WriteString(styles.Subtle.Render("q/ctrl+c to abort"))
	return b.String()
}

func backendCard(name string, v stats.View) string {
	var b strings.Builder
	b.WriteString(styles.Value.Render(name))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(fmt.Sprintf("queries %8d", v.Queries)))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(fmt.Sprintf("ok      %8d", v.Success)))
	b.WriteString("\n")
	line := fmt.Sprintf("errors  %8d (%.1f%%)", v.Fail, v.ErrorRate())
	if v.Fail > 0 {
		b.WriteString(styles.Error.Render(line))
	} else {
		b.WriteString(styles.Text.Render(line))
	}
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(fmt.Sprintf("p50     %7.1fms", v.Latency.P50Ms)))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(fmt.Sprintf("p95     %7.1fms", v.Latency.P95Ms)))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(fmt.Sprintf("p99     %7.1fms", v.Latency.P99Ms)))
	return styles.Box.Render(b.String())
}

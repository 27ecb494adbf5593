package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/metastrip/internal/batch"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎵 metastrip"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Strip tags from MP3 and MP4/M4A files"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateScanning:
		b.WriteString(m.viewScanning())
	case StateStripping:
		b.WriteString(m.viewStripping())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter music directory:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s Dry run, only report (F2)\n", checkbox(m.dryRun))
	fmt.Fprintf(&b, "  %s Keep a backup of each file (F3)\n", checkbox(m.backup))
	fmt.Fprintf(&b, "  %s Save cover art before stripping (F4)\n", checkbox(m.covers))
	fmt.Fprintf(&b, "  %s Verbose output (F5)\n", checkbox(m.verbose))

	return b.String()
}

func (m Model) viewScanning() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Looking for audio files..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewStripping() string {
	var b strings.Builder

	var percent float64
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Removed: %d | Clean: %d | Failed: %d",
		m.processed, m.total, m.stats.Removed, m.stats.NoMetadata, m.stats.Failed,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	title := "✨ Done!"
	switch {
	case m.interrupted:
		title = "⏹ Interrupted"
	case m.dryRun:
		title = "✨ Dry run complete"
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Metadata removed:  %d\n"+
			"No metadata found: %d\n"+
			"Failed:            %d",
		title,
		m.stats.Removed,
		m.stats.NoMetadata,
		m.stats.Failed,
	))

	return box + "\n\n" + m.renderLogs()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case batch.LevelError:
			style = errorStyle
			prefix = "✗"
		case batch.LevelWarning:
			style = warningStyle
			prefix = "!"
		case batch.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case batch.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • F2: dry run • F3: backup • F4: cover art • F5: verbose • esc: quit"
	case StateScanning, StateStripping:
		if m.quitting {
			return "quitting after the current file..."
		}
		return "esc: stop after the current file • ctrl+c: quit after the current file"
	case StateComplete, StateError:
		return "r: new batch • q: quit"
	}
	return ""
}

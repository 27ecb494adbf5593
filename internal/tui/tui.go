// Package tui provides a Bubble Tea terminal user interface for metastrip.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/metastrip/internal/batch"
	"github.com/handiism/metastrip/internal/config"
	"github.com/handiism/metastrip/internal/model"
)

const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateScanning
	StateStripping
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   batch.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	// Batch context
	ctx    context.Context
	cancel context.CancelFunc
	events chan batch.ProgressEvent

	runner *batch.Runner

	// Batch progress
	processed   int32
	total       int32
	stats       model.BatchStats
	interrupted bool
	quitting    bool

	// Options
	dryRun  bool
	backup  bool
	covers  bool
	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model using settings as the base configuration.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "/path/to/music"
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		dryRun:    settings.DryRun,
		backup:    settings.BackupSuffix != "",
		covers:    settings.SaveCoverArt,
		verbose:   settings.Verbose,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one batch event.
	ProgressMsg struct {
		Event batch.ProgressEvent
	}

	// ScanDoneMsg is sent when the directory has been scanned.
	ScanDoneMsg struct {
		Runner *batch.Runner
		Err    error
	}

	// StripDoneMsg is sent when the batch has finished or was interrupted.
	StripDoneMsg struct {
		Stats model.BatchStats
		Err   error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			if m.state == StateScanning || m.state == StateStripping {
				// Quit once the current file is done; see ScanDoneMsg and StripDoneMsg.
				m.interrupted = true
				m.quitting = true
				return m, nil
			}
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateScanning || m.state == StateStripping {
				// The batch stops after the current file; StripDoneMsg follows.
				m.cancel()
				m.interrupted = true
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				m.state = StateScanning
				m.events = make(chan batch.ProgressEvent, 64)
				return m, tea.Batch(m.scan(m.textInput.Value()), waitForEvent(m.events), m.spinner.Tick)
			}

		case "f2":
			if m.state == StateInput {
				m.dryRun = !m.dryRun
			}

		case "f3":
			if m.state == StateInput {
				m.backup = !m.backup
			}

		case "f4":
			if m.state == StateInput {
				m.covers = !m.covers
			}

		case "f5":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m = m.reset()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if msg.Event.Result != nil && m.state == StateStripping {
			m.stats.Add(msg.Event.Result.Outcome)
		}
		if msg.Event.Level != batch.LevelVerbose || m.verbose {
			m.logs = append(m.logs, LogEntry{Message: msg.Event.Message, Level: msg.Event.Level})
			if len(m.logs) > maxLogs {
				m.logs = m.logs[len(m.logs)-maxLogs:]
			}
		}
		if m.events != nil {
			cmds = append(cmds, waitForEvent(m.events))
		}

	case ScanDoneMsg:
		if m.quitting {
			return m, tea.Quit
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			if errors.Is(msg.Err, model.ErrInterrupted) {
				m.interrupted = true
			}
		} else {
			m.runner = msg.Runner
			m.state = StateStripping
			_, m.total = m.runner.GetProgress()
			cmds = append(cmds, m.strip(), m.tickProgress())
		}

	case StripDoneMsg:
		m.stats = msg.Stats
		if m.runner != nil {
			m.processed, m.total = m.runner.GetProgress()
		}
		switch {
		case errors.Is(msg.Err, model.ErrInterrupted):
			m.interrupted = true
			m.state = StateComplete
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}
		if m.quitting {
			return m, tea.Quit
		}

	case TickMsg:
		if m.runner != nil && m.state == StateStripping {
			m.processed, m.total = m.runner.GetProgress()

			var percent float64
			if m.total > 0 {
				percent = float64(m.processed) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// reset returns the model to the input state for a new batch.
func (m Model) reset() Model {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.runner = nil
	m.events = nil
	m.processed = 0
	m.total = 0
	m.stats = model.BatchStats{}
	m.interrupted = false
	m.quitting = false
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// batchSettings applies the toggles of the input screen to a copy of the settings.
func (m Model) batchSettings() *config.Settings {
	s := *m.settings
	s.DryRun = m.dryRun
	s.SaveCoverArt = m.covers
	s.Verbose = m.verbose
	switch {
	case m.backup && s.BackupSuffix == "":
		s.BackupSuffix = ".bak"
	case !m.backup:
		s.BackupSuffix = ""
	}
	return &s
}

// scan validates the root and collects the files to process.
func (m Model) scan(root string) tea.Cmd {
	settings := m.batchSettings()
	ctx, events := m.ctx, m.events

	return func() tea.Msg {
		runner, err := batch.NewRunner(settings, func(event batch.ProgressEvent) {
			select {
			case events <- event:
			case <-ctx.Done():
			}
		})
		if err != nil {
			close(events)
			return ScanDoneMsg{Err: err}
		}

		if err := runner.Initialize(ctx, root); err != nil {
			close(events)
			return ScanDoneMsg{Err: err}
		}
		return ScanDoneMsg{Runner: runner}
	}
}

// strip processes the scanned files in the background.
func (m Model) strip() tea.Cmd {
	runner, ctx, events := m.runner, m.ctx, m.events

	return func() tea.Msg {
		if runner == nil {
			return StripDoneMsg{Err: fmt.Errorf("no files scanned")}
		}
		stats, err := runner.Start(ctx)
		close(events)
		return StripDoneMsg{Stats: stats, Err: err}
	}
}

// waitForEvent delivers the next batch event as a ProgressMsg.
func waitForEvent(events <-chan batch.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/tasks"
)

// logLines is how many recent progress messages the sync view keeps.
const logLines = 8

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	SyncView
	ResultView
)

// Syncer runs one sync pass; *tasks.SyncEngine satisfies it.
type Syncer interface {
	Run(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error)
}

// Options describe what the confirm view shows before a run.
type Options struct {
	StateFile string
	Processed int
	Cursor    string
	DryRun    bool
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       Syncer
	opts         Options
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan syncOutcome
	progress     tasks.ProgressUpdate
	log          []string
	unmatched    list.Model
	result       *tasks.SyncResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine Syncer, opts Options) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:     ctx,
		view:    ConfirmView,
		engine:  engine,
		opts:    opts,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner; the sync itself waits for confirmation.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Result returns the last sync result and error once the sync view has finished.
func (m *Model) Result() (*tasks.SyncResult, error) {
	return m.result, m.err
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-8, 10)
		if m.view == ResultView {
			m.unmatched.SetSize(msg.Width-4, msg.Height-12)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SyncView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			m.progress = update
			m.appendLog(update)
			return m, m.waitForProgress()

		case MsgSyncComplete:
			outcome := msg.data.(syncOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.progressChan = nil
			m.done = nil
			m.showResult()
			return m, nil
		}
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.unmatched, cmd = m.unmatched.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no):
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes), key.Matches(msg, m.keys.start):
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = ConfirmView
		m.result = nil
		m.err = nil
		m.log = nil
		m.progress = tasks.ProgressUpdate{}
		return m, nil
	}

	var cmd tea.Cmd
	m.unmatched, cmd = m.unmatched.Update(msg)
	return m, cmd
}

func (m *Model) startSync() tea.Cmd {
	progressChan := make(chan tasks.ProgressUpdate, 64)
	done := make(chan syncOutcome, 1)
	m.progressChan = progressChan
	m.done = done

	go func() {
		result, err := m.engine.Run(m.ctx, progressChan)
		done <- syncOutcome{result: result, err: err}
		close(progressChan)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// waitForProgress reads the next update; once the channel is closed it reports the run's outcome.
func (m *Model) waitForProgress() tea.Cmd {
	progressChan, done := m.progressChan, m.done
	if progressChan == nil {
		return nil
	}

	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			outcome := <-done
			return syncCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) appendLog(update tasks.ProgressUpdate) {
	line := update.Message
	if o, ok := update.Data.(models.TrackOutcome); ok {
		line = styles.outcome(string(o.Outcome)).Render(line)
	}

	m.log = append(m.log, line)
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
}

func (m *Model) showResult() {
	m.view = ResultView

	var items []list.Item
	if m.result != nil {
		items = unmatchedItems(m.result.Outcomes)
	}
	m.unmatched = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.unmatched.Title = "Not found or failed"
	m.unmatched.SetShowStatusBar(false)
	m.unmatched.SetSize(max(m.width-4, 20), max(m.height-12, 5))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Sync Spotify likes to Yandex Music?")

	cursor := m.opts.Cursor
	if cursor == "" {
		cursor = "none (first import)"
	}
	info := fmt.Sprintf("State file: %s\nProcessed:  %d tracks\nCursor:     %s\n",
		m.opts.StateFile, m.opts.Processed, cursor)
	if m.opts.DryRun {
		info += styles.warn.Render("Dry run: nothing will be liked") + "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing liked tracks")

	percent := 0.0
	if m.progress.Phase == tasks.SyncTracks && m.progress.Total > 0 {
		percent = float64(m.progress.Step) / float64(m.progress.Total)
	}

	var phase string
	switch m.progress.Phase {
	case tasks.LoadState:
		phase = "Loading state..."
	case tasks.FetchTargetLikes:
		phase = "Reading Yandex Music likes..."
	case tasks.FetchSourceLikes:
		phase = "Fetching Spotify likes..."
	case tasks.SyncTracks:
		phase = fmt.Sprintf("Matching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Complete:
		phase = "Finishing..."
	}

	return fmt.Sprintf("%s\n%s %s\n%s\n\n%s\n\n%s",
		title, m.spinner.View(), phase, m.bar.ViewAs(percent),
		strings.Join(m.log, "\n"), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.restart, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	r := m.result
	title := styles.ok.Render("✓ Sync complete")
	if r.DryRun {
		title = styles.ok.Render("✓ Dry run complete")
	}
	info := fmt.Sprintf("\nProcessed: %d  Added: %d  Skipped: %d  Not found: %d  Failed: %d",
		r.Total, r.Added, r.Skipped, r.NotFound, r.Failed)
	if r.DryRun {
		info += fmt.Sprintf("  Would add: %d", r.Planned)
	}

	body := ""
	if len(m.unmatched.Items()) > 0 {
		body = "\n\n" + m.unmatched.View()
	}

	return fmt.Sprintf("%s%s%s\n\n%s", title, info, body, helpView)
}

package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"tidalsplit/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	PlanView
	ConfirmView
	SplitView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.Splitter
	sourceID     string
	opts         tasks.Options
	width        int
	height       int
	plan         *tasks.SplitPlan
	segmentList  list.Model
	progressChan chan tasks.ProgressUpdate
	runDone      chan splitCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.SplitRunResult
	err          error
	help         help.Model
	keys         keyMap
}

// segmentItem wraps [tasks.PlannedSegment] to implement list.Item.
type segmentItem struct {
	planned tasks.PlannedSegment
}

func (i segmentItem) FilterValue() string { return i.planned.Name }
func (i segmentItem) Title() string       { return i.planned.Name }
func (i segmentItem) Description() string {
	return fmt.Sprintf("%d tracks • %s", len(i.planned.Segment.Tracks), i.planned.Description)
}

type planReadyMsg struct {
	plan *tasks.SplitPlan
	err  error
}

type progressUpdateMsg tasks.ProgressUpdate

type splitCompleteMsg struct {
	result *tasks.SplitRunResult
	err    error
}

// NewModel creates a new TUI model for splitting sourceID with the given options.
func NewModel(ctx context.Context, engine tasks.Splitter, sourceID string, opts tasks.Options) *Model {
	return &Model{
		ctx:      ctx,
		view:     LoadingView,
		engine:   engine,
		sourceID: sourceID,
		opts:     opts,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts planning the split.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlan()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.segmentList.Width() == 0 {
			m.segmentList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlanView:
			return m.handlePlanKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		default:
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case planReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.plan = msg.plan
		items := make([]list.Item, len(msg.plan.Segments))
		for i, seg := range msg.plan.Segments {
			items[i] = segmentItem{planned: seg}
		}
		m.segmentList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.segmentList.Title = fmt.Sprintf("Splitting '%s' (%d tracks)",
			msg.plan.Source.Playlist.Name, len(msg.plan.Source.Tracks))
		m.segmentList.SetSize(m.width-4, m.height-8)
		m.view = PlanView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case splitCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	if m.view == PlanView {
		var cmd tea.Cmd
		m.segmentList, cmd = m.segmentList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return styles.title.Render("Fetching playlist from Tidal...")
	case PlanView:
		return m.renderPlan()
	case ConfirmView:
		return m.renderConfirm()
	case SplitView:
		return m.renderSplit()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlanKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.segmentList, cmd = m.segmentList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PlanView
		return m, nil
	case "y":
		m.view = SplitView
		return m, m.startSplit()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) fetchPlan() tea.Cmd {
	return func() tea.Msg {
		plan, err := m.engine.Plan(m.ctx, m.sourceID, m.opts)
		return planReadyMsg{plan: plan, err: err}
	}
}

func (m *Model) startSplit() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.runDone = make(chan splitCompleteMsg, 1)
	ch := m.progressChan
	done := m.runDone

	go func() {
		result, err := m.engine.Run(m.ctx, ch, m.sourceID, m.opts)
		done <- splitCompleteMsg{result: result, err: err}
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	done := m.runDone

	return func() tea.Msg {
		if progressChan == nil {
			return splitCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-progressChan
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlan() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.segmentList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Create %d playlists from '%s'?",
		len(m.plan.Segments), m.plan.Source.Playlist.Name))

	var info string
	for _, seg := range m.plan.Segments {
		info += fmt.Sprintf("  %s (%d tracks)\n", seg.Name, len(seg.Segment.Tracks))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSplit() string {
	title := styles.title.Render("Splitting Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching source playlist..."
	case tasks.CreatePlaylist:
		phase = fmt.Sprintf("Creating playlist (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks (segment %d/%d)", m.progress.Step, m.progress.Total)
	case tasks.SegmentDone:
		phase = fmt.Sprintf("Segment %d/%d done", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Split failed: %v\n\nPress q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Split Complete!")
	info := fmt.Sprintf("\nSource: %s (%d tracks)\nCreated %d playlists, %d tracks added\n",
		m.result.Source.Playlist.Name,
		m.result.TotalTracks,
		len(m.result.Created),
		m.result.TracksAdded,
	)

	for _, created := range m.result.Created {
		info += fmt.Sprintf("\n  %s (%d tracks)", created.Playlist.Name, created.TracksAdded)
		if created.Playlist.URL != "" {
			info += "\n    " + styles.help.Render(created.Playlist.URL)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s%s\n\n%s", title, info, helpView)
}

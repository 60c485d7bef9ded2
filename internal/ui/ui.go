package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/repositories"
	"github.com/desertthunder/curate/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueueView ViewState = iota
	AddView
	ConfirmView
	RunView
	ResultView
)

// eventBuffer is how many run events may queue up between redraws.
const eventBuffer = 256

// maxFailures is how many label failures the run view lists.
const maxFailures = 5

var _ list.Item = labelItem{}

// labelItem wraps [models.Label] to implement [list.Item].
type labelItem struct {
	label models.Label
}

func (i labelItem) FilterValue() string { return i.label.Name }
func (i labelItem) Title() string       { return i.label.Name }
func (i labelItem) Description() string { return "#" + i.label.ID }

// Opts holds the TUI's dependencies.
type Opts struct {
	Processor *tasks.Processor
	Catalog   tasks.LabelCatalog
	Labels    *repositories.LabelRepository
	Cache     *repositories.ReleaseCache
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	processor *tasks.Processor
	catalog   tasks.LabelCatalog
	labels    *repositories.LabelRepository
	cache     *repositories.ReleaseCache
	width     int
	height    int

	queueList list.Model
	queue     []models.Label
	missing   int
	input     textinput.Model
	status    string

	kind     models.RunKind
	events   chan tasks.Event
	done     chan runComplete
	cancel   context.CancelFunc
	quitting bool
	message  string
	paused   bool
	overall  tasks.Progress
	release  tasks.Progress
	failures []string
	result   *tasks.RunResult
	runErr   error

	err  error
	bar  progress.Model
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	input := textinput.New()
	input.Placeholder = "Discogs label id, e.g. 23528"
	input.CharLimit = 20

	queueList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	queueList.Title = "Label Queue"
	queueList.SetShowHelp(false)

	return &Model{
		ctx:       ctx,
		view:      QueueView,
		processor: opts.Processor,
		catalog:   opts.Catalog,
		labels:    opts.Labels,
		cache:     opts.Cache,
		queueList: queueList,
		input:     input,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI by loading the persisted queue.
func (m *Model) Init() tea.Cmd {
	return m.loadQueue()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queueList.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueueView:
			return m.handleQueueKeys(msg)
		case AddView:
			return m.handleAddKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == QueueView {
		var cmd tea.Cmd
		m.queueList, cmd = m.queueList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgQueueLoaded:
		data := msg.data.(queueLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.queue = data.queue
		m.missing = data.missing
		items := make([]list.Item, len(data.queue))
		for i, label := range data.queue {
			items[i] = labelItem{label: label}
		}
		return m, m.queueList.SetItems(items)

	case MsgLabelAdded:
		data := msg.data.(labelAdded)
		if data.err != nil {
			m.status = styles.err.Render(data.err.Error())
			return m, nil
		}
		m.status = styles.ok.Render(fmt.Sprintf("Added %s (#%s) to the queue.", data.label.Name, data.label.ID))
		m.input.Reset()
		m.input.Blur()
		m.view = QueueView
		return m, m.loadQueue()

	case MsgRunEvent:
		m.applyEvent(msg.data.(tasks.Event))
		return m, waitForEvent(m.events, m.done)

	case MsgRunComplete:
		data := msg.data.(runComplete)
		m.result = data.result
		m.runErr = data.err
		if errors.Is(data.err, context.Canceled) {
			m.runErr = nil
		}
		m.cancel = nil
		m.events = nil
		m.done = nil
		m.view = ResultView
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

// applyEvent folds a run event into the progress state.
func (m *Model) applyEvent(e tasks.Event) {
	if e.Data == nil {
		return
	}

	switch e.Kind {
	case tasks.BuildProgress:
		m.paused = false
		if e.Data.Progress != nil {
			m.release = *e.Data.Progress
		} else {
			m.release = tasks.Progress{}
		}
		if e.Data.Overall != nil {
			m.overall = *e.Data.Overall
		}
	case tasks.BuildPaused:
		m.paused = true
	case tasks.BuildError:
		m.failures = append(m.failures, e.Data.Message)
	case tasks.StorageChanged:
		return
	}
	m.message = e.Data.Message
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case QueueView:
		return m.renderQueue()
	case AddView:
		return m.renderAdd()
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.queueList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.queueList, cmd = m.queueList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.process):
		if len(m.queue) == 0 {
			m.status = styles.warn.Render("The queue is empty. Press a to add a label.")
			return m, nil
		}
		m.kind = models.RunKindLabels
		m.view = ConfirmView
		return m, nil
	case key.Matches(msg, m.keys.missing):
		if m.missing == 0 {
			m.status = styles.warn.Render("No cached releases are missing data.")
			return m, nil
		}
		m.kind = models.RunKindReleases
		m.view = ConfirmView
		return m, nil
	case key.Matches(msg, m.keys.add):
		m.status = ""
		m.view = AddView
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.queueList.SelectedItem().(labelItem); ok {
			return m, m.removeLabel(item.label.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.queueList, cmd = m.queueList.Update(msg)
	return m, cmd
}

func (m *Model) handleAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.input.Reset()
		m.input.Blur()
		m.status = ""
		m.view = QueueView
		return m, nil
	case key.Matches(msg, m.keys.submit):
		m.status = styles.help.Render("Checking label...")
		return m, m.addLabel(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = RunView
		return m, m.startRun()
	case key.Matches(msg, m.keys.no):
		m.view = QueueView
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.quit):
		if msg.String() == "q" {
			m.quitting = true
		}
		if m.cancel != nil {
			m.cancel()
			m.message = "Cancelling..."
		}
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.resetRun()
		m.view = QueueView
		return m, m.loadQueue()
	}
	return m, nil
}

func (m *Model) resetRun() {
	m.result = nil
	m.runErr = nil
	m.message = ""
	m.paused = false
	m.overall = tasks.Progress{}
	m.release = tasks.Progress{}
	m.failures = nil
	m.status = ""
}

func (m *Model) loadQueue() tea.Cmd {
	ctx, labels, cache := m.ctx, m.labels, m.cache
	return func() tea.Msg {
		queue, err := labels.Queue(ctx)
		if err != nil {
			return queueLoadedMsg(nil, 0, err)
		}
		incomplete, err := cache.Incomplete(ctx)
		return queueLoadedMsg(queue, len(incomplete), err)
	}
}

func (m *Model) addLabel(input string) tea.Cmd {
	ctx, labels, catalog := m.ctx, m.labels, m.catalog
	return func() tea.Msg {
		id, err := models.ParseLabelID(input)
		if err != nil {
			return labelAddedMsg(models.Label{}, err)
		}
		details, err := catalog.LabelDetails(ctx, id)
		if err != nil {
			return labelAddedMsg(models.Label{}, err)
		}
		label, err := labels.Enqueue(ctx, details.Label())
		return labelAddedMsg(label, err)
	}
}

func (m *Model) removeLabel(id string) tea.Cmd {
	ctx, labels := m.ctx, m.labels
	return tea.Sequence(func() tea.Msg {
		if _, err := labels.Remove(ctx, id); err != nil {
			return queueLoadedMsg(nil, 0, err)
		}
		return nil
	}, m.loadQueue())
}

// startRun launches the selected run in the background and returns the command that
// forwards its events.
func (m *Model) startRun() tea.Cmd {
	m.resetRun()
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.events = make(chan tasks.Event, eventBuffer)
	m.done = make(chan runComplete, 1)

	events, done := m.events, m.done
	kind, queue := m.kind, m.queue
	processor, cache := m.processor, m.cache

	go func() {
		defer close(events)
		notify := tasks.ChanNotifier(events)

		if kind == models.RunKindReleases {
			incomplete, err := cache.Incomplete(ctx)
			if err != nil {
				done <- runComplete{err: err}
				return
			}
			ids := make([]int64, len(incomplete))
			for i, r := range incomplete {
				ids[i] = r.ID
			}
			result, err := processor.RefreshReleases(ctx, ids, notify)
			done <- runComplete{result, err}
			return
		}

		result, err := processor.Run(ctx, queue, notify)
		done <- runComplete{result, err}
	}()

	return waitForEvent(events, done)
}

// waitForEvent delivers the next run event, or the run result once the event channel closes.
func waitForEvent(events <-chan tasks.Event, done <-chan runComplete) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			r := <-done
			return runCompleteMsg(r.result, r.err)
		}
		return runEventMsg(e)
	}
}

func (m *Model) renderQueue() string {
	helpKeys := []key.Binding{m.keys.process, m.keys.add, m.keys.remove, m.keys.missing, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	summary := styles.help.Render(fmt.Sprintf("%s queued • %s releases missing data",
		humanize.Comma(int64(len(m.queue))), humanize.Comma(int64(m.missing))))

	parts := []string{m.queueList.View(), summary}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, helpView)
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderAdd() string {
	title := styles.title.Render("Add a label to the queue")
	helpKeys := []key.Binding{m.keys.submit, m.keys.back}
	helpView := m.help.ShortHelpView(helpKeys)

	out := fmt.Sprintf("%s\n%s", title, m.input.View())
	if m.status != "" {
		out += "\n\n" + m.status
	}
	return fmt.Sprintf("%s\n\n%s", out, helpView)
}

func (m *Model) renderConfirm() string {
	var title, info string
	if m.kind == models.RunKindReleases {
		title = styles.title.Render("Re-fetch releases with missing data?")
		info = fmt.Sprintf("Releases: %s", humanize.Comma(int64(m.missing)))
	} else {
		title = styles.title.Render(fmt.Sprintf("Process %d labels?", len(m.queue)))
		names := make([]string, len(m.queue))
		for i, label := range m.queue {
			names[i] = "  • " + label.Name
		}
		info = strings.Join(names, "\n")
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderRun() string {
	title := "Processing label queue"
	if m.kind == models.RunKindReleases {
		title = "Re-fetching missing data"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	overall := fmt.Sprintf("Overall  %s", m.bar.ViewAs(m.overall.Ratio()))
	if m.kind == models.RunKindLabels && m.overall.Total > 0 {
		current := min(int(m.overall.Current)+1, m.overall.Total)
		overall += fmt.Sprintf("  label %d/%d", current, m.overall.Total)
	}
	b.WriteString(overall + "\n")

	if m.release.Total > 0 {
		fmt.Fprintf(&b, "Releases %s  %d/%d\n", m.bar.ViewAs(m.release.Ratio()), int(m.release.Current), m.release.Total)
	}

	b.WriteString("\n")
	if m.paused {
		b.WriteString(styles.warn.Render(m.message))
	} else {
		b.WriteString(m.message)
	}

	if n := len(m.failures); n > 0 {
		b.WriteString("\n\n")
		for _, f := range m.failures[max(n-maxFailures, 0):] {
			b.WriteString(styles.err.Render(f) + "\n")
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel, m.keys.quit})
	return b.String() + "\n\n" + helpView
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.runErr != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Run failed: %v", m.runErr)), helpView)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	r := m.result
	title := styles.ok.Render("✓ Run complete!")
	if r.Cancelled {
		title = styles.warn.Render("Run cancelled")
	}

	info := fmt.Sprintf(
		"\nLabels: %s\nFetched: %s\nFrom cache: %s\nSkipped: %s\nPauses: %s\nTook: %s",
		humanize.Comma(int64(r.Labels)),
		humanize.Comma(int64(r.Fetched)),
		humanize.Comma(int64(r.Cached)),
		humanize.Comma(int64(r.Skipped)),
		humanize.Comma(int64(r.Pauses)),
		r.Duration().Round(time.Second),
	)

	var failed string
	if len(r.Failures) > 0 {
		failed = "\n\n" + styles.warn.Render(fmt.Sprintf("Failed on %d labels:", len(r.Failures)))
		for _, f := range r.Failures {
			failed += fmt.Sprintf("\n  • %s (#%s): %s", f.Label.Name, f.Label.ID, f.Error)
		}
	}

	return styles.box.Render(title+info+failed) + "\n\n" + helpView
}

package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// Resolver applies one per-file choice and returns the updated task.
type Resolver func(fileID string, kind models.SourceKind, value string) (*models.Task, error)

// ViewState represents the current screen of the resolution TUI.
type ViewState int

const (
	FileListView ViewState = iota
	KindListView
	CustomDateView
)

var (
	_ list.Item = fileItem{}
	_ list.Item = kindItem{}
	_ tea.Model = (*ResolveModel)(nil)
)

// ResolveModel lets the user pick a disposition for each file of an analyzed task.
//
// Every choice goes through the [Resolver] as soon as it is made, so the task
// always holds what the screen shows.
type ResolveModel struct {
	task    models.Task
	resolve Resolver
	view    ViewState
	width   int
	height  int
	files   list.Model
	kinds   list.Model
	input   textinput.Model
	current models.FileEntry
	done    bool
	err     error
	help    help.Model
	keys    keyMap
}

// fileItem wraps [models.FileEntry] to implement [list.Item].
type fileItem struct {
	file models.FileEntry
}

func (i fileItem) FilterValue() string { return filepath.Base(i.file.Path) }
func (i fileItem) Title() string       { return filepath.Base(i.file.Path) }
func (i fileItem) Description() string { return choice(i.file.Disposition) }

// kindItem is one choice offered for a file.
type kindItem struct {
	kind models.SourceKind
	date time.Time
}

func (i kindItem) FilterValue() string { return string(i.kind) }
func (i kindItem) Title() string       { return string(i.kind) }
func (i kindItem) Description() string {
	switch i.kind {
	case models.KindIgnore:
		return "export with the current date"
	case models.KindDelete:
		return "remove the file"
	case models.KindCustom:
		return "enter a date"
	default:
		return shared.FormatDate(i.date)
	}
}

type resolvedMsg struct {
	task *models.Task
	err  error
}

// NewResolveModel creates the resolution TUI for task.
func NewResolveModel(task models.Task, resolve Resolver) *ResolveModel {
	input := textinput.New()
	input.Placeholder = "YYYY-MM-DD HH:MM:SS"

	return &ResolveModel{
		task:    task,
		resolve: resolve,
		view:    FileListView,
		files:   newList(fileItems(task.Files), fmt.Sprintf("Files of task %s", task.ID)),
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Task returns the task as last returned by the resolver.
func (m *ResolveModel) Task() models.Task { return m.task }

// Done reports whether the user finished rather than quit.
func (m *ResolveModel) Done() bool { return m.done }

// Screen returns the current view.
func (m *ResolveModel) Screen() ViewState { return m.view }

// Err returns the error of the last rejected choice.
func (m *ResolveModel) Err() error { return m.err }

func (m *ResolveModel) Init() tea.Cmd { return nil }

// Update handles incoming messages and updates the model state.
func (m *ResolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.files.SetSize(m.listSize())
		if m.view != FileListView {
			m.kinds.SetSize(m.listSize())
		}
		return m, nil

	case resolvedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.task = *msg.task
		m.view = FileListView
		m.input.Blur()
		return m, m.files.SetItems(fileItems(m.task.Files))

	case tea.KeyMsg:
		switch m.view {
		case FileListView:
			return m.handleFileKeys(msg)
		case KindListView:
			return m.handleKindKeys(msg)
		case CustomDateView:
			return m.handleCustomKeys(msg)
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *ResolveModel) View() string {
	var body string
	var helpKeys []key.Binding

	switch m.view {
	case KindListView:
		body = m.kinds.View()
		helpKeys = []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	case CustomDateView:
		body = fmt.Sprintf("%s\n\n%s", styles.Title("Date for "+filepath.Base(m.current.Path)), m.input.View())
		helpKeys = []key.Binding{m.keys.enter, m.keys.back}
	default:
		left := len(m.task.Unresolved())
		status := styles.OK(fmt.Sprintf("All %d files resolved", len(m.task.Files)))
		if left > 0 {
			status = styles.Warn(fmt.Sprintf("%d of %d files unresolved", left, len(m.task.Files)))
		}
		body = fmt.Sprintf("%s\n%s", m.files.View(), status)
		helpKeys = []key.Binding{m.keys.enter, m.keys.finish, m.keys.quit}
	}

	if m.err != nil {
		body = fmt.Sprintf("%s\n\n%s", body, styles.Err(fmt.Sprintf("Error: %v", m.err)))
	}
	return fmt.Sprintf("%s\n\n%s", body, m.help.ShortHelpView(helpKeys))
}

func (m *ResolveModel) handleFileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.finish):
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.files.SelectedItem().(fileItem); ok {
			m.openKinds(item.file)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.files, cmd = m.files.Update(msg)
	return m, cmd
}

func (m *ResolveModel) handleKindKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = FileListView
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.kinds.SelectedItem().(kindItem)
		if !ok {
			return m, nil
		}
		if item.kind == models.KindCustom {
			m.view = CustomDateView
			m.err = nil
			m.input.Reset()
			return m, m.input.Focus()
		}
		return m, m.apply(item.kind, "")
	}

	var cmd tea.Cmd
	m.kinds, cmd = m.kinds.Update(msg)
	return m, cmd
}

func (m *ResolveModel) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.input.Blur()
		m.view = KindListView
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.apply(models.KindCustom, strings.TrimSpace(m.input.Value()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// openKinds lists the candidates of f followed by the choices every file has.
func (m *ResolveModel) openKinds(f models.FileEntry) {
	items := make([]list.Item, 0, len(f.Candidates)+3)
	for _, k := range f.Kinds() {
		t, _ := f.Candidate(k)
		items = append(items, kindItem{kind: k, date: t})
	}
	items = append(items,
		kindItem{kind: models.KindIgnore},
		kindItem{kind: models.KindDelete},
		kindItem{kind: models.KindCustom},
	)

	m.current = f
	m.kinds = newList(items, "Date for "+filepath.Base(f.Path))
	m.kinds.SetSize(m.listSize())
	m.view = KindListView
	m.err = nil
}

func (m *ResolveModel) apply(kind models.SourceKind, value string) tea.Cmd {
	fileID := m.current.ID
	return func() tea.Msg {
		task, err := m.resolve(fileID, kind, value)
		return resolvedMsg{task: task, err: err}
	}
}

func (m *ResolveModel) listSize() (int, int) {
	return max(m.width-4, 20), max(m.height-8, 10)
}

func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

func fileItems(files []models.FileEntry) []list.Item {
	items := make([]list.Item, len(files))
	for i, f := range files {
		items[i] = fileItem{file: f}
	}
	return items
}

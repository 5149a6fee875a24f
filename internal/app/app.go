package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/readstate"
	appsync "github.com/nhle/taskboard/internal/sync"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/tracker"
	"github.com/nhle/taskboard/internal/ui"
	"github.com/nhle/taskboard/internal/ui/command"
	configview "github.com/nhle/taskboard/internal/ui/config"
	"github.com/nhle/taskboard/internal/ui/crform"
	"github.com/nhle/taskboard/internal/ui/crlist"
	helpview "github.com/nhle/taskboard/internal/ui/help"
	"github.com/nhle/taskboard/internal/ui/thread"
	"github.com/nhle/taskboard/internal/ui/todoboard"
	"github.com/nhle/taskboard/internal/ui/todoform"
)

// API is the part of the taskboard HTTP API the board uses.
type API interface {
	ListChangeRequests(ctx context.Context) ([]model.ChangeRequest, error)
	CreateChangeRequest(ctx context.Context, in model.NewChangeRequest) (*model.ChangeRequest, error)
	UpdateChangeRequest(ctx context.Context, id string, upd model.ChangeRequestUpdate) (*model.ChangeRequest, error)
	DeleteChangeRequest(ctx context.Context, id string) error
	ListComments(ctx context.Context, changeRequestID string) ([]model.Comment, error)
	PostComment(ctx context.Context, changeRequestID string, in model.NewComment) (*model.Comment, error)
	ListTodos(ctx context.Context, status string) ([]model.Todo, error)
	CreateTodo(ctx context.Context, in model.NewTodo) (*model.Todo, error)
	UpdateTodo(ctx context.Context, id string, upd model.TodoUpdate) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoard ViewState = iota
	ViewTodos
	ViewHelp
	ViewCommand
	ViewCRCreate
	ViewTodoForm
	ViewSettings
)

// threadWidthRatio is the share of the width given to an open thread.
const threadWidthRatio = 0.55

// Options holds the collaborators of the root model.
type Options struct {
	API     API
	Session *tracker.Session
	Poller  *appsync.Poller
	Unread  *appsync.UnreadPoller
	// Watcher is optional; without it read state written by other
	// sessions is picked up on the next restart only.
	Watcher    *appsync.Watcher
	Config     model.AppConfig
	ConfigPath string
	Health     configview.HealthCheck
	Logger     *log.Logger
}

// Model is the root Bubble Tea model that manages view routing, layout and
// the polling lifecycle.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	api     API
	session *tracker.Session
	poller  *appsync.Poller
	unread  *appsync.UnreadPoller
	watcher *appsync.Watcher
	logger  *log.Logger
	cfg     model.AppConfig
	author  string
	keys    *keys.KeyMap

	crList       crlist.Model
	thread       thread.Model
	crForm       crform.Model
	todoBoard    todoboard.Model
	todoForm     todoform.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView configview.Model

	ready       bool
	unreadTotal int
	errMsg      string
	notice      string
}

// New creates the root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()

	help := helpview.New(k, 80, 24)
	help.SetSession(
		opts.Config.Client.BaseURL,
		string(opts.Session.Permission()),
		opts.Poller.Interval(),
		opts.Config.UnreadInterval(),
	)

	return Model{
		currentView:  ViewBoard,
		api:          opts.API,
		session:      opts.Session,
		poller:       opts.Poller,
		unread:       opts.Unread,
		watcher:      opts.Watcher,
		logger:       opts.Logger,
		cfg:          opts.Config,
		author:       opts.Config.Client.Author,
		keys:         k,
		crList:       crlist.New(k, 80, 24),
		thread:       thread.New(k, 80, 24),
		crForm:       crform.New(80, 24),
		todoBoard:    todoboard.New(k, 80, 24),
		todoForm:     todoform.New(80, 24),
		helpView:     help,
		commandView:  command.New(80, 24),
		settingsView: configview.New(opts.Config, opts.ConfigPath, opts.Health, k, 80, 24),
	}
}

// Init loads the board and starts comment polling.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadChangeRequests(),
		m.loadTodos(),
		m.poller.Start(),
		scheduleListRefresh(),
	}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.WaitForChange())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case changeRequestsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("loading change requests", "err", msg.err)
			return m, nil
		}
		m.session.SetChangeRequests(msg.changeRequests)
		m.poller.SetChangeRequests(m.session.ChangeRequestIDs())
		if m.thread.ChangeRequestID() != "" && m.session.Expanded() == "" {
			m.thread.Clear()
			m.resize()
		}
		for _, cr := range msg.changeRequests {
			m.thread.SetChangeRequest(cr)
		}
		return m, m.refreshList()

	case listRefreshMsg:
		return m, tea.Batch(m.loadChangeRequests(), scheduleListRefresh())

	case appsync.CommentsMsg:
		if msg.Err != nil {
			m.session.ObserveFailure(msg.ChangeRequestID, msg.Err)
			return m, m.poller.WaitForNextResult()
		}
		if !m.session.Listed(msg.ChangeRequestID) {
			return m, m.poller.WaitForNextResult()
		}
		if n := m.session.ObserveComments(context.Background(), msg.ChangeRequestID, msg.Comments); n != nil {
			m.logger.Debug("notified", "change_request_id", n.ChangeRequestID, "comment_id", n.CommentID)
		}
		if m.thread.ChangeRequestID() == msg.ChangeRequestID {
			m.thread.SetComments(m.session.Comments(msg.ChangeRequestID))
		}
		return m, tea.Batch(m.refreshList(), m.poller.WaitForNextResult())

	case appsync.UnreadMsg:
		if msg.Err == nil {
			m.unreadTotal = msg.Total
		}
		return m, m.unread.WaitForNextResult()

	case appsync.ReadStateChangedMsg:
		m.session.ReloadReadState()
		if m.currentView == ViewTodos {
			m.unreadTotal = m.unread.Recompute().Total
		}
		var wait tea.Cmd
		if m.watcher != nil {
			wait = m.watcher.WaitForChange()
		}
		return m, tea.Batch(m.refreshList(), wait)

	case crlist.ToggleThreadMsg:
		return m, m.toggleThread(msg.ChangeRequestID)

	case thread.CloseMsg:
		m.session.Collapse()
		m.thread.Clear()
		m.resize()
		return m, m.refreshList()

	case thread.SubmitCommentMsg:
		return m, m.postComment(msg.ChangeRequestID, msg.Content)

	case commentPostedMsg:
		m.thread.FinishPost(msg.err)
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Posting comment failed: %v", msg.err)
			return m, nil
		}
		m.session.CommentPosted(*msg.comment)
		if m.thread.ChangeRequestID() == msg.changeRequestID {
			m.thread.SetComments(m.session.Comments(msg.changeRequestID))
		}
		m.poller.Refresh(msg.changeRequestID)
		return m, m.refreshList()

	case crform.SubmitMsg:
		m.currentView = ViewBoard
		return m, m.createChangeRequest(msg.ChangeRequest)

	case crform.CancelMsg:
		m.currentView = ViewBoard
		return m, nil

	case changeRequestSavedMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Saving change request failed: %v", msg.err)
			return m, nil
		}
		return m, m.loadChangeRequests()

	case changeRequestDeletedMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Deleting change request failed: %v", msg.err)
			return m, nil
		}
		if m.thread.ChangeRequestID() == msg.id {
			m.session.Collapse()
			m.thread.Clear()
			m.resize()
		}
		return m, m.loadChangeRequests()

	case permissionMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Saving notification permission failed: %v", msg.err)
			return m, nil
		}
		if msg.permission == notify.PermissionGranted {
			m.notice = "Desktop notifications enabled"
		} else {
			m.notice = "Desktop notifications are not available on this system"
		}
		m.helpView.SetSession(m.cfg.Client.BaseURL, string(msg.permission), m.poller.Interval(), m.cfg.UnreadInterval())
		return m, nil

	case todosLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("loading todos", "err", msg.err)
			return m, nil
		}
		m.todoBoard.SetTodos(msg.todos)
		return m, nil

	case todoboard.MoveMsg:
		return m, m.moveTodo(msg.TodoID, msg.Status)

	case todoboard.AddMsg:
		m.currentView = ViewTodoForm
		return m, m.todoForm.StartCreate()

	case todoboard.BlockMsg:
		m.currentView = ViewTodoForm
		return m, m.todoForm.StartBlockedReason(msg.Todo)

	case todoboard.DeleteMsg:
		return m, m.deleteTodo(msg.TodoID)

	case todoform.TodoSubmitMsg:
		m.currentView = ViewTodos
		return m, m.createTodo(msg.Todo)

	case todoform.BlockedReasonSubmitMsg:
		m.currentView = ViewTodos
		return m, m.setBlockedReason(msg.TodoID, msg.Reason)

	case todoform.CancelMsg:
		m.currentView = ViewTodos
		return m, nil

	case todoChangedMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("%s failed: %v", capitalize(msg.action), msg.err)
		}
		return m, m.loadTodos()

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = m.previousView
		return m, nil

	case configview.ConfigSavedMsg:
		m.cfg = msg.Config
		m.author = msg.Config.Client.Author
		return m, nil

	case tea.KeyMsg:
		m.errMsg = ""
		m.notice = ""

		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.capturesInput() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.currentView == ViewBoard || m.currentView == ViewTodos {
				return m, m.quit()
			}

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case msg.String() == ":":
			if m.currentView == ViewBoard || m.currentView == ViewTodos {
				m.previousView = m.currentView
				m.currentView = ViewCommand
				return m, m.commandView.Focus()
			}

		case key.Matches(msg, m.keys.Back):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}

		case key.Matches(msg, m.keys.TodoBoard):
			switch m.currentView {
			case ViewBoard:
				return m, m.showTodos()
			case ViewTodos:
				return m, m.showBoard()
			}

		case key.Matches(msg, m.keys.Notification):
			if m.currentView == ViewBoard || m.currentView == ViewTodos {
				return m, m.requestPermission()
			}
		}

		if m.currentView == ViewBoard {
			return m.handleBoardKeys(msg)
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturesInput reports whether a text field or form owns the keyboard.
func (m Model) capturesInput() bool {
	switch m.currentView {
	case ViewCommand, ViewCRCreate, ViewTodoForm, ViewSettings:
		return true
	case ViewBoard:
		return m.thread.Composing() || m.crList.Searching()
	}
	return false
}

// handleBoardKeys processes keys of the change request board that are not
// owned by the list or the thread.
func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.New):
		m.currentView = ViewCRCreate
		return m, m.crForm.Start()

	case key.Matches(msg, m.keys.CycleStatus):
		if cr, ok := m.crList.SelectedChangeRequest(); ok {
			return m, m.cycleStatus(cr)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if cr, ok := m.crList.SelectedChangeRequest(); ok {
			return m, m.deleteChangeRequest(cr.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if id := m.session.Expanded(); id != "" {
			m.poller.Refresh(id)
		}
		return m, m.loadChangeRequests()

	case key.Matches(msg, m.keys.Comment):
		if m.thread.ChangeRequestID() != "" {
			return m, m.thread.StartCompose()
		}
		cr, ok := m.crList.SelectedChangeRequest()
		if !ok {
			return m, nil
		}
		open := m.toggleThread(cr.ID)
		return m, tea.Batch(open, m.thread.StartCompose())

	case key.Matches(msg, m.keys.Back):
		if m.thread.ChangeRequestID() != "" {
			var cmd tea.Cmd
			m.thread, cmd = m.thread.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch msg.String() {
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.thread, cmd = m.thread.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.crList, cmd = m.crList.Update(msg)
	return m, cmd
}

// toggleThread opens the thread of id, or closes it when already open.
// Opening marks every fetched comment read; the ones that were unread
// keep a marker for this viewing.
func (m *Model) toggleThread(id string) tea.Cmd {
	comments := m.session.Comments(id)
	fresh := readstate.UnreadIDs(comments, m.session.ReadState(), id)

	if m.session.Toggle(id) {
		if cr, ok := m.session.ChangeRequest(id); ok {
			m.thread.SetThread(cr, comments, fresh)
		}
		m.poller.Refresh(id)
	} else {
		m.thread.Clear()
	}
	m.resize()
	return m.refreshList()
}

// showTodos switches to the todo board. Comment polling pauses there and
// the header falls back to the aggregate unread poll.
func (m *Model) showTodos() tea.Cmd {
	m.currentView = ViewTodos
	m.poller.Stop()
	m.unreadTotal = m.session.TotalUnread()
	return tea.Batch(m.loadTodos(), m.unread.Start())
}

// showBoard switches back to the change request board.
func (m *Model) showBoard() tea.Cmd {
	m.currentView = ViewBoard
	m.unread.Stop()
	m.session.ReloadReadState()
	return tea.Batch(m.loadChangeRequests(), m.poller.Start())
}

// quit stops every background loop and exits.
func (m Model) quit() tea.Cmd {
	m.poller.Stop()
	m.unread.Stop()
	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			m.logger.Warn("closing read state watcher", "err", err)
		}
	}
	return tea.Quit
}

// refreshList re-renders the list rows with current unread counts.
func (m *Model) refreshList() tea.Cmd {
	return m.crList.SetItems(
		m.session.ChangeRequests(),
		m.session.UnreadCounts(),
		m.session.Expanded(),
	)
}

// resize splits the content area between the list and an open thread.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()

	listWidth := w
	if m.thread.ChangeRequestID() != "" {
		threadWidth := int(float64(w) * threadWidthRatio)
		listWidth = w - threadWidth
		// Border and padding of the panel take six columns and four rows.
		m.thread.SetSize(threadWidth-6, h-4)
	}
	m.crList.SetSize(listWidth, h)
	m.crForm.SetSize(w, h)
	m.todoBoard.SetSize(w, h)
	m.todoForm.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.settingsView.SetSize(w, h)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewBoard:
		if m.thread.Composing() {
			m.thread, cmd = m.thread.Update(msg)
		} else {
			m.crList, cmd = m.crList.Update(msg)
		}
	case ViewTodos:
		m.todoBoard, cmd = m.todoBoard.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewCRCreate:
		m.crForm, cmd = m.crForm.Update(msg)
	case ViewTodoForm:
		m.todoForm, cmd = m.todoForm.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.headerBadges())

	var statusBar string
	switch {
	case m.errMsg != "":
		statusBar = m.layout.RenderErrorBar(m.errMsg)
	case m.notice != "":
		statusBar = m.layout.RenderStatusBar(m.notice)
	default:
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBoard:
		if m.thread.ChangeRequestID() == "" {
			return m.crList.View()
		}
		return lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.crList.View(),
			m.threadPanel(),
		)
	case ViewTodos:
		return m.todoBoard.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewCRCreate:
		return m.crForm.View()
	case ViewTodoForm:
		return m.todoForm.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

func (m Model) threadPanel() string {
	return theme.DetailPanelStyle.Render(m.thread.View())
}

func (m Model) headerTitle() string {
	if m.currentView == ViewTodos || (m.previousView == ViewTodos && m.currentView != ViewBoard) {
		return "Taskboard · Todos"
	}
	return "Taskboard · Change Requests"
}

// headerBadges returns the unread total, notification state and poll state.
func (m Model) headerBadges() string {
	total := m.unreadTotal
	if m.currentView != ViewTodos {
		total = m.session.TotalUnread()
	}

	parts := []string{}
	if total > 0 {
		parts = append(parts, fmt.Sprintf("%d unread", total))
	}
	if m.session.NotificationsEnabled() {
		parts = append(parts, "notifications on")
	} else {
		parts = append(parts, "notifications "+string(m.session.Permission()))
	}
	parts = append(parts, m.pollStatus())
	return strings.Join(parts, " · ")
}

// pollStatus returns a short string describing the comment poll state.
func (m Model) pollStatus() string {
	if m.currentView == ViewTodos {
		return "watching unread"
	}

	statuses := m.poller.GetStatuses()
	if len(statuses) == 0 {
		return "idle"
	}

	running, failing := 0, 0
	for _, s := range statuses {
		switch s.State {
		case appsync.FetchRunning:
			running++
		case appsync.FetchError:
			failing++
		}
	}

	if failing > 0 {
		return fmt.Sprintf("⚠ %d unreachable", failing)
	}
	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	return "live"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter run | tab complete | esc back"
	case ViewCRCreate, ViewTodoForm:
		return "enter submit | esc cancel"
	case ViewSettings:
		return "e edit | enter test | esc back"
	case ViewTodos:
		return "tab column | h/l move | a add | b blocked | x delete | t requests | q quit"
	}

	if m.thread.Composing() {
		return "enter send | esc cancel"
	}
	if m.thread.ChangeRequestID() != "" {
		return "enter toggle | c comment | esc close | pgup/pgdn scroll | s status | q quit"
	}
	return "enter open | n new | s status | d delete | / search | t todos | N notify | ? help | q quit"
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "refresh", "r":
		if m.currentView == ViewTodos {
			return m, m.loadTodos()
		}
		return m, m.loadChangeRequests()
	case "todos", "todo":
		if m.currentView != ViewTodos {
			return m, m.showTodos()
		}
		return m, nil
	case "requests", "board":
		if m.currentView != ViewBoard {
			return m, m.showBoard()
		}
		return m, nil
	case "notifications", "notify":
		return m, m.requestPermission()
	case "settings", "config":
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m, m.settingsView.Init()
	case "quit", "q":
		return m, m.quit()
	default:
		m.errMsg = fmt.Sprintf("Unknown command %q", cmd)
		return m, nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package app

import (
	"context"
	"errors"
	"io"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/localstore"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/readstate"
	appsync "github.com/nhle/taskboard/internal/sync"
	"github.com/nhle/taskboard/internal/tracker"
	"github.com/nhle/taskboard/internal/ui/crlist"
	"github.com/nhle/taskboard/internal/ui/thread"
	"github.com/nhle/taskboard/internal/ui/todoboard"
)

type fakeAPI struct {
	mu       gosync.Mutex
	crs      []model.ChangeRequest
	comments map[string][]model.Comment
	todos    []model.Todo
	posted   []model.NewComment
	updates  map[string]model.TodoUpdate
	postErr  error
	listed   map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		crs: []model.ChangeRequest{
			{ID: "r1", Title: "Dark mode", Status: model.CRStatusOpen, Priority: model.CRPriorityMedium},
			{ID: "r2", Title: "Export", Status: model.CRStatusInProgress, Priority: model.CRPriorityLow},
		},
		comments: map[string][]model.Comment{},
		updates:  map[string]model.TodoUpdate{},
		listed:   map[string]int{},
	}
}

func (f *fakeAPI) ListChangeRequests(context.Context) ([]model.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChangeRequest(nil), f.crs...), nil
}

func (f *fakeAPI) CreateChangeRequest(_ context.Context, in model.NewChangeRequest) (*model.ChangeRequest, error) {
	cr := model.ChangeRequest{ID: "new", Title: in.Title, Description: in.Description, Status: model.CRStatusOpen}
	f.mu.Lock()
	f.crs = append([]model.ChangeRequest{cr}, f.crs...)
	f.mu.Unlock()
	return &cr, nil
}

func (f *fakeAPI) UpdateChangeRequest(_ context.Context, id string, upd model.ChangeRequestUpdate) (*model.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.crs {
		if f.crs[i].ID == id {
			if upd.Status != nil {
				f.crs[i].Status = *upd.Status
			}
			cr := f.crs[i]
			return &cr, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) DeleteChangeRequest(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.crs {
		if f.crs[i].ID == id {
			f.crs = append(f.crs[:i], f.crs[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeAPI) ListComments(_ context.Context, id string) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed[id]++
	return f.comments[id], nil
}

func (f *fakeAPI) listCalls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listed[id]
}

func (f *fakeAPI) PostComment(_ context.Context, id string, in model.NewComment) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return nil, f.postErr
	}
	f.posted = append(f.posted, in)
	c := model.Comment{ID: "mine", ChangeRequestID: id, Author: in.Author, Content: in.Content}
	f.comments[id] = append(f.comments[id], c)
	return &c, nil
}

func (f *fakeAPI) ListTodos(context.Context, string) ([]model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Todo(nil), f.todos...), nil
}

func (f *fakeAPI) CreateTodo(_ context.Context, in model.NewTodo) (*model.Todo, error) {
	t := model.Todo{ID: "t-new", Title: in.Title, Status: model.TodoStatusTodo}
	f.mu.Lock()
	f.todos = append(f.todos, t)
	f.mu.Unlock()
	return &t, nil
}

func (f *fakeAPI) UpdateTodo(_ context.Context, id string, upd model.TodoUpdate) (*model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = upd
	return &model.Todo{ID: id}, nil
}

func (f *fakeAPI) DeleteTodo(context.Context, string) error { return nil }

type recorder struct {
	mu   gosync.Mutex
	sent []model.Notification
}

func (r *recorder) Supported() bool { return true }

func (r *recorder) Notify(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

type harness struct {
	m        Model
	api      *fakeAPI
	notifier *recorder
	session  *tracker.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := log.New(io.Discard)
	storage := localstore.NewMemory()
	perms := notify.NewPermissions(storage)
	require.NoError(t, perms.Save(notify.PermissionGranted))

	reads := readstate.NewStore(storage, logger)
	rec := &recorder{}
	session := tracker.New(reads, perms, rec, logger)
	api := newFakeAPI()

	poller := appsync.New(api, time.Hour, logger)
	unread := appsync.NewUnreadPoller(api, reads, time.Hour, logger)
	t.Cleanup(func() {
		poller.Stop()
		unread.Stop()
	})

	cfg := model.AppConfig{Client: model.ClientConfig{BaseURL: "http://localhost:8080", Author: "Local"}}
	m := New(Options{
		API:     api,
		Session: session,
		Poller:  poller,
		Unread:  unread,
		Config:  cfg,
		Logger:  logger,
	})

	h := &harness{m: m, api: api, notifier: rec, session: session}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.send(h.run(m.loadChangeRequests()))
	return h
}

// send feeds msg to the model and returns the resulting command.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// run executes a command that is expected to yield a single message.
func (h *harness) run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func (h *harness) key(s string) tea.Cmd {
	switch s {
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEsc})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func comments(ids ...string) []model.Comment {
	out := make([]model.Comment, len(ids))
	for i, id := range ids {
		out[i] = model.Comment{ID: id, ChangeRequestID: "r1", Author: "Remote", Content: "hi"}
	}
	return out
}

func TestLoadsChangeRequestsIntoSessionAndList(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{"r1", "r2"}, h.session.ChangeRequestIDs())

	cr, ok := h.m.crList.SelectedChangeRequest()
	require.True(t, ok)
	assert.Equal(t, "r1", cr.ID)
	assert.Contains(t, h.m.View(), "Dark mode")
}

func TestNewCommentNotifiesAndBadges(t *testing.T) {
	h := newHarness(t)

	h.send(appsync.CommentsMsg{ChangeRequestID: "r1"})
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1", Comments: comments("c1")})

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "Remote: hi", h.notifier.sent[0].Body)
	assert.Equal(t, 1, h.session.UnreadCount("r1"))
	assert.Contains(t, h.m.headerBadges(), "1 unread")
}

func TestOpeningThreadMarksRead(t *testing.T) {
	h := newHarness(t)
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1"})
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1", Comments: comments("c1")})

	h.send(h.run(h.key("enter")))
	assert.Equal(t, "r1", h.session.Expanded())
	assert.Equal(t, "r1", h.m.thread.ChangeRequestID())
	assert.Zero(t, h.session.UnreadCount("r1"))

	// New comments on the open thread neither notify nor count.
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1", Comments: comments("c1", "c2")})
	assert.Len(t, h.notifier.sent, 1)
	assert.Zero(t, h.session.UnreadCount("r1"))

	h.send(h.run(h.key("esc")))
	assert.Empty(t, h.session.Expanded())
	assert.Empty(t, h.m.thread.ChangeRequestID())
}

func TestPostedCommentIsSuppressed(t *testing.T) {
	h := newHarness(t)
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1", Comments: comments("c1")})

	h.key("c")
	require.True(t, h.m.thread.Composing())
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("on it")})
	submit := h.run(h.key("enter"))
	require.IsType(t, thread.SubmitCommentMsg{}, submit)

	h.send(h.run(h.send(submit)))
	require.Len(t, h.api.posted, 1)
	assert.Equal(t, model.NewComment{Author: "Local", Content: "on it"}, h.api.posted[0])
	assert.False(t, h.m.thread.Composing())

	h.send(thread.CloseMsg{})
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1", Comments: append(comments("c1"), model.Comment{ID: "mine", ChangeRequestID: "r1"})})
	assert.Empty(t, h.notifier.sent)
	assert.Zero(t, h.session.UnreadCount("r1"))
}

func TestPostedCommentRefetchesThread(t *testing.T) {
	h := newHarness(t)
	require.NotNil(t, h.m.poller.Start())
	assert.Eventually(t, func() bool { return h.api.listCalls("r1") == 1 }, time.Second, 5*time.Millisecond)

	h.send(crlist.ToggleThreadMsg{ChangeRequestID: "r1"})
	assert.Eventually(t, func() bool { return h.api.listCalls("r1") == 2 }, time.Second, 5*time.Millisecond)

	h.key("c")
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("on it")})
	submit := h.run(h.key("enter"))
	require.IsType(t, thread.SubmitCommentMsg{}, submit)
	h.send(h.run(h.send(submit)))
	require.Len(t, h.api.posted, 1)

	assert.Eventually(t, func() bool { return h.api.listCalls("r1") == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.api.listCalls("r2"), "only the commented thread is refetched")
}

func TestPostFailureShowsError(t *testing.T) {
	h := newHarness(t)
	h.api.postErr = errors.New("boom")

	h.send(crlist.ToggleThreadMsg{ChangeRequestID: "r1"})
	h.key("c")
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	submit := h.run(h.key("enter"))
	h.send(h.run(h.send(submit)))

	assert.Contains(t, h.m.errMsg, "boom")
	assert.True(t, h.m.thread.Composing())
	assert.Contains(t, h.m.View(), "Posting comment failed")
}

func TestCycleStatusReloads(t *testing.T) {
	h := newHarness(t)

	saved := h.run(h.key("s"))
	require.IsType(t, changeRequestSavedMsg{}, saved)
	h.send(h.run(h.send(saved)))

	cr, ok := h.session.ChangeRequest("r1")
	require.True(t, ok)
	assert.Equal(t, model.CRStatusInProgress, cr.Status)
}

func TestFailedFetchKeepsComments(t *testing.T) {
	h := newHarness(t)
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1", Comments: comments("c1")})
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1", Err: errors.New("timeout")})
	assert.Len(t, h.session.Comments("r1"), 1)
}

func TestResultsForUnlistedRequestsAreIgnored(t *testing.T) {
	h := newHarness(t)
	h.send(appsync.CommentsMsg{ChangeRequestID: "gone", Comments: comments("c1")})
	assert.False(t, h.session.HasComments("gone"))
}

func TestTodoBoardFlow(t *testing.T) {
	h := newHarness(t)
	h.api.todos = []model.Todo{{ID: "t1", Title: "Write docs", Status: model.TodoStatusTodo}}

	h.send(appsync.CommentsMsg{ChangeRequestID: "r1"})
	h.send(appsync.CommentsMsg{ChangeRequestID: "r1", Comments: comments("c1")})

	h.key("t")
	require.Equal(t, ViewTodos, h.m.currentView)
	assert.Equal(t, 1, h.m.unreadTotal)
	assert.Contains(t, h.m.View(), "Todos")

	h.send(h.run(h.m.loadTodos()))
	move := h.run(h.key("l"))
	require.Equal(t, todoboard.MoveMsg{TodoID: "t1", Status: model.TodoStatusInProgress}, move)
	h.send(h.run(h.send(move)))
	require.NotNil(t, h.api.updates["t1"].Status)
	assert.Equal(t, model.TodoStatusInProgress, *h.api.updates["t1"].Status)

	h.send(appsync.UnreadMsg{Total: 4})
	assert.Contains(t, h.m.headerBadges(), "4 unread")

	h.key("t")
	assert.Equal(t, ViewBoard, h.m.currentView)
}

func TestCommandPalette(t *testing.T) {
	h := newHarness(t)
	h.key(":")
	require.Equal(t, ViewCommand, h.m.currentView)

	// q is text while the palette has focus.
	h.key("q")
	assert.Equal(t, ViewCommand, h.m.currentView)

	h.send(h.run(h.key("esc")))
	assert.Equal(t, ViewBoard, h.m.currentView)

	_, cmd := h.m.executeCommand("nope")
	assert.Nil(t, cmd)
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t)
	h.key("?")
	assert.Equal(t, ViewHelp, h.m.currentView)
	assert.Contains(t, h.m.View(), "Keyboard Shortcuts")
	h.key("?")
	assert.Equal(t, ViewBoard, h.m.currentView)
}

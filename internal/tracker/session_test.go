package tracker

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/localstore"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/readstate"
)

type recorder struct {
	supported bool
	sent      []model.Notification
}

func (r *recorder) Supported() bool { return r.supported }

func (r *recorder) Notify(_ context.Context, n model.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type fixture struct {
	session  *Session
	notifier *recorder
	storage  *localstore.Memory
	reads    *readstate.Store
}

func newFixture(t *testing.T, perm notify.Permission) *fixture {
	t.Helper()
	logger := log.New(io.Discard)
	storage := localstore.NewMemory()
	perms := notify.NewPermissions(storage)
	require.NoError(t, perms.Save(perm))

	reads := readstate.NewStore(storage, logger)
	rec := &recorder{supported: true}
	s := New(reads, perms, rec, logger)
	s.SetChangeRequests([]model.ChangeRequest{{ID: "r1", Title: "Dark mode"}, {ID: "r2", Title: "Export"}})
	return &fixture{session: s, notifier: rec, storage: storage, reads: reads}
}

func c(id, author, content string) model.Comment {
	return model.Comment{ID: id, ChangeRequestID: "r1", Author: author, Content: content}
}

var ctx = context.Background()

func TestNewCommentOnCollapsedThreadNotifies(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)

	assert.Nil(t, f.session.ObserveComments(ctx, "r1", nil))
	n := f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")})

	require.NotNil(t, n)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Remote: hi", f.notifier.sent[0].Body)
	assert.Equal(t, 1, f.session.UnreadCount("r1"))
	assert.Equal(t, 1, f.session.TotalUnread())
}

func TestOwnCommentIsSuppressed(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)
	c1 := c("c1", "Remote", "hi")

	f.session.ObserveComments(ctx, "r1", nil)
	f.session.ObserveComments(ctx, "r1", []model.Comment{c1})
	require.Len(t, f.notifier.sent, 1)

	c2 := c("c2", "Me", "reply")
	f.session.CommentPosted(c2)
	assert.Equal(t, []model.Comment{c1, c2}, f.session.Comments("r1"))

	n := f.session.ObserveComments(ctx, "r1", []model.Comment{c1, c2})
	if n != nil {
		assert.NotEqual(t, "c2", n.CommentID)
	}
	for _, sent := range f.notifier.sent {
		assert.NotEqual(t, "c2", sent.CommentID, "own comment never notifies")
	}
	assert.Equal(t, 1, f.session.UnreadCount("r1"), "only c1 is unread")
	assert.True(t, f.reads.Load().Has("r1", "c2"), "own comment persisted as read")
}

func TestExpandedThreadMarksReadWithoutNotifying(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)

	f.session.ObserveComments(ctx, "r1", nil)
	f.session.Expand("r1")

	n := f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi"), c("c2", "Remote", "again")})
	assert.Nil(t, n)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, 0, f.session.UnreadCount("r1"))
	assert.ElementsMatch(t, []string{"c1", "c2"}, f.reads.Load()["r1"])
}

func TestFirstObservationNeverNotifies(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)

	n := f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")})
	assert.Nil(t, n)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, 1, f.session.UnreadCount("r1"))
}

func TestPermissionGatesDeliveryOnly(t *testing.T) {
	for _, perm := range []notify.Permission{notify.PermissionDefault, notify.PermissionDenied} {
		t.Run(string(perm), func(t *testing.T) {
			f := newFixture(t, perm)
			f.session.ObserveComments(ctx, "r1", nil)
			n := f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")})
			assert.Nil(t, n)
			assert.Empty(t, f.notifier.sent)
			assert.Equal(t, 1, f.session.UnreadCount("r1"))
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		f := newFixture(t, notify.PermissionGranted)
		f.notifier.supported = false
		f.session.ObserveComments(ctx, "r1", nil)
		assert.Nil(t, f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")}))
		assert.False(t, f.session.NotificationsEnabled())
	})
}

func TestToggleAndExpandMarkRead(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)
	f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")})
	f.session.ObserveComments(ctx, "r2", []model.Comment{{ID: "d1", ChangeRequestID: "r2"}})
	assert.Equal(t, map[string]int{"r1": 1, "r2": 1}, f.session.UnreadCounts())

	assert.True(t, f.session.Toggle("r1"))
	assert.Equal(t, "r1", f.session.Expanded())
	assert.Equal(t, 0, f.session.UnreadCount("r1"))
	assert.Equal(t, 1, f.session.TotalUnread())

	assert.True(t, f.session.Toggle("r2"), "opening another thread moves the selection")
	assert.Equal(t, "r2", f.session.Expanded())
	assert.False(t, f.session.Toggle("r2"))
	assert.Equal(t, "", f.session.Expanded())
	assert.Equal(t, 0, f.session.TotalUnread())
}

func TestExpandMarksReadDespiteDuplicateStoredIDs(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)
	require.NoError(t, f.storage.Set(readstate.StorageKey, []byte(`{"r1":["c1","c1"]}`)))
	f.session.ReloadReadState()

	f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi"), c("c2", "Remote", "again")})
	require.Equal(t, 1, f.session.UnreadCount("r1"))

	f.session.Expand("r1")
	assert.Equal(t, 0, f.session.UnreadCount("r1"))
	assert.True(t, f.reads.Load().Has("r1", "c2"), "new id persisted")
}

func TestConcurrentTogglesLeaveConsistentState(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)
	f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.session.Toggle("r1")
		}()
	}
	wg.Wait()

	assert.Equal(t, "", f.session.Expanded(), "an even number of toggles closes the thread")
	assert.Equal(t, 0, f.session.UnreadCount("r1"))
}

func TestReloadReadStatePicksUpOtherSessions(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)
	f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")})
	require.Equal(t, 1, f.session.TotalUnread())

	other := readstate.NewStore(f.storage, log.New(io.Discard))
	require.NoError(t, other.Save(readstate.State{"r1": {"c1"}}))

	f.session.ReloadReadState()
	assert.Equal(t, 0, f.session.TotalUnread())
}

func TestFailureKeepsPriorComments(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)
	f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")})
	f.session.ObserveFailure("r1", assert.AnError)
	assert.Len(t, f.session.Comments("r1"), 1)
}

func TestSetChangeRequestsDropsRemoved(t *testing.T) {
	f := newFixture(t, notify.PermissionGranted)
	f.session.ObserveComments(ctx, "r1", []model.Comment{c("c1", "Remote", "hi")})
	f.session.Expand("r1")

	f.session.SetChangeRequests([]model.ChangeRequest{{ID: "r2"}})
	assert.Nil(t, f.session.Comments("r1"))
	assert.Equal(t, "", f.session.Expanded())
	assert.Equal(t, []string{"r2"}, f.session.ChangeRequestIDs())
}

func TestRequestPermission(t *testing.T) {
	f := newFixture(t, notify.PermissionDefault)
	assert.Equal(t, notify.PermissionDefault, f.session.Permission())

	perm, err := f.session.RequestPermission()
	require.NoError(t, err)
	assert.Equal(t, notify.PermissionGranted, perm)
	assert.True(t, f.session.NotificationsEnabled())

	stored, err := notify.NewPermissions(f.storage).Load()
	require.NoError(t, err)
	assert.Equal(t, notify.PermissionGranted, stored)
}

func TestLookupHelpers(t *testing.T) {
	f := newFixture(t, notify.PermissionDefault)

	cr, ok := f.session.ChangeRequest("r2")
	require.True(t, ok)
	assert.Equal(t, "Export", cr.Title)
	_, ok = f.session.ChangeRequest("nope")
	assert.False(t, ok)

	assert.True(t, f.session.Listed("r1"))
	assert.False(t, f.session.Listed("nope"))

	assert.False(t, f.session.HasComments("r1"))
	f.session.ObserveComments(ctx, "r1", nil)
	assert.True(t, f.session.HasComments("r1"))
}

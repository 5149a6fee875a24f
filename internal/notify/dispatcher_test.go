package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/readstate"
)

func comment(id, author, content string) model.Comment {
	return model.Comment{ID: id, ChangeRequestID: "r1", Author: author, Content: content}
}

func TestObserveFirstNonEmptyNeverNotifies(t *testing.T) {
	d := NewDispatcher()

	n := d.Observe("r1", []model.Comment{comment("c1", "Remote", "hi")}, false, readstate.State{})
	assert.Nil(t, n)
	assert.True(t, d.HasBaseline("r1"))
	assert.Equal(t, "c1", d.LastSeen("r1"))
}

func TestObserveNewCommentAfterEmptyBaseline(t *testing.T) {
	d := NewDispatcher()

	assert.Nil(t, d.Observe("r1", nil, false, readstate.State{}))
	assert.True(t, d.HasBaseline("r1"))

	n := d.Observe("r1", []model.Comment{comment("c1", "Remote", "hi")}, false, readstate.State{})
	require.NotNil(t, n)
	assert.Equal(t, "New comment", n.Title)
	assert.Equal(t, "Remote: hi", n.Body)
	assert.Equal(t, "c1", n.CommentID)
	assert.Equal(t, "r1", n.ChangeRequestID)
}

func TestObserveUnchangedLatestDoesNotNotify(t *testing.T) {
	d := NewDispatcher()
	list := []model.Comment{comment("c1", "Remote", "hi")}

	d.Observe("r1", nil, false, readstate.State{})
	require.NotNil(t, d.Observe("r1", list, false, readstate.State{}))
	assert.Nil(t, d.Observe("r1", list, false, readstate.State{}))
}

func TestObserveExpandedThreadDoesNotNotify(t *testing.T) {
	d := NewDispatcher()

	d.Observe("r1", nil, false, readstate.State{})
	n := d.Observe("r1", []model.Comment{comment("c1", "Remote", "hi")}, true, readstate.State{})
	assert.Nil(t, n)
	assert.Equal(t, "c1", d.LastSeen("r1"))
}

func TestObserveSuppressedOwnComment(t *testing.T) {
	d := NewDispatcher()
	c1 := comment("c1", "Remote", "hi")
	c2 := comment("c2", "Me", "reply")

	d.Observe("r1", []model.Comment{c1}, false, readstate.State{})

	d.Suppress("c2")
	read := readstate.MarkRead(readstate.State{}, "r1", []string{"c2"})

	n := d.Observe("r1", []model.Comment{c1, c2}, false, read)
	require.NotNil(t, n, "c1 is still unread and eligible")
	assert.Equal(t, "c1", n.CommentID)
	assert.True(t, d.IsSuppressed("c2"), "read comments are not scanned")
}

func TestObserveSuppressedAndReadOwnCommentOnly(t *testing.T) {
	d := NewDispatcher()
	c1 := comment("c1", "Remote", "hi")
	c2 := comment("c2", "Me", "reply")

	d.Observe("r1", []model.Comment{c1}, false, readstate.State{})
	read := readstate.State{"r1": {"c1"}}

	d.Suppress("c2")
	n := d.Observe("r1", []model.Comment{c1, c2}, false, read)
	assert.Nil(t, n)
	assert.False(t, d.IsSuppressed("c2"), "suppression is one-shot")
}

func TestObserveNewestEligibleWins(t *testing.T) {
	d := NewDispatcher()
	c1 := comment("c1", "Remote", "one")
	c2 := comment("c2", "Remote", "two")
	c3 := comment("c3", "Remote", "three")
	c4 := comment("c4", "Me", "mine")

	d.Observe("r1", []model.Comment{c1}, false, readstate.State{"r1": {"c1"}})
	d.Suppress("c4")

	n := d.Observe("r1", []model.Comment{c1, c2, c3, c4}, false, readstate.State{"r1": {"c1"}})
	require.NotNil(t, n)
	assert.Equal(t, "c3", n.CommentID)
	assert.Equal(t, "Remote: three", n.Body)
	assert.False(t, d.IsSuppressed("c4"))
}

func TestObserveRequestsAreIndependent(t *testing.T) {
	d := NewDispatcher()

	d.Observe("r1", nil, false, readstate.State{})
	assert.False(t, d.HasBaseline("r2"))

	n := d.Observe("r2", []model.Comment{comment("x1", "Remote", "hi")}, false, readstate.State{})
	assert.Nil(t, n, "first observation of r2")

	d.Forget("r1")
	assert.False(t, d.HasBaseline("r1"))
}

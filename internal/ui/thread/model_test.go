package thread

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
)

func newThread() Model {
	m := New(keys.DefaultKeyMap(), 60, 30)
	m.SetThread(
		model.ChangeRequest{ID: "cr1", Title: "Export CSV", Status: model.CRStatusOpen, Priority: model.CRPriorityLow},
		[]model.Comment{
			{ID: "c1", ChangeRequestID: "cr1", Author: "Remote", Content: "hi"},
			{ID: "c2", ChangeRequestID: "cr1", Author: "Local", Content: "hello"},
		},
		[]string{"c1"},
	)
	return m
}

func TestRenderShowsCommentsAndFreshMarker(t *testing.T) {
	m := newThread()
	out := m.renderContent()
	assert.Contains(t, out, "Export CSV")
	assert.Contains(t, out, "Comments (2)")
	assert.Contains(t, out, "Remote")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "new")
}

func TestEscClosesThread(t *testing.T) {
	m := newThread()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}

func TestComposeSubmitsTrimmedContent(t *testing.T) {
	m := newThread()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.True(t, m.Composing())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("  looks good ")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SubmitCommentMsg{ChangeRequestID: "cr1", Content: "looks good"}, cmd())
	assert.True(t, m.Posting())

	// A second enter while the post is pending is ignored.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	m.FinishPost(nil)
	assert.False(t, m.Composing())
	assert.False(t, m.Posting())
}

func TestComposeKeepsTextOnFailure(t *testing.T) {
	m := newThread()
	m.StartCompose()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("retry me")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.FinishPost(assert.AnError)
	assert.True(t, m.Composing())
	assert.Equal(t, "retry me", m.input.Value())
}

func TestBlankCommentIsNotSent(t *testing.T) {
	m := newThread()
	m.StartCompose()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("   ")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestClear(t *testing.T) {
	m := newThread()
	assert.Equal(t, "cr1", m.ChangeRequestID())
	m.Clear()
	assert.Empty(t, m.ChangeRequestID())
	assert.Nil(t, m.StartCompose())
}

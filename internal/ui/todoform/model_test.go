package todoform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
)

func TestValidateOptionalDate(t *testing.T) {
	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate(" 2024-06-30 "))
	assert.Error(t, validateOptionalDate("30/06/2024"))
	assert.Error(t, validateOptionalDate("2024-02-30"))
}

func TestCreateSubmission(t *testing.T) {
	m := New(80, 24)
	m.StartCreate()
	assert.Equal(t, ModeCreate, m.Mode())
	assert.Contains(t, m.View(), "New Todo")

	m.fb.title = " Ship it "
	msg := m.handleSubmit()().(TodoSubmitMsg)
	assert.Equal(t, "Ship it", msg.Todo.Title)
	assert.Nil(t, msg.Todo.TargetDate)

	m.fb.targetDate = "2024-06-30"
	msg = m.handleSubmit()().(TodoSubmitMsg)
	require.NotNil(t, msg.Todo.TargetDate)
	assert.Equal(t, "2024-06-30", *msg.Todo.TargetDate)
}

func TestBlockedReasonPrefillsAndSubmits(t *testing.T) {
	m := New(80, 24)
	m.StartBlockedReason(model.Todo{ID: "t1", Title: "Deploy", BlockedReason: "Waiting on API access"})

	assert.Equal(t, ModeBlockedReason, m.Mode())
	assert.Equal(t, "Waiting on API access", m.fb.reason)
	assert.Contains(t, m.View(), "Blocked Reason")

	m.fb.reason = "  Waiting on final approval\n"
	msg := m.handleSubmit()().(BlockedReasonSubmitMsg)
	assert.Equal(t, BlockedReasonSubmitMsg{TodoID: "t1", Reason: "Waiting on final approval"}, msg)
}

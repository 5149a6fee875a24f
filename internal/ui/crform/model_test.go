package crform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
)

func TestValidateRequired(t *testing.T) {
	v := validateRequired("Title")
	assert.EqualError(t, v("  "), "Title is required")
	assert.NoError(t, v("x"))
}

func TestStartResetsFields(t *testing.T) {
	m := New(80, 24)
	m.fb.title = "stale"
	m.fb.priority = model.CRPriorityHigh

	m.Start()
	require.NotNil(t, m.form)
	assert.Empty(t, m.fb.title)
	assert.Equal(t, model.CRPriorityMedium, m.fb.priority)
	assert.Contains(t, m.View(), "New Change Request")
}

func TestSubmissionTrims(t *testing.T) {
	m := New(80, 24)
	m.fb.title = "  Dark mode "
	m.fb.description = "\nplease\n"
	m.fb.priority = model.CRPriorityLow

	assert.Equal(t, model.NewChangeRequest{
		Title:       "Dark mode",
		Description: "please",
		Priority:    model.CRPriorityLow,
	}, m.submission())
}

func TestUpdateWithoutFormIsNoop(t *testing.T) {
	m := New(80, 24)
	_, cmd := m.Update(nil)
	assert.Nil(t, cmd)
	assert.Empty(t, m.View())
}

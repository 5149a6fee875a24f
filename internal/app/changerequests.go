package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
)

// listRefreshInterval is how often the change request list itself is
// reloaded so requests created elsewhere show up.
const listRefreshInterval = 30 * time.Second

// requestTimeout bounds user-initiated API calls.
const requestTimeout = 15 * time.Second

// changeRequestsLoadedMsg carries a fresh change request list.
type changeRequestsLoadedMsg struct {
	changeRequests []model.ChangeRequest
	err            error
}

// changeRequestSavedMsg is sent after a change request is created or updated.
type changeRequestSavedMsg struct {
	changeRequest *model.ChangeRequest
	err           error
}

// changeRequestDeletedMsg is sent after a change request is deleted.
type changeRequestDeletedMsg struct {
	id  string
	err error
}

// commentPostedMsg is sent after a comment is posted.
type commentPostedMsg struct {
	changeRequestID string
	comment         *model.Comment
	err             error
}

// permissionMsg carries the outcome of a notification permission request.
type permissionMsg struct {
	permission notify.Permission
	err        error
}

// listRefreshMsg triggers a reload of the change request list.
type listRefreshMsg struct{}

func (m Model) loadChangeRequests() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		crs, err := api.ListChangeRequests(ctx)
		return changeRequestsLoadedMsg{changeRequests: crs, err: err}
	}
}

func scheduleListRefresh() tea.Cmd {
	return tea.Tick(listRefreshInterval, func(time.Time) tea.Msg {
		return listRefreshMsg{}
	})
}

func (m Model) createChangeRequest(in model.NewChangeRequest) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cr, err := api.CreateChangeRequest(ctx, in)
		return changeRequestSavedMsg{changeRequest: cr, err: err}
	}
}

// cycleStatus moves a change request to the next status in display order.
func (m Model) cycleStatus(cr model.ChangeRequest) tea.Cmd {
	api := m.api
	next := model.NextCRStatus(cr.Status)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		updated, err := api.UpdateChangeRequest(ctx, cr.ID, model.ChangeRequestUpdate{Status: &next})
		return changeRequestSavedMsg{changeRequest: updated, err: err}
	}
}

func (m Model) deleteChangeRequest(id string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return changeRequestDeletedMsg{id: id, err: api.DeleteChangeRequest(ctx, id)}
	}
}

func (m Model) postComment(changeRequestID, content string) tea.Cmd {
	api := m.api
	in := model.NewComment{Author: m.author, Content: content}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		c, err := api.PostComment(ctx, changeRequestID, in)
		return commentPostedMsg{changeRequestID: changeRequestID, comment: c, err: err}
	}
}

func (m Model) requestPermission() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		perm, err := session.RequestPermission()
		return permissionMsg{permission: perm, err: err}
	}
}

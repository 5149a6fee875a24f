// Package tracker holds the state of an open change request board: the
// comments fetched for each request, the local read state, which thread is
// open and the notification dispatcher deciding what to announce.
package tracker

import (
	"context"
	gosync "sync"

	"github.com/charmbracelet/log"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/readstate"
)

// Session is the board state shared by the TUI and headless consumers.
// It is safe for concurrent use.
type Session struct {
	reads      *readstate.Store
	perms      *notify.Permissions
	notifier   notify.Notifier
	dispatcher *notify.Dispatcher
	logger     *log.Logger

	mu             gosync.Mutex
	changeRequests []model.ChangeRequest
	comments       map[string][]model.Comment
	state          readstate.State
	expanded       string
	permission     notify.Permission
}

// New creates a Session, loading the persisted read state and notification
// permission.
func New(
	reads *readstate.Store,
	perms *notify.Permissions,
	notifier notify.Notifier,
	logger *log.Logger,
) *Session {
	perm, err := perms.Load()
	if err != nil {
		logger.Warn("loading notification permission", "err", err)
	}
	return &Session{
		reads:      reads,
		perms:      perms,
		notifier:   notifier,
		dispatcher: notify.NewDispatcher(),
		logger:     logger,
		comments:   make(map[string][]model.Comment),
		state:      reads.Load(),
		permission: perm,
	}
}

// SetChangeRequests replaces the listed change requests. Comments and
// dispatcher history of requests that disappeared are dropped.
func (s *Session) SetChangeRequests(crs []model.ChangeRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.changeRequests = append([]model.ChangeRequest(nil), crs...)
	live := make(map[string]bool, len(crs))
	for _, cr := range crs {
		live[cr.ID] = true
	}
	for id := range s.comments {
		if !live[id] {
			delete(s.comments, id)
			s.dispatcher.Forget(id)
		}
	}
	if s.expanded != "" && !live[s.expanded] {
		s.expanded = ""
	}
}

// ChangeRequests returns the listed change requests.
func (s *Session) ChangeRequests() []model.ChangeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChangeRequest(nil), s.changeRequests...)
}

// ChangeRequestIDs returns the ids of the listed change requests.
func (s *Session) ChangeRequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.changeRequests))
	for i, cr := range s.changeRequests {
		ids[i] = cr.ID
	}
	return ids
}

// ChangeRequest returns a listed change request by id.
func (s *Session) ChangeRequest(id string) (model.ChangeRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cr := range s.changeRequests {
		if cr.ID == id {
			return cr, true
		}
	}
	return model.ChangeRequest{}, false
}

// Listed reports whether id is among the listed change requests.
func (s *Session) Listed(id string) bool {
	_, ok := s.ChangeRequest(id)
	return ok
}

// HasComments reports whether comments of id have been fetched at least once.
func (s *Session) HasComments(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.comments[id]
	return ok
}

// ObserveComments records a fresh comment list for a change request, runs
// the notification dispatcher over it and, when the thread is open, marks
// every comment read. It returns the notification that was raised, if any.
func (s *Session) ObserveComments(
	ctx context.Context,
	changeRequestID string,
	comments []model.Comment,
) *model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments[changeRequestID] = comments
	expanded := s.expanded == changeRequestID

	n := s.dispatcher.Observe(changeRequestID, comments, expanded, s.state)

	if expanded {
		s.markReadLocked(changeRequestID, readstate.CommentIDs(comments))
	}

	if n == nil {
		return nil
	}
	if !s.notificationsEnabledLocked() {
		s.logger.Debug("notification withheld",
			"change_request_id", changeRequestID, "comment_id", n.CommentID, "permission", s.permission)
		return nil
	}
	if err := s.notifier.Notify(ctx, *n); err != nil {
		s.logger.Warn("showing notification", "change_request_id", changeRequestID, "err", err)
		return nil
	}
	return n
}

// ObserveFailure logs a failed fetch. The comments of the last successful
// fetch stay in place.
func (s *Session) ObserveFailure(changeRequestID string, err error) {
	s.logger.Warn("comment fetch failed", "change_request_id", changeRequestID, "err", err)
}

// Comments returns the last fetched comments of a change request.
func (s *Session) Comments(changeRequestID string) []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comments[changeRequestID]
}

// Expand opens a thread and marks its visible comments read. At most one
// thread is open at a time.
func (s *Session) Expand(changeRequestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expanded = changeRequestID
	s.markReadLocked(changeRequestID, readstate.CommentIDs(s.comments[changeRequestID]))
}

// Collapse closes the open thread.
func (s *Session) Collapse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = ""
}

// Toggle opens the thread of changeRequestID, or closes it when it is
// already open. It reports whether the thread is open afterwards.
func (s *Session) Toggle(changeRequestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expanded == changeRequestID {
		s.expanded = ""
		return false
	}
	s.expanded = changeRequestID
	s.markReadLocked(changeRequestID, readstate.CommentIDs(s.comments[changeRequestID]))
	return true
}

// Expanded returns the id of the open thread, or "".
func (s *Session) Expanded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

// CommentPosted records a comment the local user just created so that it
// neither notifies nor counts as unread, and shows it in the thread right
// away.
func (s *Session) CommentPosted(c model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatcher.Suppress(c.ID)
	s.markReadLocked(c.ChangeRequestID, []string{c.ID})

	for _, existing := range s.comments[c.ChangeRequestID] {
		if existing.ID == c.ID {
			return
		}
	}
	thread := append([]model.Comment(nil), s.comments[c.ChangeRequestID]...)
	s.comments[c.ChangeRequestID] = append(thread, c)
}

// UnreadCount returns the number of unread comments of a change request.
func (s *Session) UnreadCount(changeRequestID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readstate.UnreadCount(s.comments[changeRequestID], s.state, changeRequestID)
}

// UnreadCounts returns the unread count of every change request with
// fetched comments.
func (s *Session) UnreadCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(s.comments))
	for id, comments := range s.comments {
		counts[id] = readstate.UnreadCount(comments, s.state, id)
	}
	return counts
}

// TotalUnread returns the unread count summed over all change requests.
func (s *Session) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readstate.TotalUnread(s.comments, s.state)
}

// ReadState returns the current read state.
func (s *Session) ReadState() readstate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ReloadReadState re-reads the persisted read state, picking up changes
// made by other sessions.
func (s *Session) ReloadReadState() {
	state := s.reads.Load()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Permission returns the current notification permission.
func (s *Session) Permission() notify.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// NotificationsEnabled reports whether a notification would be shown.
func (s *Session) NotificationsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notificationsEnabledLocked()
}

func (s *Session) notificationsEnabledLocked() bool {
	return s.permission == notify.PermissionGranted && s.notifier != nil && s.notifier.Supported()
}

// RequestPermission asks for notification permission. Call it only in
// response to an explicit user action.
func (s *Session) RequestPermission() (notify.Permission, error) {
	perm, err := s.perms.Request(s.notifier)
	if err != nil {
		return s.Permission(), err
	}

	s.mu.Lock()
	s.permission = perm
	s.mu.Unlock()
	return perm, nil
}

// markReadLocked merges ids into the read set and persists the result
// when any of them was unread. The caller holds s.mu.
func (s *Session) markReadLocked(changeRequestID string, ids []string) {
	if len(ids) == 0 {
		return
	}
	read := s.state.ReadSet(changeRequestID)
	missing := false
	for _, id := range ids {
		if _, ok := read[id]; !ok {
			missing = true
			break
		}
	}
	if !missing {
		return
	}

	next := readstate.MarkRead(s.state, changeRequestID, ids)
	s.state = next
	if err := s.reads.Save(next); err != nil {
		s.logger.Error("saving read state", "change_request_id", changeRequestID, "err", err)
	}
}

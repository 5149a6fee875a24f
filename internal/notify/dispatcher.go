// Package notify decides when a newly observed comment deserves a desktop
// notification and delivers it.
package notify

import (
	"sync"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/readstate"
)

// Dispatcher tracks, per change request, the latest comment seen by the
// previous fetch, plus the set of comment ids that must not notify.
type Dispatcher struct {
	mu         sync.Mutex
	lastSeen   map[string]string
	baseline   map[string]bool
	suppressed map[string]struct{}
}

// NewDispatcher returns a Dispatcher with no history.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		lastSeen:   make(map[string]string),
		baseline:   make(map[string]bool),
		suppressed: make(map[string]struct{}),
	}
}

// Suppress keeps commentID from triggering a notification the next time a
// scan considers it. Used for comments the local user just posted.
func (d *Dispatcher) Suppress(commentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suppressed[commentID] = struct{}{}
}

// IsSuppressed reports whether commentID is still waiting in the
// suppression set.
func (d *Dispatcher) IsSuppressed(commentID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.suppressed[commentID]
	return ok
}

// HasBaseline reports whether at least one fetch of changeRequestID has
// been observed.
func (d *Dispatcher) HasBaseline(changeRequestID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.baseline[changeRequestID]
}

// LastSeen returns the latest comment id recorded for changeRequestID.
func (d *Dispatcher) LastSeen(changeRequestID string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen[changeRequestID]
}

// Observe processes a freshly fetched comment list for a change request
// and returns the notification to raise, or nil.
//
// The first observation of a request only records a baseline. Later
// observations notify when the latest comment changed, the thread is not
// open, and some unread comment is not suppressed. The newest eligible
// comment wins. Every unread comment scanned leaves the suppression set.
func (d *Dispatcher) Observe(
	changeRequestID string,
	comments []model.Comment,
	expanded bool,
	read readstate.State,
) *model.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(comments) == 0 {
		d.baseline[changeRequestID] = true
		d.lastSeen[changeRequestID] = ""
		return nil
	}

	latest := comments[len(comments)-1]
	prev := d.lastSeen[changeRequestID]
	d.lastSeen[changeRequestID] = latest.ID

	first := !d.baseline[changeRequestID]
	d.baseline[changeRequestID] = true

	if first || prev == latest.ID {
		return nil
	}
	if expanded {
		return nil
	}

	readSet := read.ReadSet(changeRequestID)
	var target *model.Comment
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if _, ok := readSet[c.ID]; ok {
			continue
		}
		_, suppressed := d.suppressed[c.ID]
		delete(d.suppressed, c.ID)
		if target == nil && !suppressed {
			target = &comments[i]
		}
	}
	if target == nil {
		return nil
	}

	n := model.NewCommentNotification(*target)
	return &n
}

// Forget drops the history of a change request that is no longer listed.
func (d *Dispatcher) Forget(changeRequestID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.lastSeen, changeRequestID)
	delete(d.baseline, changeRequestID)
}

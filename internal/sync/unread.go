package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/readstate"
)

// DefaultUnreadInterval is the aggregate unread poll period when none is
// configured.
const DefaultUnreadInterval = 6 * time.Second

// UnreadMsg is a tea.Msg carrying the aggregate unread count.
type UnreadMsg struct {
	Total int
	// Err is set when the change request list itself could not be fetched.
	Err error
}

// ChangeRequestSource lists change requests and their comments.
type ChangeRequestSource interface {
	CommentFetcher
	ListChangeRequests(ctx context.Context) ([]model.ChangeRequest, error)
}

// UnreadPoller periodically recomputes the total number of unread comments
// across all change requests. It backs the header badge on screens that do
// not show the change request board.
type UnreadPoller struct {
	source   ChangeRequestSource
	reads    *readstate.Store
	interval time.Duration
	logger   *log.Logger

	mu       gosync.Mutex
	comments map[string][]model.Comment
	running  bool
	stopCh   chan struct{}
	resultCh chan UnreadMsg
}

// NewUnreadPoller creates an UnreadPoller. A non-positive interval falls
// back to DefaultUnreadInterval.
func NewUnreadPoller(
	source ChangeRequestSource,
	reads *readstate.Store,
	interval time.Duration,
	logger *log.Logger,
) *UnreadPoller {
	if interval <= 0 {
		interval = DefaultUnreadInterval
	}
	return &UnreadPoller{
		source:   source,
		reads:    reads,
		interval: interval,
		logger:   logger,
		comments: make(map[string][]model.Comment),
		resultCh: make(chan UnreadMsg, 1),
	}
}

// Poll fetches every change request's comments and returns the total
// unread count against the persisted read state. A request whose fetch
// fails keeps the comments of its last successful fetch.
func (u *UnreadPoller) Poll(ctx context.Context) UnreadMsg {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	crs, err := u.source.ListChangeRequests(fetchCtx)
	if err != nil {
		u.logger.Error("listing change requests", "err", err)
		return UnreadMsg{Total: u.total(), Err: err}
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for _, cr := range crs {
		g.Go(func() error {
			comments, err := u.source.ListComments(fetchCtx, cr.ID)
			if err != nil {
				u.logger.Error("fetching comments", "change_request_id", cr.ID, "err", err)
				return nil
			}
			u.mu.Lock()
			u.comments[cr.ID] = comments
			u.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	live := make(map[string]bool, len(crs))
	for _, cr := range crs {
		live[cr.ID] = true
	}
	u.mu.Lock()
	for id := range u.comments {
		if !live[id] {
			delete(u.comments, id)
		}
	}
	u.mu.Unlock()

	return UnreadMsg{Total: u.total()}
}

// Recompute returns the total against the latest read state without any
// network traffic. Used when another session changes the read state.
func (u *UnreadPoller) Recompute() UnreadMsg {
	return UnreadMsg{Total: u.total()}
}

func (u *UnreadPoller) total() int {
	state := u.reads.Load()

	u.mu.Lock()
	defer u.mu.Unlock()
	return readstate.TotalUnread(u.comments, state)
}

// Run polls immediately and then once per interval until ctx is done,
// handing every result to fn. It is the headless counterpart of Start.
func (u *UnreadPoller) Run(ctx context.Context, fn func(UnreadMsg)) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	fn(u.Poll(ctx))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(u.Poll(ctx))
		}
	}
}

// Start launches the poll loop and returns a tea.Cmd that waits for the
// first result. Starting a running poller is a no-op.
func (u *UnreadPoller) Start() tea.Cmd {
	u.mu.Lock()
	if u.running {
		u.mu.Unlock()
		return nil
	}
	u.running = true
	stopCh := make(chan struct{})
	u.stopCh = stopCh
	u.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stopCh
		cancel()
	}()
	go u.Run(ctx, func(msg UnreadMsg) {
		select {
		case <-stopCh:
			return
		default:
		}
		// Only the latest total matters.
		select {
		case <-u.resultCh:
		default:
		}
		select {
		case u.resultCh <- msg:
		default:
		}
	})

	return u.waitForResult(stopCh)
}

// Stop halts the poll loop.
func (u *UnreadPoller) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.running {
		return
	}
	close(u.stopCh)
	u.running = false
}

func (u *UnreadPoller) waitForResult(stopCh chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-u.resultCh:
			return msg
		case <-stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next unread total.
func (u *UnreadPoller) WaitForNextResult() tea.Cmd {
	u.mu.Lock()
	stopCh := u.stopCh
	running := u.running
	u.mu.Unlock()

	if !running {
		return nil
	}
	return u.waitForResult(stopCh)
}

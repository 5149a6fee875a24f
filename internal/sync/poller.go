package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/taskboard/internal/model"
)

// FetchState represents the current state of a comment fetch.
type FetchState int

const (
	FetchIdle FetchState = iota
	FetchRunning
	FetchError
)

// FetchStatus holds the fetch state for a single change request.
type FetchStatus struct {
	ChangeRequestID string
	State           FetchState
	LastFetch       time.Time
	Error           error
}

// CommentsMsg is a tea.Msg sent when a comment fetch completes. On error
// Comments is nil and the receiver keeps what it had.
type CommentsMsg struct {
	ChangeRequestID string
	Comments        []model.Comment
	Err             error
}

// CommentFetcher retrieves a change request's comments, oldest first.
type CommentFetcher interface {
	ListComments(ctx context.Context, changeRequestID string) ([]model.Comment, error)
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// maxConcurrentFetches bounds the fetches of one poll cycle.
const maxConcurrentFetches = 8

// DefaultCommentInterval is the comment poll period when none is configured.
const DefaultCommentInterval = 4 * time.Second

// Poller re-fetches the comments of every known change request on an
// interval. Results are delivered as CommentsMsg through a tea.Cmd.
type Poller struct {
	fetcher  CommentFetcher
	interval time.Duration
	logger   *log.Logger

	mu        gosync.Mutex
	ids       []string
	pending   []string
	statuses  map[string]*FetchStatus
	running   bool
	stopCh    chan struct{}
	syncCh    chan struct{}
	triggerCh chan string
	resultCh  chan CommentsMsg
}

// New creates a Poller. A non-positive interval falls back to
// DefaultCommentInterval.
func New(fetcher CommentFetcher, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultCommentInterval
	}
	return &Poller{
		fetcher:   fetcher,
		interval:  interval,
		logger:    logger,
		statuses:  make(map[string]*FetchStatus),
		syncCh:    make(chan struct{}, 1),
		triggerCh: make(chan string, 16),
		resultCh:  make(chan CommentsMsg, 64),
	}
}

// Interval returns the poll period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// SetChangeRequests replaces the set of polled change requests. Ids not
// polled before are fetched right away, concurrently; the rest wait for
// the next cycle.
func (p *Poller) SetChangeRequests(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ids = append([]string(nil), ids...)
	keep := make(map[string]bool, len(ids))
	added := false
	for _, id := range ids {
		keep[id] = true
		if _, ok := p.statuses[id]; !ok {
			p.statuses[id] = &FetchStatus{ChangeRequestID: id, State: FetchIdle}
			p.pending = append(p.pending, id)
			added = true
		}
	}
	for id := range p.statuses {
		if !keep[id] {
			delete(p.statuses, id)
		}
	}

	if added {
		select {
		case p.syncCh <- struct{}{}:
		default:
		}
	}
}

// Running reports whether the poll loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start launches the poll loop, which fetches everything immediately and
// then once per interval, and returns a tea.Cmd that waits for the first
// result. Starting a running poller is a no-op.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.mu.Unlock()

	go p.loop(stopCh)

	return p.waitForResult(stopCh)
}

// Stop halts the poll loop. Fetches still in flight finish but their
// results are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false

	for {
		select {
		case <-p.resultCh:
		default:
			return
		}
	}
}

// Refresh triggers an immediate fetch of one change request.
func (p *Poller) Refresh(changeRequestID string) {
	select {
	case p.triggerCh <- changeRequestID:
	default:
		// Channel full; the next tick covers it.
	}
}

// GetStatuses returns the fetch status of every polled change request.
func (p *Poller) GetStatuses() []FetchStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]FetchStatus, 0, len(p.ids))
	for _, id := range p.ids {
		if s, ok := p.statuses[id]; ok {
			statuses = append(statuses, *s)
		}
	}
	return statuses
}

func (p *Poller) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetchAll(stopCh)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.fetchAll(stopCh)
		case <-p.syncCh:
			p.fetchIDs(stopCh, p.takePending())
		case id := <-p.triggerCh:
			p.fetch(stopCh, id)
		}
	}
}

// fetchAll fetches every change request. It also satisfies any pending
// first fetches.
func (p *Poller) fetchAll(stopCh chan struct{}) {
	p.mu.Lock()
	ids := append([]string(nil), p.ids...)
	p.pending = nil
	p.mu.Unlock()

	p.fetchIDs(stopCh, ids)
}

// takePending returns the change requests awaiting their first fetch that
// are still polled, and clears the queue.
func (p *Poller) takePending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.pending))
	for _, id := range p.pending {
		if _, ok := p.statuses[id]; ok {
			ids = append(ids, id)
		}
	}
	p.pending = nil
	return ids
}

// fetchIDs fetches ids concurrently. Failures are reported per request and
// never abort the batch.
func (p *Poller) fetchIDs(stopCh chan struct{}, ids []string) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for _, id := range ids {
		g.Go(func() error {
			p.fetch(stopCh, id)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Poller) fetch(stopCh chan struct{}, id string) {
	p.setStatus(id, FetchRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	comments, err := p.fetcher.ListComments(ctx, id)
	if err != nil {
		p.logger.Error("fetching comments", "change_request_id", id, "err", err)
		p.setStatus(id, FetchError, err)
		p.sendResult(stopCh, CommentsMsg{ChangeRequestID: id, Err: err})
		return
	}

	p.setStatus(id, FetchIdle, nil)
	p.sendResult(stopCh, CommentsMsg{ChangeRequestID: id, Comments: comments})
}

// setStatus updates the fetch status for a change request.
func (p *Poller) setStatus(id string, state FetchState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[id]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == FetchIdle && err == nil {
		status.LastFetch = time.Now()
	}
}

// sendResult hands msg to the view unless the loop that produced it has
// been stopped.
func (p *Poller) sendResult(stopCh chan struct{}, msg CommentsMsg) {
	select {
	case <-stopCh:
		return
	default:
	}

	select {
	case p.resultCh <- msg:
	case <-stopCh:
	}
}

// waitForResult returns a tea.Cmd that waits for the next result. It
// yields nil once the poller is stopped.
func (p *Poller) waitForResult(stopCh chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next comment
// result. Call it after processing a CommentsMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	p.mu.Lock()
	stopCh := p.stopCh
	running := p.running
	p.mu.Unlock()

	if !running {
		return nil
	}
	return p.waitForResult(stopCh)
}

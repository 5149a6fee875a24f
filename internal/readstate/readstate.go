// Package readstate persists which comments the local user has seen and
// derives unread counts from it.
package readstate

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/nhle/taskboard/internal/localstore"
)

// StorageKey is the key the read state is stored under.
const StorageKey = "ralph-change-request-read-comments"

// State maps a change request id to the ids of its comments that have been
// read. Treat a State as immutable: MarkRead returns a new value.
type State map[string][]string

// Has reports whether commentID is recorded as read for changeRequestID.
func (s State) Has(changeRequestID, commentID string) bool {
	for _, id := range s[changeRequestID] {
		if id == commentID {
			return true
		}
	}
	return false
}

// ReadSet returns the read ids of a change request as a set.
func (s State) ReadSet(changeRequestID string) map[string]struct{} {
	ids := s[changeRequestID]
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// MarkRead returns a state in which the read set of changeRequestID is the
// union of its previous set and ids. The input is never modified. With no
// ids the input state itself is returned.
func MarkRead(state State, changeRequestID string, ids []string) State {
	if len(ids) == 0 {
		return state
	}

	next := make(State, len(state)+1)
	for k, v := range state {
		next[k] = v
	}

	prev := state[changeRequestID]
	seen := make(map[string]struct{}, len(prev)+len(ids))
	merged := make([]string, 0, len(prev)+len(ids))
	for _, id := range prev {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	next[changeRequestID] = merged
	return next
}

// Store loads and saves the read state through a localstore.Storage.
type Store struct {
	storage localstore.Storage
	logger  *log.Logger
}

// NewStore returns a Store persisting through storage.
func NewStore(storage localstore.Storage, logger *log.Logger) *Store {
	return &Store{storage: storage, logger: logger}
}

// Load returns the persisted read state. Missing or malformed data yields
// an empty state; Load never fails.
func (s *Store) Load() State {
	data, ok, err := s.storage.Get(StorageKey)
	if err != nil {
		s.logger.Warn("reading read state", "err", err)
		return State{}
	}
	if !ok {
		return State{}
	}
	return Parse(data)
}

// Save serialises the whole state and overwrites the stored value.
func (s *Store) Save(state State) error {
	if state == nil {
		state = State{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding read state: %w", err)
	}
	if err := s.storage.Set(StorageKey, data); err != nil {
		return fmt.Errorf("saving read state: %w", err)
	}
	return nil
}

// Parse decodes stored read state leniently. Anything that is not a JSON
// object becomes an empty state; entries that are not arrays are dropped
// and non-string array items are filtered out.
func Parse(data []byte) State {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return State{}
	}

	state := make(State, len(raw))
	for crID, entry := range raw {
		var items []interface{}
		if err := json.Unmarshal(entry, &items); err != nil || items == nil {
			continue
		}
		ids := make([]string, 0, len(items))
		for _, item := range items {
			if id, ok := item.(string); ok {
				ids = append(ids, id)
			}
		}
		state[crID] = ids
	}
	return state
}

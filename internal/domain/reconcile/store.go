package reconcile

import (
	"sort"
	"sync"
	"time"
)

// Message is a transcript entry as seen by the reconciliation store.
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// key is the content-identity used for deduplication. Two messages with
// the same role and exact text are considered the same message.
func (m Message) key() string {
	return m.Role + "-" + m.Content
}

// Store merges optimistic local messages with authoritative server state
// without duplication or loss. Local messages are cleared only after the
// authoritative list has confirmed them for a settle window, which absorbs
// read-after-write races with the backing store.
type Store struct {
	mu          sync.Mutex
	local       []Message
	savedInput  string
	settleSince time.Time
	settling    bool
	settleDelay time.Duration
	clock       func() time.Time
}

// NewStore creates a store. A nil clock defaults to time.Now.
func NewStore(settleDelay time.Duration, clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{settleDelay: settleDelay, clock: clock}
}

// Begin records the optimistic user message for a new turn together with
// the raw input text so a failed send can restore it.
func (s *Store) Begin(input string, message Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = append(s.local, message)
	s.savedInput = input
	s.settling = false
}

// Add records an additional optimistic message.
func (s *Store) Add(message Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = append(s.local, message)
	s.settling = false
}

// Merge computes the displayed list from the authoritative state. An empty
// authoritative list yields the local messages alone. Otherwise the result
// is the authoritative list plus any local messages not already present by
// content identity, sorted by timestamp ascending.
func (s *Store) Merge(authoritative []Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(authoritative) == 0 {
		return append([]Message(nil), s.local...)
	}

	seen := make(map[string]bool, len(authoritative))
	for _, message := range authoritative {
		seen[message.key()] = true
	}

	merged := append([]Message(nil), authoritative...)
	allConfirmed := true
	for _, message := range s.local {
		if !seen[message.key()] {
			merged = append(merged, message)
			allConfirmed = false
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	s.advanceSettle(allConfirmed && len(authoritative) >= len(s.local))
	return merged
}

// advanceSettle tracks how long the authoritative state has fully covered
// the local buffer and clears it once the settle window elapses.
func (s *Store) advanceSettle(confirmed bool) {
	if !confirmed || len(s.local) == 0 {
		s.settling = false
		return
	}

	now := s.clock()
	if !s.settling {
		s.settling = true
		s.settleSince = now
		return
	}
	if now.Sub(s.settleSince) >= s.settleDelay {
		s.local = nil
		s.savedInput = ""
		s.settling = false
	}
}

// Rollback drops the optimistic messages of the current turn and returns
// the saved input text so the caller can restore it.
func (s *Store) Rollback() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := s.savedInput
	s.local = nil
	s.savedInput = ""
	s.settling = false
	return input
}

// Pending returns a copy of the not-yet-confirmed messages.
func (s *Store) Pending() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.local...)
}

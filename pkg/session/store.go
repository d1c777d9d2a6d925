// Package session holds ephemeral, TTL-expiring interactive state for
// paginated result browsing and raw-text copy flows, keyed by an
// opaque session id.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for session lifecycle.
var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sessions_active",
		Help: "Sessions currently live in the store",
	})

	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessions_total",
		Help: "Session lifecycle events by outcome",
	}, []string{"event"}) // created, expired, consumed, deleted
)

// ErrExpired indicates the session is gone: past its TTL, already
// consumed, or never existed. Readers cannot tell these apart by
// design.
var ErrExpired = errors.New("session expired")

// DefaultTTL is the fixed session lifetime. There is no renewal on
// read.
const DefaultTTL = 5 * time.Minute

// Kind tags what a session holds.
type Kind string

const (
	// KindPagination holds a paginated offer list with a cursor.
	KindPagination Kind = "pagination"

	// KindRawCopy holds raw derived text for copy-out.
	KindRawCopy Kind = "raw-copy"
)

// Session is one live entry. Owned exclusively by the store.
type Session struct {
	ID        string
	Kind      Kind
	Payload   any
	CreatedAt time.Time
}

// Store is the ephemeral session store. Every create schedules an
// unconditional delete at TTL regardless of access pattern.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cancels  map[string]CancelFunc
	ttl      time.Duration
	sched    Scheduler
	logger   zerolog.Logger
}

// NewStore creates a store with the given TTL and scheduler. Zero ttl
// means DefaultTTL; nil scheduler means the wall clock.
func NewStore(ttl time.Duration, sched Scheduler, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sched == nil {
		sched = WallClock{}
	}
	return &Store{
		sessions: make(map[string]*Session),
		cancels:  make(map[string]CancelFunc),
		ttl:      ttl,
		sched:    sched,
		logger:   logger.With().Str("component", "session-store").Logger(),
	}
}

// Create stores a new session. The id normally derives from the
// triggering interaction; an empty id gets a generated UUID. Ids are
// never reused: creating over a live id fails.
func (s *Store) Create(kind Kind, id string, payload any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return "", fmt.Errorf("session id %q already live", id)
	}

	s.sessions[id] = &Session{
		ID:        id,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	// Unconditional delete at TTL, tied to creation, not to reads.
	s.cancels[id] = s.sched.AfterFunc(s.ttl, func() {
		s.expire(id)
	})

	sessionsActive.Inc()
	sessionsTotal.WithLabelValues("created").Inc()
	s.logger.Debug().Str("session_id", id).Str("kind", string(kind)).Msg("Session created")
	return id, nil
}

// Get returns the session payload. A missing id reads as already
// expired.
func (s *Store) Get(id string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrExpired
	}
	return sess.Payload, nil
}

// Consume returns the payload and deletes the session immediately,
// regardless of remaining TTL. Selections are single-use.
func (s *Store) Consume(id string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrExpired
	}
	s.removeLocked(id)
	sessionsTotal.WithLabelValues("consumed").Inc()
	s.logger.Debug().Str("session_id", id).Msg("Session consumed")
	return sess.Payload, nil
}

// Delete removes a session if present. Idempotent.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return
	}
	s.removeLocked(id)
	sessionsTotal.WithLabelValues("deleted").Inc()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// expire is the scheduled TTL cleanup.
func (s *Store) expire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return
	}
	s.removeLocked(id)
	sessionsTotal.WithLabelValues("expired").Inc()
	s.logger.Debug().Str("session_id", id).Msg("Session expired")
}

// removeLocked deletes the session and stops its timer. Caller holds
// the lock.
func (s *Store) removeLocked(id string) {
	delete(s.sessions, id)
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	sessionsActive.Dec()
}

// update applies fn to a live session's payload under the lock.
func (s *Store) update(id string, fn func(sess *Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrExpired
	}
	return fn(sess)
}

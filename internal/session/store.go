package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const cleanupInterval = time.Minute

// Store keeps report sessions in memory and drops them after an idle TTL.
// Nothing is persisted; a restart starts every technician from an empty form.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*ReportSession
	profile   Profile
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	cleanupWg sync.WaitGroup
}

// NewStore creates a session store and starts its cleanup loop.
// A non-positive ttl disables expiry.
func NewStore(profile Profile, ttl time.Duration, logger *zap.Logger) *Store {
	store := &Store{
		sessions: make(map[string]*ReportSession),
		profile:  profile,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	store.cleanupWg.Add(1)
	go store.cleanupLoop()

	return store
}

// Create starts a new empty session with a random id
func (s *Store) Create() *ReportSession {
	sess := New(uuid.NewString(), s.profile, s.now)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	s.logger.Debug("Created report session", zap.String("session_id", sess.ID()))
	return sess
}

// Get returns a live session and refreshes its idle timer
func (s *Store) Get(id string) (*ReportSession, bool) {
	s.mu.RLock()
	sess, exists := s.sessions[id]
	s.mu.RUnlock()
	if !exists || s.expired(sess) {
		return nil, false
	}
	sess.touch()
	return sess, true
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown or expired
func (s *Store) GetOrCreate(id string) (*ReportSession, bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Len returns the number of sessions held, expired or not
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *ReportSession) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(sess.idleSince()) > s.ttl
}

func (s *Store) cleanupLoop() {
	defer s.cleanupWg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

// cleanup removes expired sessions
func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiredCount := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		s.logger.Debug("Cleaned up expired sessions",
			zap.Int("count", expiredCount),
			zap.Int("remaining", len(s.sessions)),
		)
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.cleanupWg.Wait()
	s.logger.Info("Session store stopped")
}

package profile

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"bankprofile/internal/domain/identity"
)

// Session is one mounted editor owned by a user.
type Session struct {
	ID        string
	UserID    string
	Editor    *Editor
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen is the time of the most recent access through Sessions.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// DefaultMaxSessionsPerUser caps mounted editors per user when no limit is configured.
const DefaultMaxSessionsPerUser = 5

type SessionsConfig struct {
	SavedFlagDelay time.Duration
	IdleTTL        time.Duration
	MaxPerUser     int
}

// Sessions keeps the mounted editors and unmounts idle ones.
type Sessions struct {
	store Store
	hub   *Hub
	cfg   SessionsConfig
	log   *zap.Logger
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSessions(store Store, hub *Hub, cfg SessionsConfig, log *zap.Logger) *Sessions {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SavedFlagDelay <= 0 {
		cfg.SavedFlagDelay = DefaultSavedFlagDelay
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = DefaultMaxSessionsPerUser
	}
	return &Sessions{
		store:    store,
		hub:      hub,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stopChan: make(chan struct{}),
	}
}

// Open mounts a new editor for ident and loads its record. It fails with
// ErrTooManySessions once the user has MaxPerUser editors mounted.
func (s *Sessions) Open(ctx context.Context, ident identity.Identity) (*Session, error) {
	id := ulid.Make().String()
	editor := NewEditor(
		s.store,
		identity.Static(ident),
		WithSavedFlagDelay(s.cfg.SavedFlagDelay),
		WithLogger(s.log.With(zap.String("session_id", id))),
	)
	if s.hub != nil {
		hub := s.hub
		editor.OnChange(func(v EditorView) {
			hub.Publish(id, NewViewEvent(id, v))
		})
	}

	now := s.now()
	sess := &Session{
		ID:        id,
		UserID:    ident.ID,
		Editor:    editor,
		CreatedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	if s.countLocked(ident.ID) >= s.cfg.MaxPerUser {
		s.mu.Unlock()
		editor.Close()
		return nil, ErrTooManySessions
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.Info("editor session opened", zap.String("session_id", id), zap.String("user_id", ident.ID))

	if err := editor.Load(ctx); err != nil {
		s.remove(id)
		editor.Close()
		return nil, err
	}
	return sess, nil
}

// Get returns the session if it exists and belongs to userID.
func (s *Sessions) Get(id, userID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	sess.touch(s.now())
	return sess, nil
}

// Close unmounts the session.
func (s *Sessions) Close(id, userID string) error {
	sess, err := s.Get(id, userID)
	if err != nil {
		return err
	}
	s.remove(sess.ID)
	s.dispose(sess)
	return nil
}

// Len returns the number of mounted sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep unmounts sessions idle for longer than the configured TTL and returns
// how many were closed. A session with a websocket subscriber counts as active.
func (s *Sessions) Sweep(now time.Time) int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}

	var idle []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if s.hub != nil && s.hub.Subscribers(id) > 0 {
			sess.touch(now)
			continue
		}
		if now.Sub(sess.LastSeen()) > s.cfg.IdleTTL {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.dispose(sess)
	}
	return len(idle)
}

// CloseAll unmounts every session.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range all {
		s.dispose(sess)
	}
}

// Run sweeps idle sessions every interval until ctx is done or Stop is called.
// Remaining sessions are closed on exit.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	s.log.Info("starting editor session sweeper", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.CloseAll()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.log.Info("closed idle editor sessions", zap.Int("count", n))
			}
		case <-s.stopChan:
			s.log.Info("stopping editor session sweeper")
			return
		case <-ctx.Done():
			s.log.Info("context cancelled, stopping editor session sweeper")
			return
		}
	}
}

func (s *Sessions) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Sessions) countLocked(userID string) int {
	n := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Sessions) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Sessions) dispose(sess *Session) {
	sess.Editor.Close()
	if s.hub != nil {
		s.hub.CloseSession(sess.ID)
	}
	s.log.Info("editor session closed", zap.String("session_id", sess.ID), zap.String("user_id", sess.UserID))
}

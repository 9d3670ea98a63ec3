package service

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ibreez3/lawbot/metrics"
	"github.com/ibreez3/lawbot/settings"
)

// Manager owns every open session. All sessions share one Sender, and through it one
// rate limiter.
type Manager struct {
	sender        Sender
	store         settings.Store
	fallback      string
	transcriptDir string
	log           *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(sender Sender, store settings.Store) *Manager {
	return &Manager{
		sender:   sender,
		store:    store,
		log:      slog.Default(),
		sessions: map[string]*Session{},
	}
}

// WithFallbackCredential sets the key used when the settings store has none.
func (m *Manager) WithFallbackCredential(cred string) *Manager {
	m.fallback = cred
	return m
}

// WithTranscriptDir enables per-session transcript files under dir.
func (m *Manager) WithTranscriptDir(dir string) *Manager {
	m.transcriptDir = dir
	return m
}

func (m *Manager) WithLogger(l *slog.Logger) *Manager {
	if l != nil {
		m.log = l
	}
	return m
}

func (m *Manager) Store() settings.Store { return m.store }

func (m *Manager) Create() *Session {
	id := uuid.NewString()
	var tl *TranscriptLogger
	if m.transcriptDir != "" {
		var err error
		tl, err = NewTranscriptLogger(m.transcriptDir, id)
		if err != nil {
			m.log.Warn("Transcript disabled", "session", id, "error", err)
		}
	}
	s := newSession(id, m.sender, m.store, m.fallback, tl, m.log)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()
	m.log.Info("Session created", "session", id)
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	metrics.ActiveSessions.Dec()
	m.log.Info("Session deleted", "session", id)
	return nil
}

// List returns sessions oldest first.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

package leads

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo — Repo в памяти, для тестов и локального прогона без Postgres.
type MemoryRepo struct {
	mu       sync.Mutex
	sessions map[int64]*memorySession
}

type memorySession struct {
	turns      []Turn
	status     Status
	lastUpdate time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{sessions: make(map[int64]*memorySession)}
}

func (m *MemoryRepo) GetHistory(_ context.Context, userID int64) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out, nil
}

func (m *MemoryRepo) AppendTurn(_ context.Context, userID int64, turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreate(userID).append(turn)
	return nil
}

func (m *MemoryRepo) SetStatus(_ context.Context, userID int64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[userID]; ok {
		sess.status = status
		sess.lastUpdate = time.Now()
	}
	return nil
}

func (m *MemoryRepo) RecordExchange(_ context.Context, userID int64, turns []Turn, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getOrCreate(userID)
	for _, t := range turns {
		sess.append(t)
	}
	sess.status = status
	return nil
}

// Status — текущий статус сессии (для тестов); false, если сессии нет
func (m *MemoryRepo) Status(userID int64) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return "", false
	}
	return sess.status, true
}

// Sessions — число созданных сессий
func (m *MemoryRepo) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryRepo) getOrCreate(userID int64) *memorySession {
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &memorySession{status: StatusAIActive}
		m.sessions[userID] = sess
	}
	return sess
}

func (s *memorySession) append(t Turn) {
	s.turns = append(s.turns, t)
	s.lastUpdate = time.Now()
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memoryEntry struct {
	session  Session
	deadline time.Time
}

// MemoryStore はプロセス内のマップにセッションを保持します。単一インスタンス構成向けです。
type MemoryStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entries map[string]memoryEntry
}

// NewMemoryStore は MemoryStore を作成します。clock が nil なら実時間を使います。
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock:   clock,
		entries: make(map[string]memoryEntry),
	}
}

// Get はセッションを返します。TTL を過ぎたエントリは削除して nil を返します。
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if !s.clock.Now().Before(entry.deadline) {
		delete(s.entries, id)
		return nil, nil
	}
	sess := entry.session
	return &sess, nil
}

// Set はセッションを保存します。
func (s *MemoryStore) Set(ctx context.Context, sess *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sess.ID] = memoryEntry{
		session:  *sess,
		deadline: s.clock.Now().Add(ttl),
	}
	return nil
}

// Delete はセッションを削除します。期限切れのエントリは削除済みとして扱います。
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	delete(s.entries, id)
	return s.clock.Now().Before(entry.deadline), nil
}

// Len は保持しているエントリ数を返します（期限切れを含む）。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep は期限切れのエントリを削除し、削除した件数を返します。
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for id, entry := range s.entries {
		if !now.Before(entry.deadline) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// RunSweeper は ctx が終了するまで interval ごとに Sweep を実行します。
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Sweep()
		}
	}
}

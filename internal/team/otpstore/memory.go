package otpstore

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
)

type Memory struct {
	mu    sync.Mutex
	codes map[string]domain.OneTimeCode
	now   func() time.Time
}

// NewMemory returns an in-process store. now may be nil.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{codes: make(map[string]domain.OneTimeCode), now: now}
}

func (m *Memory) Set(_ context.Context, c domain.OneTimeCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for email, old := range m.codes {
		if old.Expired(now) {
			delete(m.codes, email)
		}
	}
	if c.Expired(now) {
		delete(m.codes, c.Email)
		return nil
	}
	m.codes[c.Email] = c
	return nil
}

func (m *Memory) Get(_ context.Context, email string) (domain.OneTimeCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.codes[email]
	if !ok {
		return domain.OneTimeCode{}, ErrNotFound
	}
	if c.Expired(m.now()) {
		delete(m.codes, email)
		return domain.OneTimeCode{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.codes, email)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Len counts stored codes, expired ones included until they are swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/circle-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps everything in maps. Saves are stored as clones so callers
// never share state with the store.
type Memory struct {
	mu           sync.RWMutex
	users        map[generic.UserID]generic.User
	saves        map[generic.SaveID]*generic.Save
	transactions map[generic.SaveID][]generic.Transaction
	variables    map[string]float64

	// FailSaves makes SaveChanges fail with this error when set.
	FailSaves error
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:        make(map[generic.UserID]generic.User),
		saves:        make(map[generic.SaveID]*generic.Save),
		transactions: make(map[generic.SaveID][]generic.Transaction),
		variables:    make(map[string]float64),
	}
}

// EnsureSchema reports a fresh store while it holds no users.
func (m *Memory) EnsureSchema(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users) == 0, nil
}

// LoadSave returns a copy of a user's save.
func (m *Memory) LoadSave(_ context.Context, userID generic.UserID, saveID generic.SaveID) (*generic.Save, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.saves[saveID]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("%w: %s", generic.ErrSaveNotFound, saveID)
	}
	return s.Clone(), nil
}

// SaveChanges stores a copy of the save and appends txs.
func (m *Memory) SaveChanges(_ context.Context, save *generic.Save, txs []generic.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves != nil {
		return m.FailSaves
	}
	if _, ok := m.saves[save.ID]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrSaveNotFound, save.ID)
	}
	m.saves[save.ID] = save.Clone()
	m.transactions[save.ID] = append(m.transactions[save.ID], txs...)
	return nil
}

// CreateUser adds a user with the default bulk-buy intent.
func (m *Memory) CreateUser(_ context.Context, name string, now time.Time) (generic.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := generic.User{
		ID:        generic.UserID(uuid.NewString()),
		Name:      name,
		BulkBuy:   generic.DefaultBulkBuy,
		CreatedAt: now,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id generic.UserID) (generic.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return generic.User{}, fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	return u, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]generic.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]generic.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SetBulkBuy(_ context.Context, id generic.UserID, bulkBuy int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	u.BulkBuy = bulkBuy
	m.users[id] = u
	return nil
}

// CreateSave adds an empty save slot, up to MaxSavesPerUser.
func (m *Memory) CreateSave(_ context.Context, userID generic.UserID, now time.Time) (*generic.Save, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("%w: %s", generic.ErrUserNotFound, userID)
	}
	if m.countSavesLocked(userID) >= generic.MaxSavesPerUser {
		return nil, generic.ErrSaveLimitReached
	}
	s := generic.NewSave(generic.SaveID(uuid.NewString()), userID, now)
	m.saves[s.ID] = s.Clone()
	return s, nil
}

func (m *Memory) countSavesLocked(userID generic.UserID) int {
	n := 0
	for _, s := range m.saves {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

// ListSaves returns copies of a user's saves, oldest first.
func (m *Memory) ListSaves(_ context.Context, userID generic.UserID) ([]*generic.Save, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*generic.Save
	for _, s := range m.saves {
		if s.UserID == userID {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteSave(_ context.Context, userID generic.UserID, saveID generic.SaveID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saves[saveID]
	if !ok || s.UserID != userID {
		return fmt.Errorf("%w: %s", generic.ErrSaveNotFound, saveID)
	}
	delete(m.saves, saveID)
	delete(m.transactions, saveID)
	return nil
}

func (m *Memory) AllSaves(_ context.Context) ([]*generic.Save, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*generic.Save, 0, len(m.saves))
	for _, s := range m.saves {
		out = append(out, s.Clone())
	}
	return out, nil
}

// Transactions returns a save's entries, newest first.
func (m *Memory) Transactions(_ context.Context, saveID generic.SaveID, limit int) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	txs := m.transactions[saveID]
	out := make([]generic.Transaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		out = append(out, txs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) LoadVariables(_ context.Context) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.variables))
	for k, v := range m.variables {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) SetVariable(_ context.Context, name string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variables[name] = value
	return nil
}

// Compile-time interface check
var _ generic.Store = (*Memory)(nil)

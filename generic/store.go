/*
store.go - Persistence interfaces

PURPOSE:
  Defines the boundary between the engine and the database. The engine only
  needs to know whether a write succeeded; the storage format is the
  store's business.

KEY INTERFACES:
  SaveStore:     Load a save, write a save with its pending ledger entries,
                 create the schema
  UserStore:     Accounts, save slots, bulk-buy setting
  VariableStore: Persisted tunables
  Store:         All of the above plus Ledger

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory for testing and dev
  - store/sqldb: gorm over SQLite, MySQL, Postgres or SQL Server

SEE ALSO:
  - session.go: Autosave uses SaveStore
  - ledger.go: Ledger interface
*/
package generic

import (
	"context"
	"time"
)

// SaveStore persists saves.
type SaveStore interface {
	// EnsureSchema creates missing tables. created is true on a fresh database.
	EnsureSchema(ctx context.Context) (created bool, err error)

	// LoadSave returns the save of a user. ErrSaveNotFound if missing.
	LoadSave(ctx context.Context, userID UserID, saveID SaveID) (*Save, error)

	// SaveChanges writes the save and appends txs atomically.
	SaveChanges(ctx context.Context, save *Save, txs []Transaction) error
}

// UserStore manages accounts and their save slots.
type UserStore interface {
	CreateUser(ctx context.Context, name string, now time.Time) (User, error)
	GetUser(ctx context.Context, id UserID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetBulkBuy(ctx context.Context, id UserID, bulkBuy int) error

	// CreateSave adds an empty save slot. ErrSaveLimitReached past MaxSavesPerUser.
	CreateSave(ctx context.Context, userID UserID, now time.Time) (*Save, error)
	ListSaves(ctx context.Context, userID UserID) ([]*Save, error)
	DeleteSave(ctx context.Context, userID UserID, saveID SaveID) error

	// AllSaves returns every save, for leaderboards.
	AllSaves(ctx context.Context) ([]*Save, error)
}

// VariableStore persists tunables.
type VariableStore interface {
	LoadVariables(ctx context.Context) (map[string]float64, error)
	SetVariable(ctx context.Context, name string, value float64) error
}

// Store is the full persistence surface.
type Store interface {
	SaveStore
	UserStore
	VariableStore
	Ledger
}

package sqldb

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/warp/circle-engine/generic"
)

// JSON wraps datatypes.JSON with a per-dialect column type; SQL Server has
// no json type.
type JSON struct {
	datatypes.JSON
}

func (j JSON) Value() (driver.Value, error) {
	return j.JSON.Value()
}

func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// GormDBDataType picks the column type for each driver.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

// =============================================================================
// RECORDS
// =============================================================================

// UserRecord is a row of users.
type UserRecord struct {
	ID        string `gorm:"primaryKey;type:char(36)"`
	Name      string `gorm:"size:255;not null"`
	BulkBuy   int    `gorm:"not null;default:1"`
	CreatedAt time.Time
}

// SaveRecord is a row of saves.
type SaveRecord struct {
	ID        string `gorm:"primaryKey;type:char(36)"`
	UserID    string `gorm:"type:char(36);not null;index:idx_saves_user"`
	Balances  JSON
	Counters  JSON
	CreatedAt time.Time
	LastSaved time.Time             `gorm:"not null"`
	Owned     []OwnedPurchaseRecord `gorm:"foreignKey:SaveID;constraint:OnDelete:CASCADE"`
	User      *UserRecord           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// OwnedPurchaseRecord is the owned amount of one purchase in one save.
type OwnedPurchaseRecord struct {
	SaveID     string `gorm:"primaryKey;type:char(36)"`
	PurchaseID string `gorm:"primaryKey;size:64"`
	Amount     int    `gorm:"not null;default:0"`
}

// TransactionRecord is a ledger row. Delta is the decimal string.
type TransactionRecord struct {
	ID         string    `gorm:"primaryKey;type:char(36)"`
	SaveID     string    `gorm:"type:char(36);not null;index:idx_transactions_save_created,priority:1"`
	Kind       string    `gorm:"size:16;not null"`
	Currency   string    `gorm:"size:64;not null"`
	Delta      string    `gorm:"size:64;not null"`
	PurchaseID string    `gorm:"size:64"`
	Count      int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"index:idx_transactions_save_created,priority:2"`
}

// VariableRecord is a persisted tunable.
type VariableRecord struct {
	Name  string  `gorm:"primaryKey;size:128"`
	Value float64 `gorm:"not null"`
}

func (UserRecord) TableName() string          { return "users" }
func (SaveRecord) TableName() string          { return "saves" }
func (OwnedPurchaseRecord) TableName() string { return "owned_purchases" }
func (TransactionRecord) TableName() string   { return "transactions" }
func (VariableRecord) TableName() string      { return "variables" }

// =============================================================================
// CONVERSIONS
// =============================================================================

func userFromRecord(r UserRecord) generic.User {
	return generic.User{
		ID:        generic.UserID(r.ID),
		Name:      r.Name,
		BulkBuy:   r.BulkBuy,
		CreatedAt: r.CreatedAt,
	}
}

func saveToRecord(s *generic.Save) (SaveRecord, error) {
	balances, err := json.Marshal(s.Balances)
	if err != nil {
		return SaveRecord{}, fmt.Errorf("encode balances: %w", err)
	}
	counters, err := json.Marshal(s.Counters)
	if err != nil {
		return SaveRecord{}, fmt.Errorf("encode counters: %w", err)
	}
	r := SaveRecord{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Balances:  JSON{datatypes.JSON(balances)},
		Counters:  JSON{datatypes.JSON(counters)},
		CreatedAt: s.CreatedAt,
		LastSaved: s.LastSaved,
	}
	for id, n := range s.Owned {
		r.Owned = append(r.Owned, OwnedPurchaseRecord{SaveID: r.ID, PurchaseID: string(id), Amount: n})
	}
	return r, nil
}

func saveFromRecord(r SaveRecord) (*generic.Save, error) {
	s := generic.NewSave(generic.SaveID(r.ID), generic.UserID(r.UserID), r.CreatedAt)
	s.LastSaved = r.LastSaved
	if len(r.Balances.JSON) > 0 {
		if err := json.Unmarshal(r.Balances.JSON, &s.Balances); err != nil {
			return nil, fmt.Errorf("decode balances of save %s: %w", r.ID, err)
		}
	}
	if len(r.Counters.JSON) > 0 {
		if err := json.Unmarshal(r.Counters.JSON, &s.Counters); err != nil {
			return nil, fmt.Errorf("decode counters of save %s: %w", r.ID, err)
		}
	}
	for _, o := range r.Owned {
		if o.Amount > 0 {
			s.Owned[generic.PurchaseID(o.PurchaseID)] = o.Amount
		}
	}
	return s, nil
}

func transactionToRecord(tx generic.Transaction) TransactionRecord {
	return TransactionRecord{
		ID:         string(tx.ID),
		SaveID:     string(tx.SaveID),
		Kind:       string(tx.Kind),
		Currency:   string(tx.Currency),
		Delta:      tx.Delta.String(),
		PurchaseID: string(tx.PurchaseID),
		Count:      tx.Count,
		CreatedAt:  tx.CreatedAt,
	}
}

func transactionFromRecord(r TransactionRecord) (generic.Transaction, error) {
	delta, err := decimal.NewFromString(r.Delta)
	if err != nil {
		return generic.Transaction{}, fmt.Errorf("decode delta of transaction %s: %w", r.ID, err)
	}
	return generic.Transaction{
		ID:         generic.TransactionID(r.ID),
		SaveID:     generic.SaveID(r.SaveID),
		Kind:       generic.TransactionKind(r.Kind),
		Currency:   generic.DependencyID(r.Currency),
		Delta:      delta,
		PurchaseID: generic.PurchaseID(r.PurchaseID),
		Count:      r.Count,
		CreatedAt:  r.CreatedAt,
	}, nil
}

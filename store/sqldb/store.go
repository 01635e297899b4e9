package sqldb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/warp/circle-engine/generic"
)

// Store implements generic.Store with gorm.
type Store struct {
	db *gorm.DB
}

// New wraps an open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB { return s.db }

// AutoMigrate creates or updates every table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserRecord{},
		&SaveRecord{},
		&OwnedPurchaseRecord{},
		&TransactionRecord{},
		&VariableRecord{},
	)
}

// =============================================================================
// SAVE STORE
// =============================================================================

// EnsureSchema migrates the schema. created is true when the users table
// did not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) (bool, error) {
	db := s.db.WithContext(ctx)
	created := !db.Migrator().HasTable(&UserRecord{})
	if err := AutoMigrate(db); err != nil {
		return false, fmt.Errorf("migrate schema: %w", err)
	}
	if created {
		log.Printf("[Store] Created schema")
	}
	return created, nil
}

func (s *Store) LoadSave(ctx context.Context, userID generic.UserID, saveID generic.SaveID) (*generic.Save, error) {
	var rec SaveRecord
	err := s.db.WithContext(ctx).
		Preload("Owned").
		Where("id = ? AND user_id = ?", string(saveID), string(userID)).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", generic.ErrSaveNotFound, saveID)
	}
	if err != nil {
		return nil, fmt.Errorf("load save %s: %w", saveID, err)
	}
	return saveFromRecord(rec)
}

// SaveChanges rewrites the save row and its owned amounts and appends txs
// in one database transaction.
func (s *Store) SaveChanges(ctx context.Context, save *generic.Save, txs []generic.Transaction) error {
	rec, err := saveToRecord(save)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&SaveRecord{}).
			Where("id = ? AND user_id = ?", rec.ID, rec.UserID).
			Updates(map[string]interface{}{
				"balances":   rec.Balances,
				"counters":   rec.Counters,
				"last_saved": rec.LastSaved,
			})
		if res.Error != nil {
			return fmt.Errorf("update save %s: %w", rec.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&SaveRecord{}).Where("id = ? AND user_id = ?", rec.ID, rec.UserID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: %s", generic.ErrSaveNotFound, save.ID)
			}
		}

		if err := tx.Where("save_id = ?", rec.ID).Delete(&OwnedPurchaseRecord{}).Error; err != nil {
			return fmt.Errorf("clear owned purchases: %w", err)
		}
		if len(rec.Owned) > 0 {
			if err := tx.Create(&rec.Owned).Error; err != nil {
				return fmt.Errorf("write owned purchases: %w", err)
			}
		}

		if len(txs) > 0 {
			records := make([]TransactionRecord, len(txs))
			for i, t := range txs {
				records[i] = transactionToRecord(t)
			}
			if err := tx.CreateInBatches(records, 100).Error; err != nil {
				return fmt.Errorf("append transactions: %w", err)
			}
		}
		return nil
	})
}

// =============================================================================
// USER STORE
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, name string, now time.Time) (generic.User, error) {
	rec := UserRecord{
		ID:        uuid.NewString(),
		Name:      name,
		BulkBuy:   generic.DefaultBulkBuy,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return generic.User{}, fmt.Errorf("create user: %w", err)
	}
	return userFromRecord(rec), nil
}

func (s *Store) GetUser(ctx context.Context, id generic.UserID) (generic.User, error) {
	var rec UserRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return generic.User{}, fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	if err != nil {
		return generic.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return userFromRecord(rec), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]generic.User, error) {
	var recs []UserRecord
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]generic.User, len(recs))
	for i, r := range recs {
		out[i] = userFromRecord(r)
	}
	return out, nil
}

func (s *Store) SetBulkBuy(ctx context.Context, id generic.UserID, bulkBuy int) error {
	res := s.db.WithContext(ctx).Model(&UserRecord{}).Where("id = ?", string(id)).Update("bulk_buy", bulkBuy)
	if res.Error != nil {
		return fmt.Errorf("set bulk buy: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when the value is unchanged.
		if _, err := s.GetUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateSave adds an empty save slot. The user row is locked so two
// concurrent creations cannot both pass the slot check.
func (s *Store) CreateSave(ctx context.Context, userID generic.UserID, now time.Time) (*generic.Save, error) {
	save := generic.NewSave(generic.SaveID(uuid.NewString()), userID, now)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user UserRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", string(userID)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", generic.ErrUserNotFound, userID)
		}
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&SaveRecord{}).Where("user_id = ?", string(userID)).Count(&n).Error; err != nil {
			return err
		}
		if n >= generic.MaxSavesPerUser {
			return generic.ErrSaveLimitReached
		}

		rec, err := saveToRecord(save)
		if err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return save, nil
}

// ListSaves returns a user's saves, oldest first.
func (s *Store) ListSaves(ctx context.Context, userID generic.UserID) ([]*generic.Save, error) {
	var recs []SaveRecord
	err := s.db.WithContext(ctx).
		Preload("Owned").
		Where("user_id = ?", string(userID)).
		Order("created_at, id").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return savesFromRecords(recs)
}

// DeleteSave removes a save with its owned amounts and ledger.
func (s *Store) DeleteSave(ctx context.Context, userID generic.UserID, saveID generic.SaveID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", string(saveID), string(userID)).Delete(&SaveRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete save %s: %w", saveID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", generic.ErrSaveNotFound, saveID)
		}
		if err := tx.Where("save_id = ?", string(saveID)).Delete(&OwnedPurchaseRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("save_id = ?", string(saveID)).Delete(&TransactionRecord{}).Error
	})
}

func (s *Store) AllSaves(ctx context.Context) ([]*generic.Save, error) {
	var recs []SaveRecord
	if err := s.db.WithContext(ctx).Preload("Owned").Order("created_at, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list all saves: %w", err)
	}
	return savesFromRecords(recs)
}

func savesFromRecords(recs []SaveRecord) ([]*generic.Save, error) {
	out := make([]*generic.Save, 0, len(recs))
	for _, r := range recs {
		sv, err := saveFromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, nil
}

// =============================================================================
// LEDGER
// =============================================================================

// Transactions returns a save's entries, newest first. IDs are time-ordered
// so they break ties between entries of the same instant.
func (s *Store) Transactions(ctx context.Context, saveID generic.SaveID, limit int) ([]generic.Transaction, error) {
	q := s.db.WithContext(ctx).
		Where("save_id = ?", string(saveID)).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []TransactionRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]generic.Transaction, 0, len(recs))
	for _, r := range recs {
		t, err := transactionFromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// =============================================================================
// VARIABLES
// =============================================================================

func (s *Store) LoadVariables(ctx context.Context) (map[string]float64, error) {
	var recs []VariableRecord
	if err := s.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load variables: %w", err)
	}
	out := make(map[string]float64, len(recs))
	for _, r := range recs {
		out[r.Name] = r.Value
	}
	return out, nil
}

func (s *Store) SetVariable(ctx context.Context, name string, value float64) error {
	rec := VariableRecord{Name: name, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("set variable %s: %w", name, err)
	}
	return nil
}

// Compile-time interface check
var _ generic.Store = (*Store)(nil)

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Users and saves:
    UserDTO, CreateUserRequest, BulkBuyRequest, SaveDTO, AttachRequest

  Session:
    ViewDTO (currencies, stats, purchases), ReceiptDTO, PrestigeDTO,
    OfflineStatusDTO

  Ledger and rankings:
    TransactionDTO, LeaderboardEntryDTO

SEE ALSO:
  - handlers.go: Uses these types
  - generic/view.go: The derived view these DTOs mirror
*/
package api

import (
	"time"

	"github.com/warp/circle-engine/generic"
)

// =============================================================================
// USERS AND SAVES
// =============================================================================

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BulkBuy   int       `json:"bulk_buy"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Name string `json:"name"`
}

// BulkBuyRequest is the body of PUT /api/users/{id}/bulk-buy.
// 1 buys one, N>1 buys N, 0 buys max, negative sells.
type BulkBuyRequest struct {
	BulkBuy int `json:"bulk_buy"`
}

// SaveDTO summarizes a save slot.
type SaveDTO struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Balances  map[string]float64 `json:"balances"`
	Owned     map[string]int     `json:"owned"`
	CreatedAt time.Time          `json:"created_at"`
	LastSaved time.Time          `json:"last_saved"`
	Active    bool               `json:"active"`
}

// AttachRequest is the body of POST /api/session.
type AttachRequest struct {
	UserID string `json:"user_id"`
	SaveID string `json:"save_id"`
}

// =============================================================================
// SESSION
// =============================================================================

// ViewDTO is the derived state of the attached save.
type ViewDTO struct {
	SaveID          string        `json:"save_id"`
	UserID          string        `json:"user_id,omitempty"`
	At              time.Time     `json:"at"`
	BulkBuy         int           `json:"bulk_buy"`
	Production      float64       `json:"production"`
	PendingPrestige float64       `json:"pending_prestige"`
	Currencies      []CurrencyDTO `json:"currencies"`
	Stats           []StatDTO     `json:"stats"`
	Purchases       []PurchaseDTO `json:"purchases"`
	OfflineRunning  bool          `json:"offline_running"`
}

// CurrencyDTO is one currency line.
type CurrencyDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Icon       string  `json:"icon"`
	Balance    float64 `json:"balance"`
	Production float64 `json:"production"`
	Pending    float64 `json:"pending"`
	Unlocked   bool    `json:"unlocked"`
}

// StatDTO is one stat line.
type StatDTO struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PurchaseDTO is one purchase with its quote at the user's bulk-buy intent.
type PurchaseDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Currency    string  `json:"currency"`
	Amount      int     `json:"amount"`
	MaxAmount   int     `json:"max_amount,omitempty"`
	Unlocked    bool    `json:"unlocked"`
	Maxed       bool    `json:"maxed"`
	CanAfford   bool    `json:"can_afford"`
	QuoteCount  int     `json:"quote_count"`
	QuoteCost   float64 `json:"quote_cost"`
	Requirement float64 `json:"requirement"`
	Production  float64 `json:"production,omitempty"`
	Target      string  `json:"target,omitempty"`
}

// BuyRequest is the optional body of a buy. Intent defaults to the
// user's bulk-buy setting.
type BuyRequest struct {
	Intent *int `json:"intent,omitempty"`
}

// ReceiptDTO reports a buy, sell or removal.
type ReceiptDTO struct {
	PurchaseID string  `json:"purchase_id"`
	Applied    bool    `json:"applied"`
	Count      int     `json:"count"`
	Cost       float64 `json:"cost"`
}

// PrestigeDTO reports a reincarnation.
type PrestigeDTO struct {
	Applied bool    `json:"applied"`
	Gained  float64 `json:"gained"`
}

// OfflineStatusDTO reports the catch-up of the attached save.
type OfflineStatusDTO struct {
	Running   bool    `json:"running"`
	Done      int     `json:"done"`
	Total     int     `json:"total"`
	Elapsed   float64 `json:"elapsed_seconds"`
	Credited  float64 `json:"credited_seconds"`
	Cancelled bool    `json:"cancelled"`
	Produced  float64 `json:"produced"`
}

// =============================================================================
// LEDGER AND RANKINGS
// =============================================================================

// TransactionDTO represents a ledger entry. Delta is the exact decimal.
type TransactionDTO struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Currency   string    `json:"currency"`
	Delta      string    `json:"delta"`
	PurchaseID string    `json:"purchase_id,omitempty"`
	Count      int       `json:"count,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LeaderboardEntryDTO is one ranked user.
type LeaderboardEntryDTO struct {
	Rank     int     `json:"rank"`
	UserID   string  `json:"user_id"`
	UserName string  `json:"user_name"`
	SaveID   string  `json:"save_id"`
	Value    float64 `json:"value"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toUserDTO(u generic.User) UserDTO {
	return UserDTO{ID: string(u.ID), Name: u.Name, BulkBuy: u.BulkBuy, CreatedAt: u.CreatedAt}
}

func toSaveDTO(s *generic.Save, active bool) SaveDTO {
	dto := SaveDTO{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Balances:  make(map[string]float64, len(s.Balances)),
		Owned:     make(map[string]int, len(s.Owned)),
		CreatedAt: s.CreatedAt,
		LastSaved: s.LastSaved,
		Active:    active,
	}
	for k, b := range s.Balances {
		dto.Balances[k] = b.Current
	}
	for id, n := range s.Owned {
		dto.Owned[string(id)] = n
	}
	return dto
}

func toViewDTO(v generic.View) ViewDTO {
	dto := ViewDTO{
		SaveID:          string(v.SaveID),
		At:              v.At,
		BulkBuy:         v.BulkBuy,
		Production:      v.Production,
		PendingPrestige: v.PendingPrestige,
		Currencies:      make([]CurrencyDTO, len(v.Currencies)),
		Stats:           make([]StatDTO, len(v.Stats)),
		Purchases:       make([]PurchaseDTO, len(v.Purchases)),
	}
	for i, c := range v.Currencies {
		dto.Currencies[i] = CurrencyDTO{
			ID:         string(c.ID),
			Name:       c.Name,
			Icon:       c.Icon,
			Balance:    c.Balance,
			Production: c.Production,
			Pending:    c.Pending,
			Unlocked:   c.Unlocked,
		}
	}
	for i, st := range v.Stats {
		dto.Stats[i] = StatDTO{ID: string(st.ID), Name: st.Name, Value: st.Value}
	}
	for i, p := range v.Purchases {
		dto.Purchases[i] = PurchaseDTO{
			ID:          string(p.ID),
			Name:        p.Name,
			Kind:        string(p.Kind),
			Currency:    string(p.Currency),
			Amount:      p.Amount,
			MaxAmount:   p.MaxAmount,
			Unlocked:    p.Unlocked,
			Maxed:       p.Maxed,
			CanAfford:   p.CanAfford,
			QuoteCount:  p.QuoteCount,
			QuoteCost:   p.QuoteCost,
			Requirement: p.Requirement,
			Production:  p.Production,
			Target:      p.Target,
		}
	}
	return dto
}

func toTransactionDTO(tx generic.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:         string(tx.ID),
		Kind:       string(tx.Kind),
		Currency:   string(tx.Currency),
		Delta:      tx.Delta.String(),
		PurchaseID: string(tx.PurchaseID),
		Count:      tx.Count,
		CreatedAt:  tx.CreatedAt,
	}
}

func toOfflineDTO(res generic.OfflineResult, running bool, done, total int) OfflineStatusDTO {
	return OfflineStatusDTO{
		Running:   running,
		Done:      done,
		Total:     total,
		Elapsed:   res.Elapsed.Seconds(),
		Credited:  res.Credited.Seconds(),
		Cancelled: res.Cancelled,
		Produced:  res.Produced,
	}
}

/*
types.go - Core identifiers and value types for the economy engine

PURPOSE:
  Defines the typed identifiers shared by every part of the engine and the
  small value types (users, ledger transactions) that cross package
  boundaries. Domain packages (e.g. circles) build their catalogs from these.

KEY CONCEPTS:
  DependencyID: Key of a numeric source in the Registry ("circles",
                "lifetime_circles", "purchase:circle-factory-1")
  StatID:       Key of an upgradeable game parameter
  PurchaseID:   Key of a Building or Upgrade in the catalog
  Transaction:  One audited change to a currency balance outside the
                regular production path (purchase, sale, prestige, offline)

SEE ALSO:
  - dependency.go: Registry of dependencies
  - purchase.go: Purchase sum type
  - ledger.go: Transaction construction and summaries
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// DependencyID identifies a numeric source in the Registry.
type DependencyID string

// StatID identifies an upgradeable stat.
type StatID string

// PurchaseID identifies a Building or Upgrade.
type PurchaseID string

// UserID identifies a player account.
type UserID string

// SaveID identifies one save slot of a user.
type SaveID string

// TransactionID uniquely identifies a ledger transaction.
type TransactionID string

// =============================================================================
// USERS
// =============================================================================

// MaxSavesPerUser caps the number of save slots a user may hold.
const MaxSavesPerUser = 3

// DefaultBulkBuy is the bulk-buy intent of a new user: buy one unit.
const DefaultBulkBuy = 1

// User is a player account. BulkBuy is the signed bulk-buy intent applied
// to purchases: 0 buys as many as affordable, N > 0 buys N, N < 0 sells |N|.
type User struct {
	ID        UserID
	Name      string
	BulkBuy   int
	CreatedAt time.Time
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionKind categorizes ledger entries.
type TransactionKind string

const (
	TxPurchase TransactionKind = "purchase" // Currency spent on units
	TxSale     TransactionKind = "sale"     // Currency refunded for sold units
	TxRemoval  TransactionKind = "removal"  // Admin removal with refund
	TxPrestige TransactionKind = "prestige" // Prestige currency claimed
	TxOffline  TransactionKind = "offline"  // Offline catch-up production
)

// Transaction is an immutable record of a currency change.
// Delta is signed: negative for spending, positive for gains.
type Transaction struct {
	ID         TransactionID
	SaveID     SaveID
	Kind       TransactionKind
	Currency   DependencyID
	Delta      decimal.Decimal
	PurchaseID PurchaseID // Empty for prestige and offline entries
	Count      int        // Signed unit count for purchase/sale/removal
	CreatedAt  time.Time
}

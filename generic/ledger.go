/*
ledger.go - Economy transaction log

PURPOSE:
  Records every currency change that happens outside regular production:
  purchases, sales, admin removals, prestige claims and offline grants.
  Production and clicks are not recorded; their volume would dwarf the log
  and the save balances already capture them.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: entries are never edited or deleted
  2. EXACT: deltas are stored as decimals, not floats
  3. ATOMIC WITH THE SAVE: a session buffers entries and hands them to the
     store together with the save snapshot they belong to

SEE ALSO:
  - store.go: SaveStore.SaveChanges persists save and entries together
  - session.go: Buffers entries between writes
*/
package generic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger reads the recorded transactions of a save.
type Ledger interface {
	// Transactions returns the newest entries first, at most limit (0 = all).
	Transactions(ctx context.Context, saveID SaveID, limit int) ([]Transaction, error)
}

// NewTransaction builds a ledger entry with a fresh ID. IDs are UUIDv7,
// so they sort in creation order.
func NewTransaction(kind TransactionKind, save SaveID, currency DependencyID, delta float64, purchase PurchaseID, count int, at time.Time) Transaction {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Transaction{
		ID:         TransactionID(id.String()),
		SaveID:     save,
		Kind:       kind,
		Currency:   currency,
		Delta:      decimal.NewFromFloat(delta),
		PurchaseID: purchase,
		Count:      count,
		CreatedAt:  at,
	}
}

// NetByCurrency sums deltas per currency.
func NetByCurrency(txs []Transaction) map[DependencyID]decimal.Decimal {
	out := make(map[DependencyID]decimal.Decimal)
	for _, tx := range txs {
		out[tx.Currency] = out[tx.Currency].Add(tx.Delta)
	}
	return out
}

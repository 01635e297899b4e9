/*
errors.go - Centralized error types for the economy engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Gameplay conditions (locked, unaffordable, nothing pending, idle
  session) are NOT errors: operations report them through result values.
  Errors are reserved for programmer mistakes and I/O failures.

ERROR CATEGORIES:
  1. Registry errors - Duplicate or unknown identifiers
  2. Catalog errors - Malformed purchase definitions
  3. Store errors - Persistence failures and missing records

USAGE:
  if errors.Is(err, generic.ErrSaveLimitReached) {
      writeError(w, http.StatusConflict, "Save limit reached", err)
  }

SEE ALSO:
  - dependency.go: Registry errors
  - session.go: Records PersistenceError in the last-error slot
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateDependency is returned when a dependency ID is registered twice.
	ErrDuplicateDependency = errors.New("duplicate dependency")

	// ErrUnknownDependency is returned when a referenced dependency is not registered.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrDuplicateStat is returned when a stat ID is added twice.
	ErrDuplicateStat = errors.New("duplicate stat")

	// ErrUnknownStat is returned when a referenced stat does not exist.
	ErrUnknownStat = errors.New("unknown stat")

	// ErrDuplicatePurchase is returned when a purchase ID is added twice.
	ErrDuplicatePurchase = errors.New("duplicate purchase")

	// ErrUnknownPurchase is returned when a referenced purchase does not exist.
	ErrUnknownPurchase = errors.New("unknown purchase")

	// ErrInvalidCatalog is returned when a purchase definition is malformed.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrSaveNotFound is returned when a save does not exist for the user.
	ErrSaveNotFound = errors.New("save not found")

	// ErrSaveLimitReached is returned when a user already holds MaxSavesPerUser saves.
	ErrSaveLimitReached = errors.New("save limit reached")

	// ErrNoActiveSave is returned by operations that need an attached save
	// and cannot express "idle" as a no-op (e.g. a manual save request).
	ErrNoActiveSave = errors.New("no active save")

	// ErrPersistence is returned when the store fails to read or write.
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PersistenceError wraps a store failure with the save it concerned.
type PersistenceError struct {
	SaveID SaveID
	Op     string // "save", "load", ...
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s save %s: %v", e.Op, e.SaveID, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// CatalogError describes a malformed purchase definition.
type CatalogError struct {
	PurchaseID PurchaseID
	Field      string
	Reason     string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("purchase %s: %s: %s", e.PurchaseID, e.Field, e.Reason)
}

func (e *CatalogError) Unwrap() error {
	return ErrInvalidCatalog
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrSaveLimitReached) ||
		errors.Is(err, ErrInvalidCatalog) ||
		errors.Is(err, ErrNoActiveSave) ||
		errors.Is(err, ErrUnknownDependency)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSaveNotFound) ||
		errors.Is(err, ErrUnknownPurchase) ||
		errors.Is(err, ErrUnknownStat)
}

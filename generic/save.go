package generic

import "time"

// Save is one save slot: balances, counters and owned purchase amounts.
// The engine never reaches a save through ambient state; every operation
// takes the save explicitly.
type Save struct {
	ID        SaveID
	UserID    UserID
	Balances  map[string]*Balance
	Counters  map[string]*Counter
	Owned     map[PurchaseID]int
	CreatedAt time.Time
	LastSaved time.Time
}

// NewSave creates an empty save stamped with now.
func NewSave(id SaveID, user UserID, now time.Time) *Save {
	return &Save{
		ID:        id,
		UserID:    user,
		Balances:  make(map[string]*Balance),
		Counters:  make(map[string]*Counter),
		Owned:     make(map[PurchaseID]int),
		CreatedAt: now,
		LastSaved: now,
	}
}

// Balance returns the balance stored under key, creating it if missing.
func (s *Save) Balance(key string) *Balance {
	if s.Balances == nil {
		s.Balances = make(map[string]*Balance)
	}
	b, ok := s.Balances[key]
	if !ok {
		b = &Balance{}
		s.Balances[key] = b
	}
	return b
}

// BalanceOf returns a copy of the balance under key without creating it.
func (s *Save) BalanceOf(key string) Balance {
	if b, ok := s.Balances[key]; ok {
		return *b
	}
	return Balance{}
}

// Counter returns the counter stored under key, creating it if missing.
func (s *Save) Counter(key string) *Counter {
	if s.Counters == nil {
		s.Counters = make(map[string]*Counter)
	}
	c, ok := s.Counters[key]
	if !ok {
		c = &Counter{}
		s.Counters[key] = c
	}
	return c
}

// CounterOf returns a copy of the counter under key without creating it.
func (s *Save) CounterOf(key string) Counter {
	if c, ok := s.Counters[key]; ok {
		return *c
	}
	return Counter{}
}

// Amount returns the owned amount of a purchase.
func (s *Save) Amount(id PurchaseID) int {
	return s.Owned[id]
}

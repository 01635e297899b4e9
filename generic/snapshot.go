/*
snapshot.go - Point-in-time copies of a save

PURPOSE:
  Persistence runs while ticks keep mutating the live save. Writers get a
  deep copy taken under the session lock; anything mutated after the copy
  is flushed by the next write (last write wins).

SEE ALSO:
  - session.go: Takes snapshots before every autosave
*/
package generic

// Clone returns a deep copy of the save.
func (s *Save) Clone() *Save {
	if s == nil {
		return nil
	}
	c := &Save{
		ID:        s.ID,
		UserID:    s.UserID,
		Balances:  make(map[string]*Balance, len(s.Balances)),
		Counters:  make(map[string]*Counter, len(s.Counters)),
		Owned:     make(map[PurchaseID]int, len(s.Owned)),
		CreatedAt: s.CreatedAt,
		LastSaved: s.LastSaved,
	}
	for k, b := range s.Balances {
		v := *b
		c.Balances[k] = &v
	}
	for k, n := range s.Counters {
		v := *n
		c.Counters[k] = &v
	}
	for k, n := range s.Owned {
		c.Owned[k] = n
	}
	return c
}

package generic

import "sort"

// LeaderboardSize is the number of entries shown per leaderboard.
const LeaderboardSize = 10

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank     int
	UserID   UserID
	UserName string
	SaveID   SaveID
	Value    float64
}

// Leaderboard ranks users by the dependency value of their best save,
// highest first. Users without saves are left out.
func Leaderboard(dep *Dependency, users []User, saves []*Save, limit int) []LeaderboardEntry {
	if dep == nil {
		return nil
	}
	names := make(map[UserID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	best := make(map[UserID]LeaderboardEntry)
	for _, s := range saves {
		v := dep.Value(s)
		cur, seen := best[s.UserID]
		if !seen || v > cur.Value {
			best[s.UserID] = LeaderboardEntry{UserID: s.UserID, UserName: names[s.UserID], SaveID: s.ID, Value: v}
		}
	}

	entries := make([]LeaderboardEntry, 0, len(best))
	for _, e := range best {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

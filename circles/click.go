package circles

import "github.com/warp/circle-engine/generic"

// ClickResult reports what a click of the big button earned.
type ClickResult struct {
	Applied   bool    `json:"applied"`
	Circles   float64 `json:"circles"`
	Triangles float64 `json:"triangles"`
}

// ApplyClick credits one click to s. roll is a uniform value in [0, 1);
// triangles drop when it falls below the TriangleChance stat.
func ApplyClick(g *generic.Game, s *generic.Save, roll float64) ClickResult {
	res := ClickResult{Applied: true}

	res.Circles = g.EffectiveValue(StatCirclesPerClick, s)
	s.Balance(KeyCircles).Add(res.Circles)
	s.Balance(KeyManualCircles).Add(res.Circles)
	s.Counter(KeyClicks).Add(1)

	if roll < g.EffectiveValue(StatTriangleChance, s) {
		res.Triangles = g.EffectiveValue(StatTrianglesPerClick, s)
		s.Balance(KeyTriangles).Add(res.Triangles)
		s.Counter(KeyTriangleClicks).Add(1)
	}
	return res
}

// Click applies a click to the session's save. It is a no-op when the
// session is idle or its mutations are suspended.
func Click(sess *generic.Session, rng generic.RandomSource) ClickResult {
	var res ClickResult
	sess.Do(generic.EventAction, func(g *generic.Game, s *generic.Save) bool {
		res = ApplyClick(g, s, rng.Float64())
		return true
	})
	return res
}

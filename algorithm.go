package vocab

import (
	"math"
	"time"
)

const (
	day = 24 * time.Hour

	// minInterval is the shortest scheduling interval and the re-show delay
	// of the first two reviews.
	minInterval     = 5 * time.Minute
	minIntervalDays = 5.0 / 1440.0

	// secondReviewStability is the stability the second-review retrievability
	// is computed with. It is fixed independently of w[2].
	secondReviewStability = 0.1
)

var (
	// lnReference is ln(0.9): the forgetting curve is anchored at 90% recall.
	lnReference = math.Log(0.9)

	// optimalFactor converts stability into the interval length that keeps
	// expected recall at the reference point: ln(0.9) / ln(0.95) ≈ 2.0541.
	optimalFactor = math.Log(0.9) / math.Log(0.95)
)

// model holds the memory-model weights and the interval ceiling.
type model struct {
	w               [NumParameters]float64
	maxIntervalDays float64
}

func newModel(p [NumParameters]float64, maxIntervalDays int) model {
	return model{w: p, maxIntervalDays: float64(maxIntervalDays)}
}

// forgettingCurve computes R(t, S) = e^(ln(0.9) * t / S).
func forgettingCurve(elapsedDays, stability float64) float64 {
	return math.Exp(lnReference * elapsedDays / stability)
}

// initial resets s to the first-review defaults.
func (m *model) initial(s *ReviewState, now time.Time) {
	s.Stability = m.w[0]
	s.Difficulty = m.w[1]
	s.Retrievability = 0
	s.NextReviewAt = now.Add(minInterval)
}

// second applies the fixed second-review schedule.
// R = e^(ln(0.9) * (5/1440) / 0.1)
func (m *model) second(s *ReviewState, now time.Time) {
	s.Stability = m.w[2]
	s.Difficulty = m.w[1]
	s.Retrievability = forgettingCurve(minIntervalDays, secondReviewStability)
	s.NextReviewAt = now.Add(minInterval)
}

// steady applies the general recurrence to s, whose LastReviewedAt must be set.
func (m *model) steady(s *ReviewState, quality float64, now time.Time) {
	elapsed := math.Max(1, float64(now.Sub(*s.LastReviewedAt))/float64(day))
	delta := quality - forgettingCurve(elapsed, s.Stability)

	d := m.nextDifficulty(s.Difficulty, delta)
	st := m.nextStability(s.Stability, d, delta, elapsed)
	ivl := m.nextInterval(st)

	s.Difficulty = d
	s.Stability = st
	s.Retrievability = forgettingCurve(ivl, st)
	s.NextReviewAt = now.Add(time.Duration(ivl * float64(day))).Round(time.Minute)
}

// nextDifficulty computes D' = clamp_d(D + Δ * (w[3] - D * w[4])).
func (m *model) nextDifficulty(d, delta float64) float64 {
	return clampD(d + delta*(m.w[3]-d*m.w[4]))
}

// nextStability computes S' = max(w[7], S * factor) with
// factor = 1 + e^(-D') * (w[5]^Δ - 1) * t^(-w[6]).
// The factor is above 1 exactly when Δ > 0.
func (m *model) nextStability(s, d, delta, elapsedDays float64) float64 {
	factor := 1 + math.Exp(-d)*(math.Pow(m.w[5], delta)-1)*math.Pow(elapsedDays, -m.w[6])
	return math.Max(m.w[7], s*factor)
}

// nextInterval returns the interval in days, clamped to [5 minutes, maxIntervalDays].
func (m *model) nextInterval(stability float64) float64 {
	return math.Min(math.Max(stability*optimalFactor, minIntervalDays), m.maxIntervalDays)
}

// clampD clamps difficulty to [1, 10].
func clampD(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}

// round2 rounds half away from zero to two decimals.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

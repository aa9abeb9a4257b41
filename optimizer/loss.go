package optimizer

import (
	"math"
	"sort"

	"github.com/sky-flux/vocab"
)

const bceClamp = 1e-7

// bceLoss computes the binary cross-entropy loss: -[y*ln(p) + (1-y)*ln(1-p)].
// rPred is clamped to [bceClamp, 1-bceClamp] to avoid log(0).
func bceLoss(rPred, y float64) float64 {
	p := math.Max(bceClamp, math.Min(rPred, 1-bceClamp))
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// computeBatchLoss computes the average BCE loss over all scored reviews.
// It creates an unrounded Scheduler from params and replays each item's
// review history in item ID order, so the sum is reproducible.
// Returns 0 if there are no scored reviews.
func computeBatchLoss(params [vocab.NumParameters]float64, data map[string][]review) float64 {
	s, err := vocab.NewScheduler(vocab.SchedulerConfig{
		Parameters:      params,
		DisableRounding: true,
	})
	if err != nil {
		return 0
	}

	var totalLoss float64
	var count int

	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		reviews := data[id]
		if len(reviews) == 0 {
			continue
		}
		state := vocab.NewReviewState(reviews[0].reviewTime)

		for _, rev := range reviews {
			// Recall predicted BEFORE this review.
			if rev.scored {
				totalLoss += bceLoss(s.Retrievability(state, rev.reviewTime), rev.label)
				count++
			}
			state = s.Update(rev.quality, state, rev.reviewTime)
		}
	}

	if count == 0 {
		return 0
	}
	return totalLoss / float64(count)
}

const gradEps = 1e-5

// numericalGradient computes the gradient of the batch loss w.r.t. each parameter
// using central differences: dL/dw[i] ≈ (L(w[i]+ε) - L(w[i]-ε)) / (2ε).
// Each probe is clamped into bounds so the scheduler accepts it.
func numericalGradient(params [vocab.NumParameters]float64, data map[string][]review) [vocab.NumParameters]float64 {
	var grad [vocab.NumParameters]float64
	for i := 0; i < vocab.NumParameters; i++ {
		pPlus := params
		pPlus[i] = clampWeight(i, pPlus[i]+gradEps)
		pMinus := params
		pMinus[i] = clampWeight(i, pMinus[i]-gradEps)

		width := pPlus[i] - pMinus[i]
		if width == 0 {
			continue
		}
		grad[i] = (computeBatchLoss(pPlus, data) - computeBatchLoss(pMinus, data)) / width
	}
	return grad
}

package optimizer

import (
	"math"

	"github.com/sky-flux/vocab"
)

// Adam hyperparameters.
const (
	beta1   = 0.9
	beta2   = 0.999
	epsilon = 1e-8
)

// moment holds the running gradient averages of one weight.
type moment struct {
	mean float64 // first moment
	sq   float64 // second (uncentered) moment
}

// Adam is a box-constrained Adam optimizer over the memory-model weights.
//
// Each weight steps by lr·m̂/(√v̂+ε) with bias-corrected moments and is then
// held inside [vocab.LowerBounds[i], vocab.UpperBounds[i]]. A weight sitting on
// a bound whose gradient pushes it outward is pinned: it does not move and
// its moments are cleared, so stale momentum cannot hold it against the
// bound once the gradient turns.
type Adam struct {
	lr      float64
	t       int
	moments [vocab.NumParameters]moment
}

// NewAdam creates an Adam optimizer with the given learning rate.
func NewAdam(lr float64) *Adam {
	return &Adam{lr: lr}
}

// Update applies one step and returns the updated weights.
func (a *Adam) Update(params, grads [vocab.NumParameters]float64) [vocab.NumParameters]float64 {
	a.t++
	c1 := 1 - math.Pow(beta1, float64(a.t))
	c2 := 1 - math.Pow(beta2, float64(a.t))

	for i, g := range grads {
		lo, hi := vocab.LowerBounds[i], vocab.UpperBounds[i]
		w := clampWeight(i, params[i])

		if g == 0 || (w <= lo && g > 0) || (w >= hi && g < 0) {
			if g != 0 {
				a.moments[i] = moment{}
			}
			params[i] = w
			continue
		}

		m := &a.moments[i]
		m.mean = beta1*m.mean + (1-beta1)*g
		m.sq = beta2*m.sq + (1-beta2)*g*g

		w -= a.lr * (m.mean / c1) / (math.Sqrt(m.sq/c2) + epsilon)
		params[i] = clampWeight(i, w)
	}
	return params
}

// Steps returns the number of updates applied so far.
func (a *Adam) Steps() int {
	return a.t
}

// SetLR sets the learning rate for subsequent steps.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// CosineAnnealing decays a learning rate from base to zero over total steps
// along half a cosine: lr(t) = base·(1+cos(πt/total))/2.
type CosineAnnealing struct {
	base  float64
	total int
	t     int
}

// NewCosineAnnealing creates a schedule that reaches zero after total steps.
func NewCosineAnnealing(base float64, total int) *CosineAnnealing {
	return &CosineAnnealing{base: base, total: total}
}

// LR returns the learning rate at the current step.
func (ca *CosineAnnealing) LR() float64 {
	if ca.total <= 0 {
		return ca.base
	}
	return ca.base * (1 + math.Cos(math.Pi*float64(ca.t)/float64(ca.total))) / 2
}

// Step advances the schedule and returns the new learning rate.
func (ca *CosineAnnealing) Step() float64 {
	ca.t++
	return ca.LR()
}

package optimizer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/sky-flux/vocab"
)

var (
	// ErrEmptyLogs is returned when no review logs are provided.
	ErrEmptyLogs = errors.New("optimizer: no review logs provided")

	// ErrInsufficientData is returned when scored reviews are fewer than MiniBatchSize.
	ErrInsufficientData = errors.New("optimizer: insufficient scored reviews for optimization")
)

// OptimizerConfig configures the training process.
// Zero values are replaced with sensible defaults.
type OptimizerConfig struct {
	Epochs        int     `json:"epochs"`          // default 5
	MiniBatchSize int     `json:"mini_batch_size"` // default 512
	LearningRate  float64 `json:"learning_rate"`   // default 0.01
	MaxSeqLen     int     `json:"max_seq_len"`     // default 64
	Seed          int64   `json:"seed"`            // default 42
}

// Optimizer fits memory-model weights to review logs using mini-batch
// gradient descent with Adam and a cosine annealing learning rate.
type Optimizer struct {
	epochs        int
	miniBatchSize int
	learningRate  float64
	maxSeqLen     int
	seed          int64
}

// NewOptimizer creates an Optimizer with the given config.
// Zero-valued fields receive defaults: Epochs=5, MiniBatchSize=512,
// LearningRate=0.01, MaxSeqLen=64, Seed=42.
func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	o := &Optimizer{
		epochs:        cfg.Epochs,
		miniBatchSize: cfg.MiniBatchSize,
		learningRate:  cfg.LearningRate,
		maxSeqLen:     cfg.MaxSeqLen,
		seed:          cfg.Seed,
	}
	if o.epochs == 0 {
		o.epochs = 5
	}
	if o.miniBatchSize == 0 {
		o.miniBatchSize = 512
	}
	if o.learningRate == 0 {
		o.learningRate = 0.01
	}
	if o.maxSeqLen == 0 {
		o.maxSeqLen = 64
	}
	if o.seed == 0 {
		o.seed = 42
	}
	return o
}

// ComputeOptimalParameters optimizes memory-model weights from review logs.
// It starts from vocab.DefaultParameters and uses mini-batch gradient descent
// (numerical central differences) with Adam and cosine annealing LR.
//
// Returns ErrEmptyLogs if logs is empty, or ErrInsufficientData (along with
// DefaultParameters) if scored reviews are fewer than MiniBatchSize.
// The context can be used to cancel long-running optimization; the best
// parameters seen so far are returned with the context error.
func (o *Optimizer) ComputeOptimalParameters(ctx context.Context, logs []vocab.ReviewLog) ([vocab.NumParameters]float64, error) {
	if len(logs) == 0 {
		return [vocab.NumParameters]float64{}, ErrEmptyLogs
	}

	data := formatRevlogs(logs)

	for itemID, reviews := range data {
		if len(reviews) > o.maxSeqLen {
			data[itemID] = reviews[:o.maxSeqLen]
		}
	}

	numReviews := countScoredReviews(data)
	if numReviews < o.miniBatchSize {
		return vocab.DefaultParameters, ErrInsufficientData
	}

	params := vocab.DefaultParameters
	tMax := int(math.Ceil(float64(numReviews)/float64(o.miniBatchSize))) * o.epochs
	adam := NewAdam(o.learningRate)
	ca := NewCosineAnnealing(o.learningRate, tMax)
	rng := rand.New(rand.NewSource(o.seed))

	// Sorted item IDs for deterministic shuffle.
	itemIDs := make([]string, 0, len(data))
	for id := range data {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	bestParams := params
	bestLoss := computeBatchLoss(params, data)

	step := func(batch map[string][]review) {
		grad := numericalGradient(params, batch)
		adam.SetLR(ca.LR())
		params = adam.Update(params, grad)
		ca.Step()
	}

	for epoch := 0; epoch < o.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return bestParams, err
		}

		rng.Shuffle(len(itemIDs), func(i, j int) {
			itemIDs[i], itemIDs[j] = itemIDs[j], itemIDs[i]
		})

		batch := make(map[string][]review)
		scored := 0

		for _, itemID := range itemIDs {
			reviews := data[itemID]
			batch[itemID] = reviews

			for _, r := range reviews {
				if r.scored {
					scored++
				}
			}

			if scored >= o.miniBatchSize {
				step(batch)
				batch = make(map[string][]review)
				scored = 0
			}
		}

		if scored > 0 {
			step(batch)
		}

		// Keep the best parameters by full-dataset loss.
		epochLoss := computeBatchLoss(params, data)
		if epochLoss < bestLoss {
			bestLoss = epochLoss
			bestParams = params
		}
	}

	return bestParams, nil
}

// ComputeBatchLoss computes the average BCE loss over all scored reviews.
// This is a convenience wrapper that preprocesses the review logs.
func (o *Optimizer) ComputeBatchLoss(params [vocab.NumParameters]float64, logs []vocab.ReviewLog) float64 {
	return computeBatchLoss(params, formatRevlogs(logs))
}

// clampWeight holds weight i inside [LowerBounds[i], UpperBounds[i]].
func clampWeight(i int, w float64) float64 {
	return math.Max(vocab.LowerBounds[i], math.Min(w, vocab.UpperBounds[i]))
}

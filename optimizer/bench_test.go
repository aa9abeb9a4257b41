package optimizer

import (
	"context"
	"testing"

	"github.com/sky-flux/vocab"
)

// BenchmarkOptimize1000 measures optimization of 1000 items × 10 reviews.
func BenchmarkOptimize1000(b *testing.B) {
	logs := generateSyntheticLogs(1000, 10, 42)
	o := NewOptimizer(OptimizerConfig{Epochs: 5})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := o.ComputeOptimalParameters(context.Background(), logs); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBatchLoss measures one full replay of 1000 items × 10 reviews.
func BenchmarkBatchLoss(b *testing.B) {
	data := formatRevlogs(generateSyntheticLogs(1000, 10, 42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		computeBatchLoss(vocab.DefaultParameters, data)
	}
}

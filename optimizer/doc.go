// Package optimizer trains vocab memory-model weights from historical
// review logs.
//
// [Optimizer.ComputeOptimalParameters] fits the eight weights of
// vocab.DefaultParameters using mini-batch gradient descent with the
// [Adam] optimizer and a [CosineAnnealing] learning rate schedule.
// Gradients are computed via numerical central differences on the binary
// cross-entropy between the recall the model predicted before each
// steady-state review and whether the answer was correct.
//
// # Usage
//
//	opt := optimizer.NewOptimizer(optimizer.OptimizerConfig{})
//	params, err := opt.ComputeOptimalParameters(ctx, logs)
//	s, err := vocab.NewScheduler(vocab.SchedulerConfig{Parameters: params})
//
// # Data Requirements
//
// Only reviews from the third review of an item onward that come at least
// one day after the previous review are scored. Optimization requires at
// least MiniBatchSize (default 512) such reviews.
package optimizer

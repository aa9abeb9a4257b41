package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sky-flux/vocab/optimizer"
)

var optimizeCfg optimizer.OptimizerConfig

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Fit model weights to the stored review history",
	Long: `Fit the memory-model weights to the stored review history and print
them as a config snippet. Paste the snippet into vocab.yaml to use them.

Example:
  vocabd optimize --epochs 10 --batch 64`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

func init() {
	f := optimizeCmd.Flags()
	f.IntVar(&optimizeCfg.Epochs, "epochs", 0, "Training epochs (default 5)")
	f.IntVar(&optimizeCfg.MiniBatchSize, "batch", 0, "Mini-batch size in scored reviews (default 512)")
	f.Float64Var(&optimizeCfg.LearningRate, "lr", 0, "Adam learning rate (default 0.01)")
	f.Int64Var(&optimizeCfg.Seed, "seed", 0, "Shuffle seed (default 42)")
	rootCmd.AddCommand(optimizeCmd)
}

// parametersSnippet is the config fragment printed by optimize.
type parametersSnippet struct {
	Scheduler struct {
		Parameters []float64 `yaml:"parameters,flow"`
	} `yaml:"scheduler"`
}

func runOptimize(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		params, err := a.svc.Optimize(ctx, optimizeCfg)
		if errors.Is(err, optimizer.ErrEmptyLogs) || errors.Is(err, optimizer.ErrInsufficientData) {
			return fmt.Errorf("%w (try a smaller --batch)", err)
		}
		if err != nil {
			return err
		}

		var snip parametersSnippet
		snip.Scheduler.Parameters = params[:]
		out, err := yaml.Marshal(&snip)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	})
}

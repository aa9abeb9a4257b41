package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sky-flux/vocab"
)

var (
	dueLimit     int
	reviewWrong  bool
	reviewConfid float64
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show the words due now, least stable first",
	Args:  cobra.NoArgs,
	RunE:  runDue,
}

var reviewCmd = &cobra.Command{
	Use:   "review ID",
	Short: "Record an answer to a word",
	Long: `Record an answer. Answers are correct unless --wrong is given;
--confidence (0 to 1) grades a correct answer.

Example:
  vocabd review 6f1c... --confidence 0.6
  vocabd review 6f1c... --wrong`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule ID",
	Short: "Rebuild a word's state by replaying its review history",
	Args:  cobra.ExactArgs(1),
	RunE:  runReschedule,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog totals",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	dueCmd.Flags().IntVarP(&dueLimit, "limit", "n", 0, "Maximum words (0 uses scheduler.default_limit)")
	reviewCmd.Flags().BoolVar(&reviewWrong, "wrong", false, "The answer was incorrect")
	reviewCmd.Flags().Float64Var(&reviewConfid, "confidence", 1, "Confidence in a correct answer, 0 to 1")
	rootCmd.AddCommand(dueCmd, reviewCmd, rescheduleCmd, statsCmd)
}

func runDue(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		due, err := a.svc.Due(ctx, dueLimit)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), output, due, func(tw *tabwriter.Writer) {
			wordTable(due.Words)(tw)
			fmt.Fprintf(tw, "\n%d due; poll again at %s\n", len(due.Words), due.NextPoll.Local().Format(time.DateTime))
		})
	})
}

func runReview(cmd *cobra.Command, args []string) error {
	if err := vocab.ValidateQuality(reviewConfid); err != nil {
		return fmt.Errorf("--confidence: %w", err)
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		st, err := a.svc.Review(ctx, args[0], !reviewWrong, reviewConfid)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), output, st, func(tw *tabwriter.Writer) {
			printState(tw, st)
		})
	})
}

func runReschedule(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		st, err := a.svc.Reschedule(ctx, args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), output, st, func(tw *tabwriter.Writer) {
			printState(tw, st)
		})
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		st, err := a.svc.Stats(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), output, st, func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "Words:\t%d\n", st.Words)
			fmt.Fprintf(tw, "Reviews:\t%d\n", st.Reviews)
			fmt.Fprintf(tw, "Accuracy:\t%.0f%%\n", st.Accuracy*100)
			fmt.Fprintf(tw, "Due now:\t%d\n", st.DueNow)
			fmt.Fprintf(tw, "Reviews today:\t%d\n", st.ReviewsToday)
		})
	})
}

func printState(tw *tabwriter.Writer, st vocab.ReviewState) {
	fmt.Fprintf(tw, "Stage:\t%s\n", vocab.StageOf(st))
	fmt.Fprintf(tw, "Stability:\t%.2f days\n", st.Stability)
	fmt.Fprintf(tw, "Difficulty:\t%.2f\n", st.Difficulty)
	fmt.Fprintf(tw, "Retrievability:\t%.2f\n", st.Retrievability)
	fmt.Fprintf(tw, "Reviews:\t%d (%d correct)\n", st.TotalReviews, st.SuccessCount)
	fmt.Fprintf(tw, "Next review:\t%s\n", st.NextReviewAt.Local().Format(time.DateTime))
}

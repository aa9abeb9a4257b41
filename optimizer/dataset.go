package optimizer

import (
	"sort"
	"time"

	"github.com/sky-flux/vocab"
)

// review is an internal representation of a single review event for training.
type review struct {
	quality     float64
	elapsedDays float64   // days since previous review (0 for first)
	label       float64   // 1 if answered correctly, 0 otherwise
	scored      bool      // steady-state, cross-day review
	reviewTime  time.Time // original review timestamp (for Scheduler replay)
}

// formatRevlogs groups review logs by item ID and sorts each group by time.
// Each review computes elapsed_days from the previous review and a binary label.
func formatRevlogs(logs []vocab.ReviewLog) map[string][]review {
	if len(logs) == 0 {
		return nil
	}

	groups := make(map[string][]vocab.ReviewLog)
	for _, log := range logs {
		groups[log.ItemID] = append(groups[log.ItemID], log)
	}

	result := make(map[string][]review, len(groups))
	for itemID, itemLogs := range groups {
		sort.SliceStable(itemLogs, func(i, j int) bool {
			return itemLogs[i].ReviewedAt.Before(itemLogs[j].ReviewedAt)
		})

		reviews := make([]review, len(itemLogs))
		for i, log := range itemLogs {
			var elapsed float64
			if i > 0 {
				elapsed = log.ReviewedAt.Sub(itemLogs[i-1].ReviewedAt).Hours() / 24.0
			}

			label := 0.0
			if log.Correct {
				label = 1.0
			}

			reviews[i] = review{
				quality:     log.Quality(),
				elapsedDays: elapsed,
				label:       label,
				scored:      i >= 2 && elapsed >= 1.0,
				reviewTime:  log.ReviewedAt,
			}
		}
		result[itemID] = reviews
	}

	return result
}

// countScoredReviews counts the reviews that contribute to the loss.
func countScoredReviews(data map[string][]review) int {
	count := 0
	for _, reviews := range data {
		for _, r := range reviews {
			if r.scored {
				count++
			}
		}
	}
	return count
}

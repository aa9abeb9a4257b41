package vocab

import "time"

// ReviewLog records a single review event for an item.
type ReviewLog struct {
	ItemID         string    `json:"item_id"`
	Correct        bool      `json:"correct"`
	Confidence     float64   `json:"confidence"`
	ReviewedAt     time.Time `json:"reviewed_at"`
	ReviewDuration *int      `json:"review_duration,omitempty"` // milliseconds, optional.
}

// Quality returns the graded quality of the logged answer.
func (l ReviewLog) Quality() float64 {
	return Grade(l.Correct, l.Confidence)
}

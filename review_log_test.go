package vocab

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestReviewLogQuality(t *testing.T) {
	assertFloat(t, "correct", ReviewLog{Correct: true, Confidence: 0.4}.Quality(), 0.4)
	assertFloat(t, "incorrect", ReviewLog{Correct: false, Confidence: 0.4}.Quality(), 0)
}

func TestReviewLogJSONRoundTrip(t *testing.T) {
	dur := 2500
	rl := ReviewLog{
		ItemID:         "w-7",
		Correct:        true,
		Confidence:     0.75,
		ReviewedAt:     t0,
		ReviewDuration: &dur,
	}
	data, err := json.Marshal(rl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got ReviewLog
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.ItemID != rl.ItemID || got.Confidence != rl.Confidence || !got.ReviewedAt.Equal(t0) || *got.ReviewDuration != dur {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
}

func TestReviewLogJSONOmitDuration(t *testing.T) {
	data, err := json.Marshal(ReviewLog{ItemID: "w", ReviewedAt: t0})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "review_duration") {
		t.Errorf("review_duration should be omitted: %s", data)
	}
}

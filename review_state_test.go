package vocab

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewReviewState(t *testing.T) {
	now := t0.Add(1234567 * time.Nanosecond)
	s := NewReviewState(now)
	if s.LastReviewedAt != nil {
		t.Errorf("LastReviewedAt = %v, want nil", s.LastReviewedAt)
	}
	assertFloat(t, "Stability", s.Stability, 0.01)
	assertFloat(t, "Difficulty", s.Difficulty, 4.93)
	if s.Retrievability != 0 || s.TotalReviews != 0 || s.SuccessCount != 0 {
		t.Errorf("non-zero initial fields: %+v", s)
	}
	if !s.NextReviewAt.Equal(t0.Add(time.Millisecond)) {
		t.Errorf("NextReviewAt = %v, want millisecond precision", s.NextReviewAt)
	}
	if err := Validate(s); err != nil {
		t.Errorf("Validate(new) = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReviewState)
	}{
		{"zero stability", func(s *ReviewState) { s.Stability = 0 }},
		{"difficulty", func(s *ReviewState) { s.Difficulty = 10.5 }},
		{"retrievability", func(s *ReviewState) { s.Retrievability = 1.2 }},
		{"negative counter", func(s *ReviewState) { s.TotalReviews = -1 }},
		{"success exceeds total", func(s *ReviewState) { s.SuccessCount = 6 }},
		{"no last review", func(s *ReviewState) { s.LastReviewedAt = nil }},
		{"next before last", func(s *ReviewState) { s.NextReviewAt = t0.Add(-time.Minute) }},
	}
	if err := Validate(steadyState()); err != nil {
		t.Fatalf("Validate(steady) = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := steadyState()
			tt.mutate(&s)
			if err := Validate(s); !errors.Is(err, ErrMalformedState) {
				t.Errorf("Validate = %v, want ErrMalformedState", err)
			}
		})
	}
}

func TestReviewStateClone(t *testing.T) {
	s := steadyState()
	c := s.clone()
	*c.LastReviewedAt = t0.Add(time.Hour)
	if !s.LastReviewedAt.Equal(t0) {
		t.Error("clone LastReviewedAt pointer not independent")
	}

	var empty ReviewState
	if empty.clone().LastReviewedAt != nil {
		t.Error("clone should preserve nil LastReviewedAt")
	}
}

func TestAccuracy(t *testing.T) {
	assertFloat(t, "new", NewReviewState(t0).Accuracy(), 0)
	assertFloat(t, "steady", steadyState().Accuracy(), 0.8)
}

func TestReviewStateJSONRoundTrip(t *testing.T) {
	s := steadyState()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got ReviewState
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Stability != s.Stability || got.TotalReviews != s.TotalReviews ||
		!got.LastReviewedAt.Equal(*s.LastReviewedAt) || !got.NextReviewAt.Equal(s.NextReviewAt) {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestReviewStateJSONNeverReviewed(t *testing.T) {
	data, err := json.Marshal(NewReviewState(t0))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, ok := m["last_reviewed_at"]; !ok || v != nil {
		t.Errorf("last_reviewed_at = %v, want null", v)
	}
}

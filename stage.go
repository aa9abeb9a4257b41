package vocab

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Stage is the lifecycle stage of an item, derived from its review count.
type Stage int

const (
	NeverReviewed Stage = iota + 1 // No review recorded, or the stored state is malformed.
	SecondReview                   // Exactly one review recorded.
	Steady                         // Two or more reviews; the general recurrence applies.
)

var (
	stageNames  = [...]string{NeverReviewed: "NeverReviewed", SecondReview: "SecondReview", Steady: "Steady"}
	stageByName = map[string]Stage{
		"NeverReviewed": NeverReviewed,
		"SecondReview":  SecondReview,
		"Steady":        Steady,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Stage(0)
	_ json.Marshaler           = Stage(0)
	_ json.Unmarshaler         = (*Stage)(nil)
	_ encoding.TextMarshaler   = Stage(0)
	_ encoding.TextUnmarshaler = (*Stage)(nil)
)

// StageOf returns the stage the memory model applies to the next review of s.
// A malformed state is reported as NeverReviewed so that it is reset to the
// initial defaults instead of stranding the item.
func StageOf(s ReviewState) Stage {
	if s.malformed() {
		return NeverReviewed
	}
	switch {
	case s.TotalReviews <= 0:
		return NeverReviewed
	case s.TotalReviews == 1:
		return SecondReview
	default:
		return Steady
	}
}

func (s Stage) isValid() bool {
	return s >= NeverReviewed && s <= Steady
}

// String returns the name of the stage. For invalid values it returns "Stage(n)".
func (s Stage) String() string {
	if s.isValid() {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("vocab: invalid stage: %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	v, ok := stageByName[string(text)]
	if !ok {
		return fmt.Errorf("vocab: invalid stage: %q", text)
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler. Stage serializes as a JSON string.
func (s Stage) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("vocab: invalid stage: %s", data)
	}
	return s.UnmarshalText([]byte(str))
}

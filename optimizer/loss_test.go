package optimizer

import (
	"math"
	"testing"
	"time"

	"github.com/sky-flux/vocab"
)

// --- bceLoss ---

func TestBceLossRecalled(t *testing.T) {
	// -[1*ln(0.9) + 0*ln(0.1)] = -ln(0.9) ≈ 0.10536
	assertFloatOpt(t, "bceLoss(0.9,1)", bceLoss(0.9, 1), 0.10536)
}

func TestBceLossForgotten(t *testing.T) {
	// -[0*ln(0.9) + 1*ln(0.1)] = -ln(0.1) ≈ 2.30259
	assertFloatOpt(t, "bceLoss(0.9,0)", bceLoss(0.9, 0), 2.30259)
}

func TestBceLossHalf(t *testing.T) {
	assertFloatOpt(t, "bceLoss(0.5,1)", bceLoss(0.5, 1), 0.69315)
}

func TestBceLossClamp(t *testing.T) {
	for _, tc := range []struct{ p, y float64 }{{0, 1}, {1, 0}} {
		got := bceLoss(tc.p, tc.y)
		if math.IsInf(got, 0) || math.IsNaN(got) {
			t.Errorf("bceLoss(%v,%v) = %v, should not be Inf/NaN", tc.p, tc.y, got)
		}
	}
}

// --- computeBatchLoss ---

// history builds three reviews of one item: two same-session reviews and a
// steady review `gap` later answered with the given correctness.
func history(id string, gap time.Duration, correct bool) []vocab.ReviewLog {
	return []vocab.ReviewLog{
		{ItemID: id, Correct: true, Confidence: 1, ReviewedAt: t0},
		{ItemID: id, Correct: true, Confidence: 1, ReviewedAt: t0.Add(10 * time.Minute)},
		{ItemID: id, Correct: correct, Confidence: 1, ReviewedAt: t0.Add(10*time.Minute + gap)},
	}
}

func TestComputeBatchLossValue(t *testing.T) {
	// After the second review S = w[2] = 0.1, so two days later
	// R = 0.9^(2/0.1) ≈ 0.12158 and the loss of a correct answer is -ln(R).
	data := formatRevlogs(history(itemA, 2*24*time.Hour, true))
	loss := computeBatchLoss(vocab.DefaultParameters, data)
	assertFloatOpt(t, "computeBatchLoss", loss, -math.Log(math.Pow(0.9, 20)))
}

func TestComputeBatchLossNoScored(t *testing.T) {
	logs := []vocab.ReviewLog{
		{ItemID: itemA, Correct: true, Confidence: 1, ReviewedAt: t0},
		{ItemID: itemA, Correct: true, Confidence: 1, ReviewedAt: t0.Add(5 * time.Minute)},
	}
	if loss := computeBatchLoss(vocab.DefaultParameters, formatRevlogs(logs)); loss != 0 {
		t.Errorf("computeBatchLoss with no scored reviews = %f, want 0", loss)
	}
}

func TestComputeBatchLossInvalidParams(t *testing.T) {
	var params [vocab.NumParameters]float64
	params[5] = 1000 // out of bounds
	data := formatRevlogs(history(itemA, 2*24*time.Hour, true))
	if loss := computeBatchLoss(params, data); loss != 0 {
		t.Errorf("computeBatchLoss with invalid params = %f, want 0", loss)
	}
}

func TestComputeBatchLossForgottenHigher(t *testing.T) {
	// R is well below 0.5 after two days, so a forgotten answer fits better.
	recalled := computeBatchLoss(vocab.DefaultParameters, formatRevlogs(history(itemA, 2*24*time.Hour, true)))
	forgotten := computeBatchLoss(vocab.DefaultParameters, formatRevlogs(history(itemB, 2*24*time.Hour, false)))
	if forgotten >= recalled {
		t.Errorf("forgotten loss %f should be < recalled loss %f", forgotten, recalled)
	}
}

func TestComputeBatchLossAverages(t *testing.T) {
	logs := append(history(itemA, 2*24*time.Hour, true), history(itemB, 2*24*time.Hour, false)...)
	got := computeBatchLoss(vocab.DefaultParameters, formatRevlogs(logs))

	r := math.Pow(0.9, 20)
	want := (-math.Log(r) - math.Log(1-r)) / 2
	assertFloatOpt(t, "averaged loss", got, want)
}

// --- numericalGradient ---

func TestNumericalGradientFinite(t *testing.T) {
	logs := []vocab.ReviewLog{
		{ItemID: itemA, Correct: false, ReviewedAt: t0},
		{ItemID: itemA, Correct: false, ReviewedAt: t0.Add(2 * 24 * time.Hour)},
		{ItemID: itemA, Correct: false, ReviewedAt: t0.Add(4 * 24 * time.Hour)},
		{ItemID: itemA, Correct: true, Confidence: 0.7, ReviewedAt: t0.Add(7 * 24 * time.Hour)},
	}
	grad := numericalGradient(vocab.DefaultParameters, formatRevlogs(logs))
	for i, g := range grad {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			t.Errorf("grad[%d] = %v, want finite", i, g)
		}
	}
}

func TestNumericalGradientSecondReviewStability(t *testing.T) {
	// Only the first steady review is scored, and it depends on w[2] alone.
	// A forgotten answer pushes w[2] down (positive gradient); a recalled
	// answer pushes it up.
	forgot := numericalGradient(vocab.DefaultParameters, formatRevlogs(history(itemA, 2*24*time.Hour, false)))
	if forgot[2] <= 0 {
		t.Errorf("grad[2] with forgotten answer = %f, want > 0", forgot[2])
	}
	recalled := numericalGradient(vocab.DefaultParameters, formatRevlogs(history(itemA, 2*24*time.Hour, true)))
	if recalled[2] >= 0 {
		t.Errorf("grad[2] with recalled answer = %f, want < 0", recalled[2])
	}
	// w[0] is overwritten by the second review and never reaches the loss.
	if recalled[0] != 0 {
		t.Errorf("grad[0] = %f, want 0", recalled[0])
	}
}

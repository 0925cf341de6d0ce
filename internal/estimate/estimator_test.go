package estimate

import (
	"errors"
	"testing"

	"cogload/internal/domain"
)

func TestZeroFeaturesYieldZeroScore(t *testing.T) {
	e := New()
	est := e.Estimate(domain.SignalFeatures{})
	if est.Score != 0 {
		t.Fatalf("want 0 score on first zero-feature call, got %v", est.Score)
	}
	if est.Confidence != 0.2 {
		t.Fatalf("want confidence 0.2 after one call, got %v", est.Confidence)
	}
}

func TestHighExtraneousDominatesScore(t *testing.T) {
	e := New()
	f := domain.SignalFeatures{TabSwitchRate: 10, WindowChangeRate: 15, TaskSwitchEntropy: 1.0}
	est := e.Estimate(f)
	if est.Score <= 0.5 {
		t.Fatalf("want high score from maxed extraneous signals, got %v", est.Score)
	}
}

func TestSmoothingDampensSpike(t *testing.T) {
	e := New()
	var last domain.LoadEstimate
	for i := 0; i < 5; i++ {
		last = e.Estimate(domain.SignalFeatures{})
	}
	if last.Confidence != 1.0 {
		t.Fatalf("want confidence 1.0 by the fifth call, got %v", last.Confidence)
	}
	spike := domain.SignalFeatures{TabSwitchRate: 10, WindowChangeRate: 15, CompileErrorRate: 5, TaskSwitchEntropy: 1.0}
	rawSpike := weighted(spike, extraneousWeights)*0.62 + weighted(spike, intrinsicWeights)*0.28
	smoothed := e.Estimate(spike)
	if smoothed.Score >= rawSpike {
		t.Fatalf("want smoothed score (%v) < raw spike (%v)", smoothed.Score, rawSpike)
	}
}

func TestConfidenceRampsWithHistory(t *testing.T) {
	e := New()
	want := []float64{0.2, 0.4, 0.6, 0.8, 1.0, 1.0}
	for i, w := range want {
		est := e.Estimate(domain.SignalFeatures{})
		if est.Confidence != w {
			t.Fatalf("call %d: want confidence %v, got %v", i+1, w, est.Confidence)
		}
	}
}

func TestNaNFeaturesSanitizedToZero(t *testing.T) {
	e := New()
	f := domain.SignalFeatures{TabSwitchRate: math_NaN()}
	est := e.Estimate(f)
	if est.Score < 0 || est.Score > 1 {
		t.Fatalf("want score in [0,1] even with NaN input, got %v", est.Score)
	}
}

type fakeModel struct {
	score float64
	err   error
}

func (m fakeModel) Predict(row []float64) (float64, error) {
	return m.score, m.err
}

func TestModelBackedEstimateUsesPredict(t *testing.T) {
	e := NewWithModel(fakeModel{score: 0.75})
	if !e.UsingModel() {
		t.Fatal("want UsingModel true")
	}
	est := e.Estimate(domain.SignalFeatures{})
	if est.Score != 0.75 {
		t.Fatalf("want 0.75 on first call (no smoothing history yet), got %v", est.Score)
	}
}

func TestModelFailureFallsBackToV1(t *testing.T) {
	e := NewWithModel(fakeModel{err: errors.New("artifact corrupt")})
	f := domain.SignalFeatures{TabSwitchRate: 10, WindowChangeRate: 15, TaskSwitchEntropy: 1.0}
	est := e.Estimate(f)
	if est.Score <= 0.5 {
		t.Fatalf("want v1 fallback score to reflect extraneous signals, got %v", est.Score)
	}
}

func math_NaN() float64 {
	var zero float64
	return zero / zero
}

// Package estimate maps SignalFeatures to a LoadEstimate.
//
// Architecture: a weighted linear combination of normalized signal features
// (v1, RuleBased) encodes domain knowledge from cognitive load theory
// (Sweller, 1988) — intrinsic load from task-complexity signals, extraneous
// load from switching/interruption signals, germane load from productive
// engagement signals. A pluggable Model (v2, Learned) can replace the
// scoring step without changing any downstream code; EMA smoothing and
// confidence accounting are shared between both paths.
//
// On the model path the Intrinsic/Extraneous/Germane breakdown is a coarse
// approximation computed from a few feature groups; it is not normalized and is
// not guaranteed to sum to Score.
package estimate

import (
	"math"

	"cogload/internal/domain"
)

const (
	historySize  = 5
	emaAlpha     = 0.3
	capTabSwitch = 10.0
	capWindowChg = 15.0
	capCompile   = 5.0
	capSession   = 120.0
)

type weight struct {
	name string
	w    float64
}

var intrinsicWeights = []weight{
	{"compile_error_rate", 0.40},
	{"typing_burst_score", 0.35},
	{"scroll_velocity_norm", 0.25},
}

var extraneousWeights = []weight{
	{"tab_switch_rate", 0.45},
	{"window_change_rate", 0.30},
	{"task_switch_entropy", 0.25},
}

var germaneWeights = []weight{
	{"idle_fraction", -0.60},
	{"session_duration_min", 0.40},
}

func featureValue(f domain.SignalFeatures, name string) float64 {
	switch name {
	case "compile_error_rate":
		return clampScaleNaN(f.CompileErrorRate, capCompile)
	case "typing_burst_score":
		return sanitize(f.TypingBurstScore)
	case "scroll_velocity_norm":
		return sanitize(f.ScrollVelocityNorm)
	case "tab_switch_rate":
		return clampScaleNaN(f.TabSwitchRate, capTabSwitch)
	case "window_change_rate":
		return clampScaleNaN(f.WindowChangeRate, capWindowChg)
	case "task_switch_entropy":
		return sanitize(f.TaskSwitchEntropy)
	case "idle_fraction":
		return sanitize(f.IdleFraction)
	case "session_duration_min":
		return clampScaleNaN(f.SessionDurationMin, capSession)
	default:
		return 0
	}
}

// sanitize maps NaN/Inf to zero, per the spec's malformed-feature policy.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// clampScaleNaN sanitizes, divides by cap, and caps the result at 1.
func clampScaleNaN(v, cap float64) float64 {
	v = sanitize(v)
	return math.Min(v/cap, 1.0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func weighted(f domain.SignalFeatures, weights []weight) float64 {
	totalAbs := 0.0
	score := 0.0
	for _, wt := range weights {
		totalAbs += math.Abs(wt.w)
		score += wt.w * featureValue(f, wt.name)
	}
	if totalAbs == 0 {
		return 0
	}
	return clamp01(score / totalAbs)
}

// Model is a pluggable v2 scoring backend (§4.2). Implementations compute a
// single total score from a fixed-order feature row; breakdown components
// and EMA smoothing remain the estimator's responsibility.
type Model interface {
	// Predict returns a raw, unsmoothed score in [0,1] for the given
	// normalized feature row (column order: see FeatureColumns).
	Predict(row []float64) (float64, error)
}

// FeatureColumns is the fixed column order the Model contract uses.
var FeatureColumns = []string{
	"tab_switch_rate",
	"compile_error_rate",
	"window_change_rate",
	"typing_burst_score",
	"idle_fraction",
	"scroll_velocity_norm",
	"session_duration_min",
	"task_switch_entropy",
}

func normalizedRow(f domain.SignalFeatures) []float64 {
	row := make([]float64, len(FeatureColumns))
	for i, name := range FeatureColumns {
		row[i] = featureValue(f, name)
	}
	return row
}

// Estimator produces LoadEstimates with EMA smoothing across calls. When a
// Model is supplied and loads successfully it backs Estimate; otherwise the
// estimator silently falls back to the rule-based v1 path (§4.2, §7).
type Estimator struct {
	model   Model
	history []float64
}

// New constructs a rule-based (v1) estimator.
func New() *Estimator {
	return &Estimator{}
}

// NewWithModel constructs an estimator backed by model, falling back to v1
// transparently if model is nil.
func NewWithModel(model Model) *Estimator {
	return &Estimator{model: model}
}

// UsingModel reports whether the pluggable model path is active.
func (e *Estimator) UsingModel() bool {
	return e.model != nil
}

// Estimate computes a LoadEstimate for the given features, applying EMA
// smoothing against this estimator's bounded history.
func (e *Estimator) Estimate(f domain.SignalFeatures) domain.LoadEstimate {
	if e.model != nil {
		if est, ok := e.estimateWithModel(f); ok {
			return est
		}
	}
	return e.estimateV1(f)
}

func (e *Estimator) estimateV1(f domain.SignalFeatures) domain.LoadEstimate {
	intrinsic := weighted(f, intrinsicWeights)
	extraneous := weighted(f, extraneousWeights)
	germane := weighted(f, germaneWeights)

	raw := 0.62*extraneous + 0.28*intrinsic + 0.10*germane
	score := clamp01(raw)
	score = e.smooth(score)

	return domain.LoadEstimate{
		Score:      score,
		Intrinsic:  intrinsic,
		Extraneous: extraneous,
		Germane:    germane,
		Confidence: e.confidence(),
	}
}

// estimateWithModel predicts via the pluggable model and derives an
// approximate (non-normalized — see package doc and §9) breakdown from
// feature groups. ok is false if the model call itself failed, in which
// case the caller falls back to v1 without consuming an EMA slot.
func (e *Estimator) estimateWithModel(f domain.SignalFeatures) (domain.LoadEstimate, bool) {
	raw, err := e.model.Predict(normalizedRow(f))
	if err != nil {
		return domain.LoadEstimate{}, false
	}
	raw = clamp01(sanitize(raw))
	score := e.smooth(raw)

	tabNorm := clampScaleNaN(f.TabSwitchRate, capTabSwitch)
	errNorm := clampScaleNaN(f.CompileErrorRate, capCompile)

	return domain.LoadEstimate{
		Score:      score,
		Extraneous: 0.6*tabNorm + 0.4*sanitize(f.TaskSwitchEntropy),
		Intrinsic:  0.6*errNorm + 0.4*sanitize(f.TypingBurstScore),
		Germane:    clamp01(clampScaleNaN(f.SessionDurationMin, capSession) - sanitize(f.IdleFraction)),
		Confidence: e.confidence(),
	}, true
}

func (e *Estimator) smooth(score float64) float64 {
	if len(e.history) > 0 {
		last := e.history[len(e.history)-1]
		score = emaAlpha*score + (1-emaAlpha)*last
	}
	e.history = append(e.history, score)
	if len(e.history) > historySize {
		e.history = e.history[1:]
	}
	return score
}

func (e *Estimator) confidence() float64 {
	return math.Min(float64(len(e.history))/float64(historySize), 1.0)
}

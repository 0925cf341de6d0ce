// Package app wires the daemon's components into a single runnable unit:
// signal processor, estimator, classifier, timeline store, aggregator,
// policy engine, the four listener controllers, and the HTTP transport.
// This is the daemon's composition root — no other package should import
// every other package the way this one does.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"cogload/internal/aggregator"
	"cogload/internal/classify"
	"cogload/internal/config"
	"cogload/internal/domain"
	"cogload/internal/estimate"
	"cogload/internal/listeners/focusmode"
	"cogload/internal/listeners/notify"
	"cogload/internal/listeners/pomodoro"
	"cogload/internal/listeners/taskqueue"
	"cogload/internal/mlmodel"
	"cogload/internal/pacing"
	"cogload/internal/policy"
	"cogload/internal/settings"
	"cogload/internal/signalproc"
	"cogload/internal/store"
	"cogload/internal/telemetrymetrics"
	transporthttp "cogload/internal/transport/http"
)

// App bundles every wired component. Fields are exported so cmd/ and
// internal/cli/ can reach into them without an App-level facade for every
// operation (timeline export, settings edit, etc. are cheap one-shots).
type App struct {
	Config     config.Config
	Log        *zap.Logger
	Store      *store.DB
	Settings   *settings.Store
	Processor  *signalproc.Processor
	Estimator  *estimate.Estimator
	Classifier *classify.Classifier
	Aggregator *aggregator.Aggregator
	Policy     *policy.Engine
	Notify     *notify.Controller
	Pomodoro   *pomodoro.Timer
	FocusMode  *focusmode.Controller
	Tasks      *taskqueue.Manager
	HTTP       *transporthttp.Server
	Pacer      *pacing.Pacer
}

// Build constructs a fully wired App from cfg. It does not start any
// background loop or HTTP listener — callers do that with Run/HTTP.Handler.
func Build(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := store.Open(filepath.Join(cfg.DataDir, cfg.TimelineDB))
	if err != nil {
		return nil, fmt.Errorf("cogload: open timeline store: %w", err)
	}

	settingsStore := settings.Open(filepath.Join(cfg.DataDir, "settings.json"))

	proc := signalproc.New(int(cfg.LoadHistoryWindow.Seconds()), nil)
	est := buildEstimator(cfg, log)
	cls := classify.New()

	agg := aggregator.New(proc, est, cls, db, log, nil)

	notifCtl := notify.New(log)
	pomo := pomodoro.New(nil, settingsStore)
	focus := focusmode.New(nil, notifCtl)
	tasks := taskqueue.New()
	pol := policy.New()

	a := &App{
		Config:     cfg,
		Log:        log,
		Store:      db,
		Settings:   settingsStore,
		Processor:  proc,
		Estimator:  est,
		Classifier: cls,
		Aggregator: agg,
		Policy:     pol,
		Notify:     notifCtl,
		Pomodoro:   pomo,
		FocusMode:  focus,
		Tasks:      tasks,
		Pacer:      pacing.New(),
	}

	telemetrymetrics.UsingMLEstimator.Set(boolToFloat(est.UsingModel()))
	agg.RegisterListener(a.onTick)

	httpServer := transporthttp.New(agg, db, pol, settingsStore, tasks, log, nil)
	httpServer.EnableMetrics()
	a.HTTP = httpServer

	return a, nil
}

// buildEstimator loads the pluggable model artifact when configured,
// falling back to the rule-based estimator on any load failure — the
// failure itself is only logged, never fatal (§7).
func buildEstimator(cfg config.Config, log *zap.Logger) *estimate.Estimator {
	if cfg.ModelArtifactPath == "" {
		return estimate.New()
	}
	model, err := mlmodel.Load(cfg.ModelArtifactPath)
	if err != nil {
		log.Warn("load estimator model artifact unavailable, using rule-based estimator",
			zap.String("path", cfg.ModelArtifactPath), zap.Error(err))
		return estimate.New()
	}
	log.Info("loaded pluggable load estimator model", zap.String("path", cfg.ModelArtifactPath))
	return estimate.NewWithModel(model)
}

// onTick runs after every aggregator tick: publishes metrics, advances the
// focus-mode, task-queue and pomodoro controllers with the new load, and
// dispatches the matching policy directives (notification suppress/allow,
// break recommendations) to the listener controllers so the daemon's
// advisories take local effect rather than only being exposed for a client
// to poll.
func (a *App) onTick(est domain.LoadEstimate, ctx domain.CognitiveContext) {
	telemetrymetrics.CurrentLoadScore.Set(est.Score)
	for _, c := range []domain.CognitiveContext{
		domain.ContextDeepFocus, domain.ContextShallowWork, domain.ContextStuck,
		domain.ContextFatigue, domain.ContextRecovering, domain.ContextUnknown,
	} {
		v := 0.0
		if c == ctx {
			v = 1.0
		}
		telemetrymetrics.ContextGauge.WithLabelValues(string(c)).Set(v)
	}

	cur := a.Settings.Current()
	a.Tasks.UpdateLoad(est.Score, cur.HighLoadThreshold)
	a.Pomodoro.Tick(est.Score)
	a.FocusMode.Tick()

	for _, d := range a.Policy.Evaluate(est, ctx) {
		a.dispatch(d)
	}
}

func (a *App) dispatch(d domain.ActionDirective) {
	switch d.ActionType {
	case "suppress_notifications", "block_distracting_tabs":
		if !a.Notify.Suppress() {
			a.Log.Warn("suppress notifications failed", zap.String("action_type", d.ActionType))
		}
	case "allow_notifications":
		if !a.Notify.Allow() {
			a.Log.Warn("allow notifications failed", zap.String("action_type", d.ActionType))
		}
	case "recommend_break":
		a.Pomodoro.StartBreak(false)
	default:
		a.Log.Debug("action directive has no local dispatch", zap.String("action_type", d.ActionType))
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Run starts the periodic inference tick loop; it blocks until ctx is
// cancelled. The interval adapts to the observed telemetry event rate
// within [interval/4, interval*4], rather than firing at a fixed cadence
// regardless of how much is actually happening.
func (a *App) Run(ctx context.Context) {
	base := a.Config.InferenceInterval
	min := base / 4
	max := base * 4
	a.Aggregator.RunAdaptiveTicker(ctx, a.Pacer, base, min, max)
}

// Close releases the timeline store's underlying connection.
func (a *App) Close() error {
	return a.Store.Close()
}

// TickOnce runs a single inference tick immediately — used by the CLI's
// simulate command and by tests that don't want to wait on the ticker.
func (a *App) TickOnce() domain.LoadEstimate {
	return a.Aggregator.Tick()
}

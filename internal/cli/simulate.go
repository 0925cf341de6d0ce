package cli

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"cogload/internal/app"
	"cogload/internal/domain"
	"cogload/internal/signalproc"
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Int("ticks", 10, "Number of inference ticks to run")
	simulateCmd.Flags().Int("events-per-tick", 5, "Synthetic telemetry events to push before each tick")
	simulateCmd.Flags().Int64("seed", 1, "Random seed for synthetic event generation")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Feed synthetic telemetry through the pipeline and print each tick's result",
	Long: `simulate drives the full signal-processor → estimator → classifier →
policy pipeline with randomly generated events, without requiring a real
browser/IDE/desktop/LMS connector running. Useful for exercising the
pipeline end-to-end and for sanity-checking a newly trained model artifact.`,
	RunE: runSimulate,
}

var simulatedEventTypes = []string{
	signalproc.EventTabSwitch, signalproc.EventWindowChange, signalproc.EventScroll,
	signalproc.EventKeystroke, signalproc.EventCompileError, signalproc.EventCompileOK,
	signalproc.EventIdleStart, signalproc.EventIdleEnd,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ticks, _ := cmd.Flags().GetInt("ticks")
	eventsPerTick, _ := cmd.Flags().GetInt("events-per-tick")
	seed, _ := cmd.Flags().GetInt64("seed")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.Build(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	rng := rand.New(rand.NewSource(seed))
	now := time.Now()

	tw := newStdoutTable("TICK\tLOAD\tCONTEXT\tCONFIDENCE\tACTIONS")
	for i := 0; i < ticks; i++ {
		for j := 0; j < eventsPerTick; j++ {
			eventType := simulatedEventTypes[rng.Intn(len(simulatedEventTypes))]
			a.Processor.Push(domain.TelemetryEvent{
				Source:    domain.SourceDesktop,
				EventType: eventType,
				Timestamp: float64(now.Unix()),
				Metadata:  map[string]any{"simulated": true},
			})
		}

		est := a.TickOnce()
		ctx := a.Aggregator.CurrentState().Context
		directives := a.Policy.Evaluate(est, ctx)
		tw.appendf("%d\t%.3f\t%s\t%.2f\t%d\n", i+1, est.Score, ctx, est.Confidence, len(directives))
		now = now.Add(a.Config.InferenceInterval)
	}
	return tw.flush()
}

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cogload/internal/analytics"
)

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().Float64("gap-minutes", 0, "Session gap threshold in minutes (0 uses the configured default)")
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Print gap-partitioned work sessions derived from the timeline",
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	gap, _ := cmd.Flags().GetFloat64("gap-minutes")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	settingsStore, err := openSettings()
	if err != nil {
		return err
	}
	if gap == 0 {
		gap = float64(settingsStore.Current().SessionGapMinutes)
	}

	sessions, err := analytics.Sessions(db, nil, nil, gap)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTART\tDURATION(m)\tTICKS\tAVG LOAD\tPEAK LOAD\tDOMINANT CONTEXT")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%d\t%.3f\t%.3f\t%s\n",
			s.SessionIndex, time.Unix(int64(s.StartTS), 0).Format(time.RFC3339),
			s.DurationMinutes, s.TickCount, s.AvgLoadScore, s.PeakLoadScore, s.DominantContext)
	}
	return tw.Flush()
}

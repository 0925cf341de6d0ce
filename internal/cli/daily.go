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
	rootCmd.AddCommand(dailyCmd)
	dailyCmd.Flags().Float64("gap-minutes", 0, "Session gap threshold in minutes (0 uses the configured default)")
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Print per-day aggregate stats derived from the timeline",
	RunE:  runDaily,
}

func runDaily(cmd *cobra.Command, args []string) error {
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

	stats, err := analytics.DailyStats(db, nil, nil, gap, time.Now())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTICKS\tSESSIONS\tAVG LOAD\tPEAK LOAD\tSESSION MIN\tFOCUS MIN")
	for _, d := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.3f\t%.3f\t%.1f\t%.1f\n",
			d.Date, d.TickCount, d.SessionCount, d.AvgLoadScore, d.PeakLoadScore,
			d.TotalSessionMinutes, d.FocusMinutes)
	}
	return tw.Flush()
}

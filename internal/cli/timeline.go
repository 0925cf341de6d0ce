package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cogload/internal/domain"
	"cogload/internal/store"
)

func init() {
	rootCmd.AddCommand(timelineCmd)
	timelineCmd.Flags().Int("limit", 50, "Maximum number of entries to print")
	timelineCmd.Flags().String("source", "", "Filter to a single source (engine, browser, ide, desktop, lms)")
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Print the most recent persisted timeline entries",
	RunE:  runTimeline,
}

func openStore() (*store.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(filepath.Join(cfg.DataDir, cfg.TimelineDB))
}

func runTimeline(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	sourceFlag, _ := cmd.Flags().GetString("source")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	q := store.Query{Limit: limit}
	if sourceFlag != "" {
		src := domain.Source(sourceFlag)
		q.Source = &src
	}

	entries, err := db.Query(q)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tAGE\tSOURCE\tEVENT\tLOAD\tCONTEXT")
	for _, e := range entries {
		ts := time.Unix(int64(e.Timestamp), 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%s\n",
			ts.Format(time.RFC3339), humanize.Time(ts), e.Source, e.EventType, e.LoadScore, e.Context)
	}
	return tw.Flush()
}

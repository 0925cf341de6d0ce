package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
)

// stdoutTable is a thin wrapper over tabwriter for commands that print rows
// as they're computed rather than building a slice upfront.
type stdoutTable struct {
	tw *tabwriter.Writer
}

func newStdoutTable(header string) *stdoutTable {
	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	return &stdoutTable{tw: tw}
}

func (t *stdoutTable) appendf(format string, args ...any) {
	fmt.Fprintf(t.tw, format, args...)
}

func (t *stdoutTable) flush() error {
	return t.tw.Flush()
}

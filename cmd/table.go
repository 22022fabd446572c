package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/karasz/gtleap/leapsecs"
)

// NewTableCommand creates the table command.
func NewTableCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the leap second table in use",
		Long: `Print the leap second table in use: its coverage, its expiry and one
line per entry with the UTC instant the offset takes effect, TAI-UTC from
then on and whether the entry inserts (+1) or removes (-1) a second.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTable(cmd, opts.store.Current())
		},
	}
}

func printTable(cmd *cobra.Command, tbl *leapsecs.Table) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "# epoch   %s\n# expires %s\n",
		utcStamp(tbl.SourceEpoch()), utcStamp(tbl.ExpiresAt())); err != nil {
		return err
	}
	for i, e := range tbl.Entries() {
		step := ""
		switch {
		case tbl.IsInsertion(i):
			step = "\t+1"
		case tbl.IsRemoval(i):
			step = "\t-1"
		}
		if _, err := fmt.Fprintf(out, "%s\t%d%s\n", utcStamp(e.EffectiveUTC), e.TAIMinusUTC, step); err != nil {
			return err
		}
	}
	return nil
}

func utcStamp(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

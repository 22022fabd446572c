package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karasz/gtleap/convert"
	"github.com/karasz/gtleap/tai64"
)

// NewTAI2UTCCommand creates the tai2utc command.
func NewTAI2UTCCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tai2utc <@label|TAI time>...",
		Short: "Convert TAI instants to UTC",
		Long: `Convert TAI instants to UTC. Each argument is a TAI64 or TAI64N label
(@400000002a2b2c2d) or a TAI time written like 1992-06-02T08:07:09.

Example:
  gtleap tai2utc @4000000058684ea4
  gtleap tai2utc 2017-01-01T00:00:36.5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				in, err := parseTAIArg(arg)
				if err != nil {
					return err
				}
				res, err := opts.store.TAIToUTC(in)
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				if err := printResult(cmd.OutOrStdout(), res, ""); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// NewUTC2TAICommand creates the utc2tai command.
func NewUTC2TAICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "utc2tai <RFC3339>...",
		Short: "Convert UTC instants to TAI",
		Long: `Convert RFC 3339 UTC instants to TAI and print the TAI64N label as well.
Second 60 names an inserted leap second.

Example:
  gtleap utc2tai 2016-12-31T23:59:60Z`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				in, err := convert.ParseUTC(arg)
				if err != nil {
					return err
				}
				res, err := opts.store.UTCToTAI(in)
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				label, err := tai64.Format(res.Instant)
				if err != nil {
					return err
				}
				if err := printResult(cmd.OutOrStdout(), res, label); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func parseTAIArg(arg string) (convert.Instant, error) {
	if strings.HasPrefix(arg, "@") {
		l, err := tai64.Parse(arg)
		if err != nil {
			return convert.Instant{}, err
		}
		return tai64.ToInstant(l), nil
	}
	return convert.ParseTAI(arg)
}

// printResult writes one tab separated line: instant, optional label,
// confidence and boundary.
func printResult(w io.Writer, res convert.Result, label string) error {
	fields := []string{res.Instant.String()}
	if label != "" {
		fields = append(fields, label)
	}
	fields = append(fields, res.Confidence.String(), res.Boundary.String())
	_, err := fmt.Fprintln(w, strings.Join(fields, "\t"))
	return err
}

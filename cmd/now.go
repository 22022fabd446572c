package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karasz/gtleap/clock"
	"github.com/karasz/gtleap/convert"
	"github.com/karasz/gtleap/tai64"
)

// NewNowCommand creates the now command.
func NewNowCommand(opts *RootOptions) *cobra.Command {
	var clockName string

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Print the current instant in UTC and TAI",
		Long: `Read the configured clock and print the current instant in UTC, in TAI
and as a TAI64N label, followed by the confidence of the conversion.

The clock is "system" (UTC), "tai" (the Linux kernel TAI clock),
"tai-or-system" (the kernel TAI clock, or the UTC clock where it is
unavailable) or "fixed:<RFC3339>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := opts.cfg.Clock
			if clockName != "" {
				name = clockName
			}
			src, err := clock.New(name)
			if err != nil {
				return err
			}
			return printNow(cmd, opts, src)
		},
	}

	cmd.Flags().StringVar(&clockName, "clock", "", "clock to read, overriding the configuration")

	return cmd
}

func printNow(cmd *cobra.Command, opts *RootOptions, src clock.Source) error {
	in, err := src.Now()
	if err != nil {
		return err
	}

	var utc, tai convert.Result
	switch in.Scale {
	case convert.ScaleTAI:
		utc, err = opts.store.TAIToUTC(in)
		tai = convert.Result{Instant: in, Confidence: utc.Confidence, Boundary: utc.Boundary}
	default:
		tai, err = opts.store.UTCToTAI(in)
		utc = convert.Result{Instant: in, Confidence: tai.Confidence, Boundary: tai.Boundary}
	}
	if err != nil {
		return err
	}
	label, err := tai64.Format(tai.Instant)
	if err != nil {
		return err
	}

	opts.logger.Debug("clock read", "clock", fmt.Sprintf("%T", src), "scale", in.Scale)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "UTC        %s\nTAI        %s\nTAI64N     %s\nconfidence %s\n",
		utc.Instant, tai.Instant, label, tai.Confidence)
	return err
}

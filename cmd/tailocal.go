package cmd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karasz/gtleap/convert"
	"github.com/karasz/gtleap/leapsecs"
	"github.com/karasz/gtleap/tai64"
)

// NewTAILocalCommand creates the tailocal command.
func NewTAILocalCommand(opts *RootOptions) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "tailocal [file...]",
		Short: "Replace TAI64 labels in log lines with UTC times",
		Long: `Read log lines from the named files or standard input and replace every
TAI64 or TAI64N label (as written by multilog) with the UTC time it stands
for. Inserted leap seconds are shown as second 60.

Example:
  cat /var/log/service/current | gtailocal
  gtleap tailocal --follow /var/log/service/current`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmdContext(cmd))
			defer cancel()
			if follow {
				go func() { _ = opts.store.Watch(ctx, opts.cfg.Refresh, opts.src) }()
			}

			output := bufio.NewWriter(cmd.OutOrStdout())
			defer output.Flush()

			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				if err := validateInput(cmd.InOrStdin()); err != nil {
					return err
				}
				return processInputStream(bufio.NewReader(cmd.InOrStdin()), output, opts.store.Current)
			}
			for _, name := range args {
				if err := processFile(name, output, opts.store.Current); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "refresh the leap second table while reading")

	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// replaceLabel converts the label at the start of s, trying TAI64N first.
// It returns the replacement and the length of the label it consumed.
func replaceLabel(s string, tbl *leapsecs.Table) (string, int, bool) {
	for _, n := range []int{tai64.TAINLabelLength, tai64.TAILabelLength} {
		if len(s) < n {
			continue
		}
		l, err := tai64.Parse(s[:n])
		if err != nil {
			continue
		}
		res, err := convert.TAIToUTC(tai64.ToInstant(l), tbl)
		if err != nil {
			return "", 0, false
		}
		return res.Instant.String(), n, true
	}
	return "", 0, false
}

// processline replaces every TAI64 label in s. Labels that do not parse or
// fall outside the table are left alone.
func processline(s string, tbl *leapsecs.Table) string {
	if !strings.Contains(s, "@") {
		return s
	}
	var b strings.Builder
	for {
		atpos := strings.IndexByte(s, '@')
		if atpos == -1 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:atpos])
		s = s[atpos:]
		if repl, n, ok := replaceLabel(s, tbl); ok {
			b.WriteString(repl)
			s = s[n:]
			continue
		}
		b.WriteByte('@')
		s = s[1:]
	}
}

// validateInput refuses to wait on an interactive terminal.
func validateInput(in io.Reader) error {
	file, ok := in.(*os.File)
	if !ok {
		return nil
	}
	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return errors.New("the command is intended to work with pipes or files.\nUsage: cat logfile | gtailocal")
	}
	return nil
}

func processFile(name string, output *bufio.Writer, current func() *leapsecs.Table) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return processInputStream(bufio.NewReader(f), output, current)
}

// processInputStream reads lines from in and writes them converted to
// output. Each line is converted against the table current at that moment.
func processInputStream(in *bufio.Reader, output *bufio.Writer, current func() *leapsecs.Table) error {
	for {
		input, err := in.ReadString('\n')
		if input != "" {
			if _, werr := output.WriteString(processline(input, current())); werr != nil {
				return werr
			}
			if werr := output.Flush(); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

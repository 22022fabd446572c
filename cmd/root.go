package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/karasz/gtleap/config"
	"github.com/karasz/gtleap/snapshot"
	"github.com/karasz/gtleap/source"
)

// RootOptions holds global flags and the state every command shares once
// the root pre-run has loaded it.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	cfg    config.Config
	src    source.Source
	store  *snapshot.Store
	logger *slog.Logger
}

// NewRootCommand creates the gtleap command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gtleap",
		Short: "gtleap - leap second table and TAI/UTC conversions",
		Long: `Convert instants between TAI and UTC using a leap second table.

The table comes from the builtin list, a leap second bulletin
(leap-seconds.list, tzdb leapseconds or a dated list) and optionally a
registry blob, as set in the configuration file or GTLEAP_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "path to YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewTableCommand(opts))
	cmd.AddCommand(NewTAI2UTCCommand(opts))
	cmd.AddCommand(NewUTC2TAICommand(opts))
	cmd.AddCommand(NewNowCommand(opts))
	cmd.AddCommand(NewTAILocalCommand(opts))

	return cmd
}

// setup loads the configuration, configures logging and loads the table.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	o.cfg = cfg

	src, err := cfg.Source()
	if err != nil {
		return err
	}
	tbl, err := source.Load(src)
	if err != nil {
		return fmt.Errorf("loading leap second table: %w", err)
	}
	o.src = src
	o.store = snapshot.New(tbl, o.logger)
	o.logger.Debug("leap second table loaded", "table", tbl.String())
	return nil
}

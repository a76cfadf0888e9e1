package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lukaszgryglicki/apconst"
	"github.com/lukaszgryglicki/apconst/config"
	"github.com/lukaszgryglicki/apconst/report"
)

// options are bound to the persistent flags of one command tree.
type options struct {
	cfgFile  string
	digits   int
	workers  int
	format   string
	color    bool
	logLevel string
	width    int
	catalogs []string
}

// env is what every subcommand needs after flags are parsed.
type env struct {
	cfg  config.Config
	log  *slog.Logger
	prov *apconst.Provider
	out  io.Writer
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "apconst",
		Short: "Arbitrary-precision constant derivation reports",
		Long: `apconst evaluates closed-form expressions over π, ζ(n), Euler's constant
and elementary functions at high precision, compares every result with its
reference value and prints a report.

Without arguments every built-in report is printed:
  zeta    - constants from number theory
  apery   - the Apéry universe pillars
  planck  - geometric α⁻¹ and the holographic ħ chain`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReports(cmd, o, nil)
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&o.cfgFile, "config", "", "config file (TOML or YAML)")
	f.IntVar(&o.digits, "digits", 0, "working precision in decimal digits (default 50)")
	f.IntVar(&o.workers, "workers", 0, "parallel formula evaluations (default 1)")
	f.StringVar(&o.format, "format", "", "output format: text|yaml")
	f.BoolVar(&o.color, "color", false, "colour the text report")
	f.StringVar(&o.logLevel, "log-level", "", "log level: debug|info|warn|error")
	f.IntVar(&o.width, "width", 0, "divider width of the text report")
	f.StringArrayVar(&o.catalogs, "catalog", nil, "extra catalog file to report on (repeatable)")

	root.AddCommand(
		newReportCmd(o),
		newListCmd(o),
		newConstantsCmd(o),
		newCheckCmd(o),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line.
func Execute() error {
	return newRootCmd().Execute()
}

// setup resolves the configuration: defaults, then the config file, then
// flags that were set explicitly.
func setup(cmd *cobra.Command, o *options) (*env, error) {
	cfg := config.Default()
	if o.cfgFile != "" {
		var err error
		if cfg, err = config.Load(o.cfgFile); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("digits") {
		cfg.Digits = o.digits
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("format") {
		cfg.Format = o.format
	}
	if flags.Changed("color") {
		cfg.Color = o.color
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("width") {
		cfg.Width = o.width
	}
	cfg.Catalogs = append(cfg.Catalogs, o.catalogs...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()})).
		With(slog.String("run_id", uuid.NewString()))
	p, err := cfg.Precision()
	if err != nil {
		return nil, err
	}
	log.Debug("configured",
		slog.Int("digits", p.Digits()),
		slog.Uint64("bits", uint64(p.Bits())),
		slog.Int("workers", cfg.Workers))
	return &env{
		cfg:  cfg,
		log:  log,
		prov: apconst.NewProvider(p, apconst.WithLogger(log)),
		out:  cmd.OutOrStdout(),
	}, nil
}

// catalogs resolves names: built-in names or catalog files. With no names,
// every built-in plus the configured files is used.
func (e *env) catalogs(names []string) ([]*report.Catalog, error) {
	if len(names) == 0 {
		names = append(report.BuiltinNames(), e.cfg.Catalogs...)
	}
	out := make([]*report.Catalog, 0, len(names))
	for _, name := range names {
		var (
			cat *report.Catalog
			err error
		)
		if isFile(name) {
			cat, err = report.Load(name)
		} else {
			cat, err = report.Builtin(name)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

func isFile(name string) bool {
	return strings.ContainsAny(name, `/\`) || strings.Contains(name, ".")
}

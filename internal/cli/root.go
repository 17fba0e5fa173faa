// Package cli provides the command-line interface for hfmp2.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/config"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/integrals"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/report"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/service"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tui"
)

// Version information (set at build time).
var Version = "0.1.0"

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "hfmp2 [flags] <molecule_file>",
		Short: "Hartree-Fock and MP2 energies from precomputed MO integrals",
		Long: `hfmp2 reads molecular-orbital integrals (YAML/JSON, FCIDUMP or a SQLite
archive), expands the two-electron integrals to a dense tensor and reports
the closed-shell Hartree-Fock energy and the MP2 correlation energy.`,
		Version: Version,
		Args:    exactlyOneMolecule,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, used, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
			if used != "" {
				logger.Debug("using config file", "path", used)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		RunE:          runEnergies,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./hfmp2.yaml, then ~/.config/hfmp2/config.yaml)")
	pf.String("data-dir", "", "Directory relative molecule paths are resolved against")
	pf.String("format", "auto", "Integral file format (auto|yaml|fcidump|sqlite)")
	pf.StringP("output", "o", "text", "Output format (text|markdown|json|plain)")
	pf.Bool("detect-conflicts", false, "Warn when overlapping two-electron records disagree")
	pf.Int64("max-tensor-bytes", 0, "Refuse tensors larger than this many bytes (0 = no limit)")
	pf.Int("top-pairs", report.DefaultTopPairs, "Number of MP2 pair energies listed in text output")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.String("log-format", "text", "Log format on stderr (text|json)")
	pf.Bool("tui", false, "Browse the result in an interactive viewer")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return report.Modes(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{integrals.FormatAuto, integrals.FormatYAML, integrals.FormatFCIDUMP, integrals.FormatSQLite}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewConvertCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func exactlyOneMolecule(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one molecule file, got %d\nUsage: %s", len(args), cmd.UseLine())
	}
	return nil
}

func runEnergies(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)

	path := config.ResolveInput(cfg.DataDir, args[0])
	format, err := integrals.Resolve(cfg.Format, path)
	if err != nil {
		return err
	}
	loader, err := integrals.New(format)
	if err != nil {
		return err
	}

	svc := service.NewEnergyService(loader, service.Options{
		DetectConflicts: cfg.Tensor.DetectConflicts,
		MaxTensorBytes:  cfg.Tensor.MaxBytes,
	}, logger)
	rep, err := svc.Run(ctx, path)
	if err != nil {
		return err
	}

	if cfg.TUI {
		return tui.Run(rep)
	}
	return report.Render(cmd.OutOrStdout(), rep, cfg.Output, cfg.Report.TopPairs)
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.AppConfig {
	if c, ok := ctx.Value(configKey{}).(*config.AppConfig); ok {
		return c
	}
	return config.Default()
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

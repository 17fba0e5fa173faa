package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/config"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/integrals"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert an integral file to YAML or a SQLite archive",
		Long: `Read integrals in any supported format and write them as YAML or as a
SQLite archive. The output format follows the output file extension unless
--to is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := GetConfig(ctx)
			logger := GetLogger(ctx)

			in := config.ResolveInput(cfg.DataDir, args[0])
			inFormat, err := integrals.Resolve(cfg.Format, in)
			if err != nil {
				return err
			}
			outFormat, err := integrals.Resolve(to, args[1])
			if err != nil {
				return err
			}
			loader, err := integrals.New(inFormat)
			if err != nil {
				return err
			}
			writer, err := integrals.NewWriter(outFormat)
			if err != nil {
				return err
			}

			ints, err := loader.Load(ctx, in)
			if err != nil {
				return fmt.Errorf("load integrals: %w", err)
			}
			if err := writer.Write(ctx, args[1], ints); err != nil {
				return fmt.Errorf("write %s: %w", args[1], err)
			}
			logger.Info("integrals converted", "from", inFormat, "to", outFormat, "eri_records", len(ints.ERI))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d orbitals, %d two-electron records)\n",
				args[1], outFormat, ints.MOCount, len(ints.ERI))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", integrals.FormatAuto, "Output format (auto|yaml|sqlite)")
	return cmd
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Long:  `Write the built-in defaults to path (default ./hfmp2.yaml).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(path, config.Default()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			abs, _ := filepath.Abs(path)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", abs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the hfmp2 version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "hfmp2 v%s\n", version)
		},
	}
}

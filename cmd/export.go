// =============================================================================
// dailyworker - Export Command
// =============================================================================
//
// COMMAND USAGE:
//   dailyworker export [--dir d] [--stdout] [--strict] [--allow-empty]
//
// The declaration of the selected workers is written to the export
// directory under a timestamped name, e.g. 20240305_093000.xml.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/mezeipetister/dailyworker/internal/exporter"
	"github.com/mezeipetister/dailyworker/internal/logging"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the declaration XML of the selected workers",
		Long: `Write the T1042E declaration of the selected workers as an XML file that
can be imported into ÁNYK. The taxpayer (employer) identity comes from the
declaration section of the configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}

			strict, _ := cmd.Flags().GetBool("strict")
			allowEmpty, _ := cmd.Flags().GetBool("allow-empty")
			skipChecks, _ := cmd.Flags().GetBool("skip-checks")

			e := exporter.New(s, a.header(), exporter.Options{
				FileFormat: a.cfg.ExportFileFormat,
				AllowEmpty: allowEmpty,
				Strict:     strict || a.cfg.StrictExport,
				SkipChecks: skipChecks,
			}, exporter.WithLogger(logging.Component(a.log, "exporter")))

			if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
				_, err := e.WriteTo(cmd.OutOrStdout())
				return err
			}

			dir := a.cfg.ExportDir
			if cmd.Flags().Changed("dir") {
				dir, _ = cmd.Flags().GetString("dir")
			}

			result, err := e.Export(dir)
			if errors.Is(err, exporter.ErrNothingSelected) {
				return fmt.Errorf("%w; select workers with \"dailyworker worker select\"", err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Declared %d worker(s) -> %s\n", result.Workers, result.OutputFile)
			if n := len(result.Issues); n > 0 {
				fmt.Fprintf(out, "%d check issue(s), see \"dailyworker worker check --selected\"\n", n)
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Output directory (default: export_dir from the configuration)")
	cmd.Flags().Bool("stdout", false, "Write the XML to standard output instead of a file")
	cmd.Flags().Bool("strict", false, "Refuse to export when a selected worker has a check issue")
	cmd.Flags().Bool("allow-empty", false, "Export even when no worker is selected")
	cmd.Flags().Bool("skip-checks", false, "Do not check the selected workers")
	return cmd
}

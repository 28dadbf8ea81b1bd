// =============================================================================
// dailyworker - Roster Commands
// =============================================================================
//
// COMMAND USAGE:
//   dailyworker roster import <file>... [--format xlsx|csv] [--delimiter ;] [--dry-run]
//   dailyworker roster export <file> [--format xlsx|csv] [--selected]
//
// The format follows the file extension (.xlsx, .csv) unless --format is given.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/mezeipetister/dailyworker/internal/logging"
	"github.com/mezeipetister/dailyworker/internal/roster"
	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRosterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Import or export workers as XLSX or CSV",
	}

	cmd.AddCommand(newRosterImportCmd(a), newRosterExportCmd(a))
	return cmd
}

func rosterOptions(cmd *cobra.Command) (roster.Options, error) {
	format, _ := cmd.Flags().GetString("format")
	delimiter, _ := cmd.Flags().GetString("delimiter")

	comma, err := roster.ParseDelimiter(delimiter)
	if err != nil {
		return roster.Options{}, err
	}
	return roster.Options{Format: format, Delimiter: comma}, nil
}

func newRosterImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Add the workers of roster files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := rosterOptions(cmd)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			log := logging.Component(a.log, "roster")

			s, err := a.openStore()
			if err != nil {
				return err
			}

			// =================================================================
			// STEP 1: READ FILES CONCURRENTLY
			// =================================================================

			results := roster.ReadFiles(args, opts)

			// =================================================================
			// STEP 2: ADD WORKERS AND PRINT SUMMARY
			// =================================================================

			out := cmd.OutOrStdout()
			var imported, skipped, failed int
			for _, r := range results {
				name := filepath.Base(r.Path)
				if r.Err != nil {
					failed++
					fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.Err)
					continue
				}

				for _, row := range r.Result.Skipped {
					log.WithFields(logrus.Fields{"file": r.Path, "row": row.Row}).Warn(row.Reason)
				}
				skipped += len(r.Result.Skipped)

				n := len(r.Result.Workers)
				if !dryRun {
					n, err = roster.Import(s, r.Result.Workers)
					if err != nil {
						return err
					}
				}
				imported += n
				fmt.Fprintf(out, "  ✓ %s: %d worker(s), %d row(s) skipped\n", name, n, len(r.Result.Skipped))
			}

			fmt.Fprintln(out)
			if dryRun {
				fmt.Fprintln(out, "Dry run, nothing was saved.")
			}
			fmt.Fprintf(out, "Imported:     %d\n", imported)
			fmt.Fprintf(out, "Rows skipped: %d\n", skipped)
			fmt.Fprintf(out, "Failed files: %d\n", failed)

			if failed > 0 {
				return fmt.Errorf("%d file(s) could not be read", failed)
			}
			return nil
		},
	}

	cmd.Flags().String("format", "", "Roster format: xlsx or csv (default: from the extension)")
	cmd.Flags().String("delimiter", ",", "CSV field separator (comma, semicolon, tab, pipe or a character)")
	cmd.Flags().Bool("dry-run", false, "Read the files without saving any worker")
	return cmd
}

func newRosterExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the workers to a roster file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := rosterOptions(cmd)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			var workers []types.Worker
			if selected, _ := cmd.Flags().GetBool("selected"); selected {
				workers = s.Selected()
			} else {
				workers = s.All()
			}

			if err := roster.Write(args[0], workers, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d worker(s) to %s\n", len(workers), args[0])
			return nil
		},
	}

	cmd.Flags().String("format", "", "Roster format: xlsx or csv (default: from the extension)")
	cmd.Flags().String("delimiter", ",", "CSV field separator (comma, semicolon, tab, pipe or a character)")
	cmd.Flags().Bool("selected", false, "Write only the selected workers")
	return cmd
}

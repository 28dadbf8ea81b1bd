// =============================================================================
// dailyworker - Worker Commands
// =============================================================================
//
// COMMAND USAGE:
//   dailyworker worker list [--selected] [--find text] [--json]
//   dailyworker worker show <ref>
//   dailyworker worker add --name "Kiss Anna" [--taj ...] [--selected]
//   dailyworker worker update <ref> [--name ...] [--city ...]
//   dailyworker worker remove <ref>
//   dailyworker worker select <ref>... | --all
//   dailyworker worker unselect <ref>... | --all
//   dailyworker worker check [--selected] [--strict]
//
// A <ref> is a full id, an id prefix of at least 4 hex digits, or a name.
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mezeipetister/dailyworker/internal/logging"
	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/mezeipetister/dailyworker/internal/validation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// workerField binds a command line flag to a text field of a worker.
type workerField struct {
	flag  string
	usage string
	field func(w *types.Worker) *string
}

var workerFields = []workerField{
	{"name", "Full name", func(w *types.Worker) *string { return &w.Name }},
	{"taj", "TAJ number", func(w *types.Worker) *string { return &w.NationalHealthID }},
	{"taxnumber", "Tax number", func(w *types.Worker) *string { return &w.TaxNumber }},
	{"mothersname", "Mother's name", func(w *types.Worker) *string { return &w.MothersName }},
	{"birthdate", "Birthdate (YYYY-MM-DD)", func(w *types.Worker) *string { return &w.Birthdate }},
	{"birthplace", "Place of birth", func(w *types.Worker) *string { return &w.Birthplace }},
	{"zip", "Postal code", func(w *types.Worker) *string { return &w.PostalCode }},
	{"city", "City", func(w *types.Worker) *string { return &w.City }},
	{"street", "Street address", func(w *types.Worker) *string { return &w.Street }},
}

func addWorkerFlags(cmd *cobra.Command) {
	for _, f := range workerFields {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().Bool("selected", false, "Select the worker for the next declaration")
}

// applyWorkerFlags copies the flags set on the command line into w.
func applyWorkerFlags(cmd *cobra.Command, w *types.Worker) {
	for _, f := range workerFields {
		if cmd.Flags().Changed(f.flag) {
			value, _ := cmd.Flags().GetString(f.flag)
			*f.field(w) = value
		}
	}
	if cmd.Flags().Changed("selected") {
		w.IsSelected, _ = cmd.Flags().GetBool("selected")
	}
}

// =============================================================================
// WORKER COMMAND DEFINITION
// =============================================================================

func newWorkerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "worker",
		Aliases: []string{"workers", "w"},
		Short:   "Manage the workers",
	}

	cmd.AddCommand(
		newWorkerListCmd(a),
		newWorkerShowCmd(a),
		newWorkerAddCmd(a),
		newWorkerUpdateCmd(a),
		newWorkerRemoveCmd(a),
		newWorkerSelectCmd(a, true),
		newWorkerSelectCmd(a, false),
		newWorkerCheckCmd(a),
	)
	return cmd
}

func newWorkerListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the workers, sorted by name",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}

			workers := s.Sorted()
			if query, _ := cmd.Flags().GetString("find"); query != "" {
				workers = s.Find(query)
			}
			if selected, _ := cmd.Flags().GetBool("selected"); selected {
				var filtered []types.Worker
				for _, w := range workers {
					if w.IsSelected {
						filtered = append(filtered, w)
					}
				}
				workers = filtered
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				if workers == nil {
					workers = []types.Worker{}
				}
				return writeJSON(cmd.OutOrStdout(), workers)
			}
			printWorkerTable(cmd.OutOrStdout(), workers)
			return nil
		},
	}

	cmd.Flags().Bool("selected", false, "List only the selected workers")
	cmd.Flags().String("find", "", "List only workers whose name, TAJ or tax number contains the text")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func newWorkerShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ref>",
		Short: "Show every field of a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			w, err := s.Resolve(args[0])
			if err != nil {
				return err
			}
			printWorker(cmd.OutOrStdout(), w)
			return nil
		},
	}
}

func newWorkerAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}

			w := types.NewWorker()
			applyWorkerFlags(cmd, &w)
			w = validation.Sanitize(w)
			if w.Name == "" {
				return fmt.Errorf("--name must not be empty")
			}

			added, err := s.Add(w)
			if err != nil {
				return err
			}
			logIssues(a.log, added)
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Name, added.ShortID())
			return nil
		},
	}

	addWorkerFlags(cmd)
	cmd.MarkFlagRequired("name")
	return cmd
}

func newWorkerUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <ref>",
		Short: "Change the fields given on the command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			w, err := s.Resolve(args[0])
			if err != nil {
				return err
			}

			applyWorkerFlags(cmd, &w)
			w = validation.Sanitize(w)
			if w.Name == "" {
				return fmt.Errorf("--name must not be empty")
			}

			updated, err := s.Update(w)
			if err != nil {
				return err
			}
			logIssues(a.log, updated)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", updated.Name, updated.ShortID())
			return nil
		},
	}

	addWorkerFlags(cmd)
	return cmd
}

func newWorkerRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <ref>",
		Aliases: []string{"rm"},
		Short:   "Remove a worker",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			w, err := s.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := s.Remove(w.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", w.Name, w.ShortID())
			return nil
		},
	}
}

// newWorkerSelectCmd creates "select" or "unselect".
func newWorkerSelectCmd(a *app, selected bool) *cobra.Command {
	use, short, verb := "select", "Select workers for the next declaration", "Selected"
	if !selected {
		use, short, verb = "unselect", "Remove workers from the next declaration", "Unselected"
	}

	cmd := &cobra.Command{
		Use:   use + " <ref>...",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if all == (len(args) > 0) {
				return fmt.Errorf("give either worker references or --all")
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			var targets []types.Worker
			if all {
				targets = s.All()
			} else {
				for _, ref := range args {
					w, err := s.Resolve(ref)
					if err != nil {
						return err
					}
					targets = append(targets, w)
				}
			}

			changed := 0
			for _, w := range targets {
				if w.IsSelected == selected {
					continue
				}
				if _, _, err := s.SetSelected(w.ID, selected); err != nil {
					return err
				}
				changed++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d worker(s), %d selected in total\n", verb, changed, len(s.Selected()))
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "Apply to every worker")
	return cmd
}

func newWorkerCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the worker records for mistakes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}

			workers := s.All()
			if selected, _ := cmd.Flags().GetBool("selected"); selected {
				workers = s.Selected()
			}
			strict, _ := cmd.Flags().GetBool("strict")
			skipChecksums, _ := cmd.Flags().GetBool("skip-checksums")

			v := validation.NewValidator(validation.ValidationOptions{
				TreatWarningsAsErrors: strict,
				SkipChecksums:         skipChecksums,
			})
			result := v.ValidateAll(workers)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, validation.FormatErrors(result.Errors))
			fmt.Fprintf(out, "Workers checked: %d\n", result.WorkersValidated)
			fmt.Fprintf(out, "Errors:          %d\n", result.ErrorCount)
			fmt.Fprintf(out, "Warnings:        %d\n", result.WarningCount)

			if !result.IsValid {
				return fmt.Errorf("%d worker record error(s)", result.ErrorCount)
			}
			return nil
		},
	}

	cmd.Flags().Bool("selected", false, "Check only the selected workers")
	cmd.Flags().Bool("strict", false, "Treat warnings as errors")
	cmd.Flags().Bool("skip-checksums", false, "Do not verify the TAJ and tax number check digits")
	return cmd
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printWorkerTable(out io.Writer, workers []types.Worker) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEL\tNAME\tTAJ\tTAX NUMBER\tBIRTHDATE\tCITY")
	for _, w := range workers {
		sel := ""
		if w.IsSelected {
			sel = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			w.ShortID(), sel, w.Name, w.NationalHealthID, w.TaxNumber, w.Birthdate, w.City)
	}
	tw.Flush()
}

func printWorker(out io.Writer, w types.Worker) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", w.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", w.Name)
	fmt.Fprintf(tw, "TAJ:\t%s\n", w.NationalHealthID)
	fmt.Fprintf(tw, "Tax number:\t%s\n", w.TaxNumber)
	fmt.Fprintf(tw, "Mother's name:\t%s\n", w.MothersName)
	fmt.Fprintf(tw, "Birthdate:\t%s\n", w.Birthdate)
	fmt.Fprintf(tw, "Birthplace:\t%s\n", w.Birthplace)
	fmt.Fprintf(tw, "Address:\t%s %s, %s\n", w.PostalCode, w.City, w.Street)
	fmt.Fprintf(tw, "Selected:\t%t\n", w.IsSelected)
	tw.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// logIssues logs the check results of a saved worker.
func logIssues(log logrus.FieldLogger, w types.Worker) {
	log = logging.Component(log, "check")
	for _, issue := range validation.Validate(w) {
		log.WithFields(logrus.Fields{
			"worker": w.Name,
			"field":  issue.Field,
			"value":  issue.Value,
		}).Warn(issue.Message)
	}
}

package cmd

import (
	"fmt"

	"github.com/mezeipetister/dailyworker/internal/legacy"
	"github.com/mezeipetister/dailyworker/internal/logging"
	"github.com/mezeipetister/dailyworker/pkg/utils"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [legacy-file]",
		Short: "Copy the workers of an old single-file database into the store",
		Long: `Copy the workers of the single-file database used by old releases
(default: legacy_file from the configuration, ~/.dailyworkerdb/workersdb)
into the worker store. Every migrated worker gets a new id. Workers already
in the store, with the same name and TAJ number, are skipped. Employers are
not migrated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.LegacyFile
			if len(args) == 1 {
				expanded, err := utils.ExpandHome(args[0])
				if err != nil {
					return err
				}
				path = expanded
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			n, err := legacy.Migrate(path, s, logging.Component(a.log, "legacy"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d worker(s) from %s\n", n, path)
			return nil
		},
	}
}

// =============================================================================
// dailyworker - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   dailyworker
//   ├── worker   (list, show, add, update, remove, select, unselect, check)
//   ├── export
//   ├── roster   (import, export)
//   ├── migrate
//   ├── config   (init, show)
//   └── version
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --data-dir, --verbose)
//   2. Loading the configuration
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mezeipetister/dailyworker/internal/config"
	"github.com/mezeipetister/dailyworker/internal/logging"
	"github.com/mezeipetister/dailyworker/internal/store"
	"github.com/mezeipetister/dailyworker/internal/xmlwriter"
	"github.com/mezeipetister/dailyworker/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app holds what the root command prepares for its subcommands.
type app struct {
	configPath string
	cfg        *config.Config
	log        *logrus.Logger
	logCloser  io.Closer
	store      *store.Store
}

// openStore opens the worker store on first use.
func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.cfg.WorkersDir, store.WithLogger(logging.Component(a.log, "store")))
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// header builds the declaration header from the configuration.
func (a *app) header() xmlwriter.Header {
	d := a.cfg.Declaration
	return xmlwriter.Header{
		FormCode:          d.FormCode,
		FormVersion:       d.FormVersion,
		Remark:            d.Remark,
		TaxpayerTaxNumber: d.TaxpayerTaxNumber,
		TaxpayerName:      d.TaxpayerName,
		TaxpayerPhone:     d.TaxpayerPhone,
	}
}

func (a *app) close() {
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "dailyworker",
		Short: "dailyworker - keep a roster of casual workers and declare them",
		Long: `dailyworker keeps a roster of casual workers and produces the daily
employment declaration (T1042E) for the workers selected for the day, as an
XML file ready to be imported into ÁNYK.

Example Usage:
  dailyworker worker add --name "Kiss Anna" --taj 123456788
  dailyworker worker select "Kiss Anna"
  dailyworker export --dir ~/Documents`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},

		// Without a subcommand, print the help message.
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(),
		"Path to the configuration file")
	rootCmd.PersistentFlags().String("data-dir", "",
		"Data directory (overrides data_dir from the configuration)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output for debugging")

	rootCmd.AddCommand(
		newWorkerCmd(a),
		newExportCmd(a),
		newRosterCmd(a),
		newMigrateCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// Commands annotated with annotationConfig: configOptional accept a --config
// path that does not exist yet.
const (
	annotationConfig = "config"
	configOptional   = "optional"
)

// init loads the configuration and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	var err error
	if cmd.Flags().Changed("config") && cmd.Annotations[annotationConfig] != configOptional {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.LoadOrDefault(a.configPath)
	}
	if err != nil {
		return err
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		expanded, err := utils.ExpandHome(dataDir)
		if err != nil {
			return err
		}
		a.cfg.DataDir = expanded
		a.cfg.WorkersDir = filepath.Join(expanded, "workers")
	}

	var extra []logging.LoggerOption
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		extra = append(extra, logging.WithLevel(logrus.DebugLevel))
	}

	a.log, a.logCloser, err = logging.New(logging.Options{
		Level:  a.cfg.LogLevel,
		Format: a.cfg.LogFormat,
		File:   a.cfg.LogFile,
		Output: cmd.ErrOrStderr(),
	}, extra...)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"config":   a.configPath,
		"data_dir": a.cfg.DataDir,
	}).Debug("configuration loaded")
	return nil
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

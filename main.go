// =============================================================================
// dailyworker - Main Entry Point
// =============================================================================
//
// dailyworker keeps a roster of casual workers and writes the daily
// employment declaration (T1042E) of the selected workers as ÁNYK XML.
//
// USAGE:
//   dailyworker worker ...      - Manage the workers
//   dailyworker export          - Write the declaration of the selected workers
//   dailyworker roster ...      - Import or export workers as XLSX or CSV
//   dailyworker migrate         - Copy workers from the old single-file database
//   dailyworker version         - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Worker store, XML rendering, export, roster, config
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/mezeipetister/dailyworker/cmd"
)

func main() {
	cmd.Execute()
}

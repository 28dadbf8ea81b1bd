// =============================================================================
// dailyworker - Roster Import/Export
// =============================================================================
//
// A roster is a table of workers, one row per worker, with a header row
// naming the columns. Rosters are read from and written to XLSX workbooks
// (first sheet) and CSV files.
//
// COLUMNS:
//   | name | taj | taxnumber | mothersname | birthdate | birthplace | zip | city | street | selected |
//
//   - Header lookup is case-insensitive and ignores surrounding spaces
//   - Unknown columns are ignored; missing columns read as empty
//   - Rows without a name are skipped and reported
//   - Imported rows always get a fresh id
//
// =============================================================================

package roster

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mezeipetister/dailyworker/internal/store"
	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/mezeipetister/dailyworker/internal/validation"
)

// Columns lists the roster columns in the order they are written.
var Columns = []string{
	"name",
	"taj",
	"taxnumber",
	"mothersname",
	"birthdate",
	"birthplace",
	"zip",
	"city",
	"street",
	"selected",
}

// Supported formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Birthdate layouts accepted on import, besides the canonical one.
var birthdateLayouts = []string{
	types.BirthdateLayout,
	"2006.01.02",
	"2006.01.02.",
	"2006. 01. 02.",
	"2006/01/02",
	shortYearLayout,
}

// shortYearLayout is how excelize renders the built-in date format 14.
const shortYearLayout = "01-02-06"

// =============================================================================
// RESULT TYPES
// =============================================================================

// SkippedRow is a data row that was not imported.
type SkippedRow struct {
	// Row is the 1-based row number in the source file, header included.
	Row    int
	Reason string
}

// ImportResult holds the workers read from a roster.
type ImportResult struct {
	SourceFile string
	Workers    []types.Worker
	Skipped    []SkippedRow
}

// Options selects the format of a roster file.
type Options struct {
	// Format is "xlsx" or "csv". Empty means: derive from the extension.
	Format string

	// Delimiter is the CSV field separator. Default: ','
	Delimiter rune
}

// =============================================================================
// FORMAT DISPATCH
// =============================================================================

// FormatFromPath derives the roster format from the file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("cannot tell the roster format of %q, use --format", path)
	}
}

func resolveFormat(path string, opts Options) (string, error) {
	if opts.Format == "" {
		return FormatFromPath(path)
	}
	switch f := strings.ToLower(opts.Format); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown roster format %q", opts.Format)
	}
}

// Read reads a roster in the format given by opts.
func Read(path string, opts Options) (*ImportResult, error) {
	format, err := resolveFormat(path, opts)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(path)
	}
	return ReadCSV(path, opts.Delimiter)
}

// Write writes a roster in the format given by opts.
func Write(path string, workers []types.Worker, opts Options) error {
	format, err := resolveFormat(path, opts)
	if err != nil {
		return err
	}
	if format == FormatXLSX {
		return WriteXLSX(path, workers)
	}
	return WriteCSV(path, workers, opts.Delimiter)
}

// Import adds the workers to the store and returns the number added.
func Import(s *store.Store, workers []types.Worker) (int, error) {
	for i, w := range workers {
		if _, err := s.Add(w); err != nil {
			return i, fmt.Errorf("failed to import %q: %w", w.Name, err)
		}
	}
	return len(workers), nil
}

// =============================================================================
// TABLE CONVERSION
// =============================================================================

// fromTable converts rows (header first) to workers.
func fromTable(source string, rows [][]string) (*ImportResult, error) {
	result := &ImportResult{SourceFile: source}
	if len(rows) == 0 {
		return result, nil
	}

	index := headerIndex(rows[0])
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("%s: header row has no %q column", source, "name")
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		getCell := func(column string) string {
			pos, ok := index[column]
			if !ok || pos >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[pos])
		}

		w := types.NewWorker()
		w.Name = getCell("name")
		w.NationalHealthID = getCell("taj")
		w.TaxNumber = getCell("taxnumber")
		w.MothersName = getCell("mothersname")
		w.Birthdate = normalizeBirthdate(getCell("birthdate"))
		w.Birthplace = getCell("birthplace")
		w.PostalCode = getCell("zip")
		w.City = getCell("city")
		w.Street = getCell("street")
		w.IsSelected = parseSelected(getCell("selected"))
		w = validation.Sanitize(w)

		if w.Name == "" {
			result.Skipped = append(result.Skipped, SkippedRow{Row: i + 1, Reason: "missing name"})
			continue
		}
		result.Workers = append(result.Workers, w)
	}

	return result, nil
}

// toTable converts workers to rows, header first.
func toTable(workers []types.Worker) [][]string {
	rows := make([][]string, 0, len(workers)+1)
	rows = append(rows, append([]string(nil), Columns...))
	for _, w := range workers {
		selected := "false"
		if w.IsSelected {
			selected = "true"
		}
		rows = append(rows, []string{
			w.Name,
			w.NationalHealthID,
			w.TaxNumber,
			w.MothersName,
			w.Birthdate,
			w.Birthplace,
			w.PostalCode,
			w.City,
			w.Street,
			selected,
		})
	}
	return rows
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup && key != "" {
			index[key] = i
		}
	}
	return index
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseSelected(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "1", "x", "igen", "i":
		return true
	default:
		return false
	}
}

// normalizeBirthdate rewrites a recognised date to YYYY-MM-DD. Anything else
// is kept as entered.
func normalizeBirthdate(value string) string {
	return normalizeBirthdateAt(value, time.Now())
}

// normalizeBirthdateAt is normalizeBirthdate with a fixed current time. A
// two-digit year never yields a birthdate after now.
func normalizeBirthdateAt(value string, now time.Time) string {
	for _, layout := range birthdateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if layout == shortYearLayout && t.After(now) {
			t = t.AddDate(-100, 0, 0)
		}
		return t.Format(types.BirthdateLayout)
	}
	return value
}

package roster

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"unicode"

	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/mezeipetister/dailyworker/pkg/utils"
)

// ParseDelimiter converts a delimiter name to a rune. Empty means comma.
func ParseDelimiter(value string) (rune, error) {
	switch value {
	case "", ",", "comma":
		return ',', nil
	case "\\t", "tab", "TAB", "\t":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	default:
		runes := []rune(value)
		if len(runes) != 1 {
			return 0, fmt.Errorf("invalid delimiter %q", value)
		}
		return runes[0], nil
	}
}

// ReadCSV reads a CSV roster.
//
// PARAMETERS:
//   - path: The path to the CSV file.
//   - delimiter: The field separator; zero means comma.
//
// RETURNS:
//   - The workers read and the rows skipped.
//   - An error if the file cannot be read or has no "name" column.
func ReadCSV(path string, delimiter rune) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	configureReader(reader, delimiter)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return fromTable(path, rows)
}

// WriteCSV writes the workers to path, replacing any existing file.
func WriteCSV(path string, workers []types.Worker, delimiter rune) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if delimiter != 0 {
		writer.Comma = delimiter
	}

	if err := writer.WriteAll(toTable(workers)); err != nil {
		return fmt.Errorf("failed to encode CSV: %w", err)
	}

	return utils.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// configureReader configures the CSV reader.
func configureReader(reader *csv.Reader, delimiter rune) {
	if delimiter != 0 {
		reader.Comma = delimiter
	}

	// Spreadsheet exports often drop trailing empty cells.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = !unicode.IsSpace(reader.Comma)
}

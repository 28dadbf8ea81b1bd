package roster

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mezeipetister/dailyworker/internal/store"
	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleWorkers() []types.Worker {
	a := types.NewWorker()
	a.Name = "Kiss Anna"
	a.NationalHealthID = "012345678"
	a.TaxNumber = "8123456786"
	a.MothersName = "Nagy Éva"
	a.Birthdate = "1987-04-23"
	a.Birthplace = "Szeged"
	a.PostalCode = "6720"
	a.City = "Szeged"
	a.Street = "Kárász utca 1."
	a.IsSelected = true

	b := types.NewWorker()
	b.Name = "Szabó Péter"
	b.City = "Makó"
	return []types.Worker{a, b}
}

// withoutIDs clears the ids, which are never carried through a roster.
func withoutIDs(workers []types.Worker) []types.Worker {
	out := make([]types.Worker, len(workers))
	for i, w := range workers {
		w.ID = uuid.Nil
		out[i] = w
	}
	return out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	workers := sampleWorkers()

	require.NoError(t, WriteCSV(path, workers, ';'))

	result, err := ReadCSV(path, ';')
	require.NoError(t, err)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, withoutIDs(workers), withoutIDs(result.Workers))
}

func TestXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	workers := sampleWorkers()

	require.NoError(t, WriteXLSX(path, workers))

	result, err := ReadXLSX(path)
	require.NoError(t, err)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, withoutIDs(workers), withoutIDs(result.Workers))
}

func TestWriteXLSXHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, WriteXLSX(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, SheetName, f.GetSheetName(0))
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Columns, rows[0])
}

func TestReadXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Extra", " NAME ", "TAJ", "Zip"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"ignored", "Kiss Anna", "123 456 788", "6720"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"ignored", "", "111111111", ""}))

	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	result, err := ReadXLSX(path)
	require.NoError(t, err)

	require.Len(t, result.Workers, 1)
	assert.Equal(t, "Kiss Anna", result.Workers[0].Name)
	assert.Equal(t, "123456788", result.Workers[0].NationalHealthID)
	assert.Equal(t, "6720", result.Workers[0].PostalCode)
	assert.Equal(t, []SkippedRow{{Row: 3, Reason: "missing name"}}, result.Skipped)
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "input.csv",
		"\ufeffName,Birthdate,Selected,Unknown\n"+
			"Kiss Anna,1987.04.23.,igen,x\n"+
			",,,\n"+
			"  ,1990-01-01,1\n"+
			"Szabó Péter,unknown\n"+
			"Nagy József,03-04-65\n")

	result, err := ReadCSV(path, 0)
	require.NoError(t, err)

	require.Len(t, result.Workers, 3)
	assert.Equal(t, "Kiss Anna", result.Workers[0].Name)
	assert.Equal(t, "1987-04-23", result.Workers[0].Birthdate)
	assert.True(t, result.Workers[0].IsSelected)

	assert.Equal(t, "Szabó Péter", result.Workers[1].Name)
	assert.Equal(t, "unknown", result.Workers[1].Birthdate)
	assert.False(t, result.Workers[1].IsSelected)

	assert.Equal(t, "1965-03-04", result.Workers[2].Birthdate)

	assert.Equal(t, []SkippedRow{{Row: 4, Reason: "missing name"}}, result.Skipped)
}

func TestNormalizeBirthdate(t *testing.T) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.Local)

	tests := []struct {
		value    string
		expected string
	}{
		{"1987-04-23", "1987-04-23"},
		{"1987.04.23.", "1987-04-23"},
		{"1987. 04. 23.", "1987-04-23"},
		{"1987/04/23", "1987-04-23"},
		{"04-23-87", "1987-04-23"},
		{"03-04-65", "1965-03-04"},
		{"12-31-25", "2025-12-31"},
		{"10-19-26", "1926-10-19"},
		{"23/04/1987", "23/04/1987"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeBirthdateAt(tt.value, now))
		})
	}
}

func TestReadAssignsFreshIDs(t *testing.T) {
	path := writeFile(t, "input.csv", "name\nKiss Anna\nKiss Anna\n")

	result, err := ReadCSV(path, 0)
	require.NoError(t, err)

	require.Len(t, result.Workers, 2)
	assert.NotEqual(t, uuid.Nil, result.Workers[0].ID)
	assert.NotEqual(t, result.Workers[0].ID, result.Workers[1].ID)
}

func TestReadWithoutNameColumn(t *testing.T) {
	path := writeFile(t, "input.csv", "taj,zip\n123456788,6720\n")

	_, err := ReadCSV(path, 0)
	assert.Error(t, err)
}

func TestReadEmptyFile(t *testing.T) {
	result, err := ReadCSV(writeFile(t, "empty.csv", ""), 0)
	require.NoError(t, err)
	assert.Empty(t, result.Workers)
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{"comma", ',', false},
		{"tab", '\t', false},
		{"\\t", '\t', false},
		{"pipe", '|', false},
		{";", ';', false},
		{"#", '#', false},
		{"::", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDelimiter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("dolgozok.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFromPath("dolgozok.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromPath("dolgozok.ods")
	assert.Error(t, err)

	_, err = Read("dolgozok.csv", Options{Format: "ods"})
	assert.Error(t, err)
}

func TestReadWriteDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.dat")
	workers := sampleWorkers()

	require.NoError(t, Write(path, workers, Options{Format: "CSV", Delimiter: '\t'}))

	result, err := Read(path, Options{Format: FormatCSV, Delimiter: '\t'})
	require.NoError(t, err)
	assert.Len(t, result.Workers, len(workers))
}

func TestImport(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	n, err := Import(s, sampleWorkers())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Len())
	assert.Len(t, s.Selected(), 1)
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "a.csv")
	xlsxPath := filepath.Join(dir, "b.xlsx")
	require.NoError(t, WriteCSV(csvPath, sampleWorkers(), 0))
	require.NoError(t, WriteXLSX(xlsxPath, sampleWorkers()[:1]))
	missing := filepath.Join(dir, "missing.csv")

	results := ReadFiles([]string{csvPath, missing, xlsxPath}, Options{})
	require.Len(t, results, 3)

	assert.Equal(t, csvPath, results[0].Path)
	require.NoError(t, results[0].Err)
	assert.Len(t, results[0].Result.Workers, 2)

	assert.Equal(t, missing, results[1].Path)
	assert.Error(t, results[1].Err)

	require.NoError(t, results[2].Err)
	assert.Len(t, results[2].Result.Workers, 1)
}

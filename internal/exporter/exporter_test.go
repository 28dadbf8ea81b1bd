package exporter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mezeipetister/dailyworker/internal/store"
	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/mezeipetister/dailyworker/internal/xmlwriter"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.Local)

func clock() time.Time { return exportTime }

func testHeader() xmlwriter.Header {
	h := xmlwriter.DefaultHeader()
	h.TaxpayerTaxNumber = "12345678201"
	h.TaxpayerName = "Minta Kft."
	return h
}

func newStore(t *testing.T, names ...string) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	for _, name := range names {
		w := types.NewWorker()
		w.Name = name
		_, err := s.Add(w)
		require.NoError(t, err)
	}
	return s
}

func selectAll(t *testing.T, s *store.Store) {
	t.Helper()
	for _, w := range s.All() {
		_, ok, err := s.SetSelected(w.ID, true)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestExportWritesSelectedWorkers(t *testing.T) {
	s := newStore(t, "Kiss Anna", "Szabó Péter")
	selectAll(t, s)
	dir := filepath.Join(t.TempDir(), "out")

	e := New(s, testHeader(), Options{}, WithClock(clock))
	result, err := e.Export(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20240305_093000.xml"), result.OutputFile)
	assert.Equal(t, 2, result.Workers)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)

	expected, err := xmlwriter.Render(s.Selected(), testHeader(), exportTime)
	require.NoError(t, err)
	assert.Equal(t, expected, data)
}

func TestExportNothingSelected(t *testing.T) {
	s := newStore(t, "Kiss Anna")
	dir := t.TempDir()

	_, err := New(s, testHeader(), Options{}, WithClock(clock)).Export(dir)
	assert.True(t, errors.Is(err, ErrNothingSelected))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportAllowEmpty(t *testing.T) {
	s := newStore(t)

	result, err := New(s, testHeader(), Options{AllowEmpty: true}, WithClock(clock)).Export(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, result.Workers)
	assert.FileExists(t, result.OutputFile)
}

func TestExportFileFormat(t *testing.T) {
	s := newStore(t, "Kiss Anna")
	selectAll(t, s)

	e := New(s, testHeader(), Options{FileFormat: "bejelentes_{date}"}, WithClock(clock))
	result, err := e.Export(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "bejelentes_20240305.xml", filepath.Base(result.OutputFile))
}

func TestExportChecks(t *testing.T) {
	s := newStore(t, "Kiss Anna")
	selectAll(t, s)

	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	result, err := New(s, testHeader(), Options{}, WithClock(clock), WithLogger(log)).Export(t.TempDir())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Issues)
	assert.Contains(t, buf.String(), "rule=taj")

	_, err = New(s, testHeader(), Options{Strict: true}, WithClock(clock)).Export(t.TempDir())
	assert.Error(t, err)

	result, err = New(s, testHeader(), Options{Strict: true, SkipChecks: true}, WithClock(clock)).Export(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
}

func TestWriteTo(t *testing.T) {
	s := newStore(t, "Kiss Anna")
	selectAll(t, s)

	var buf bytes.Buffer
	result, err := New(s, testHeader(), Options{}, WithClock(clock)).WriteTo(&buf)
	require.NoError(t, err)

	assert.Empty(t, result.OutputFile)
	assert.Equal(t, 1, result.Workers)
	assert.Contains(t, buf.String(), `<mezo eazon="0B0001C0001AA">Kiss Anna</mezo>`)
}

func TestExportKeepsEarlierDeclaration(t *testing.T) {
	s := newStore(t, "Kiss Anna")
	selectAll(t, s)
	dir := t.TempDir()
	e := New(s, testHeader(), Options{}, WithClock(clock))

	first, err := e.Export(dir)
	require.NoError(t, err)
	second, err := e.Export(dir)
	require.NoError(t, err)

	assert.NotEqual(t, first.OutputFile, second.OutputFile)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

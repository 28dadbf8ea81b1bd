package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
log_level: debug
declaration:
  taxpayer_tax_number: "12345678201"
  taxpayer_name: "Minta Kft."
  taxpayer_phone: "06301234567"
`

type testEnv struct {
	config string
	data   string
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		config: filepath.Join(dir, "config.yaml"),
		data:   filepath.Join(dir, "data"),
		dir:    dir,
	}
	require.NoError(t, os.WriteFile(env.config, []byte(testConfig), 0644))
	return env
}

func (e *testEnv) run(args ...string) (string, error) {
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", e.config, "--data-dir", e.data}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(args...)
	require.NoError(t, err, "dailyworker %s", strings.Join(args, " "))
	return out
}

func (e *testEnv) listJSON(t *testing.T, args ...string) []types.Worker {
	t.Helper()
	out := e.mustRun(t, append([]string{"worker", "list", "--json"}, args...)...)
	var workers []types.Worker
	require.NoError(t, json.Unmarshal([]byte(out), &workers))
	return workers
}

func TestWorkerLifecycle(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "worker", "add", "--name", "Kiss Anna", "--taj", "123 456 788", "--city", "Szeged")
	assert.Contains(t, out, "Added Kiss Anna")
	env.mustRun(t, "worker", "add", "--name", "Szabó Péter")

	workers := env.listJSON(t)
	require.Len(t, workers, 2)
	assert.Equal(t, "Kiss Anna", workers[0].Name)
	assert.Equal(t, "123456788", workers[0].NationalHealthID)
	assert.False(t, workers[0].IsSelected)

	out = env.mustRun(t, "worker", "show", "kiss anna")
	assert.Contains(t, out, "123456788")
	assert.Contains(t, out, workers[0].ID.String())

	env.mustRun(t, "worker", "update", workers[0].ShortID(), "--city", "Makó")
	updated := env.listJSON(t)
	assert.Equal(t, "Makó", updated[0].City)
	assert.Equal(t, "123456788", updated[0].NationalHealthID)

	out = env.mustRun(t, "worker", "remove", "Szabó Péter")
	assert.Contains(t, out, "Removed Szabó Péter")
	assert.Len(t, env.listJSON(t), 1)

	_, err := env.run("worker", "show", "Szabó Péter")
	assert.Error(t, err)
}

func TestWorkerAddRequiresName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("worker", "add", "--taj", "123456788")
	assert.Error(t, err)

	_, err = env.run("worker", "add", "--name", "   ")
	assert.Error(t, err)
}

func TestSelectAndExport(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "worker", "add", "--name", "Kiss Anna")
	env.mustRun(t, "worker", "add", "--name", "Szabó Péter")

	outDir := filepath.Join(env.dir, "out")
	_, err := env.run("export", "--dir", outDir)
	assert.ErrorContains(t, err, "no worker is selected")

	out := env.mustRun(t, "worker", "select", "Kiss Anna")
	assert.Contains(t, out, "1 selected in total")
	assert.Len(t, env.listJSON(t, "--selected"), 1)

	out = env.mustRun(t, "export", "--dir", outDir)
	assert.Contains(t, out, "Declared 1 worker(s)")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".xml"))

	doc, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(doc), `<mezo eazon="0B0001C0001AA">Kiss Anna</mezo>`)
	assert.Contains(t, string(doc), `<mezo eazon="0A0001E001A">Minta Kft.</mezo>`)
	assert.NotContains(t, string(doc), "Szabó Péter")

	_, err = env.run("export", "--dir", outDir, "--strict")
	assert.Error(t, err, "the selected worker has incomplete data")

	out = env.mustRun(t, "export", "--stdout")
	assert.True(t, strings.HasPrefix(out, "<?xml"))

	out = env.mustRun(t, "worker", "unselect", "--all")
	assert.Contains(t, out, "0 selected in total")
}

func TestSelectArguments(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "worker", "add", "--name", "Kiss Anna")

	_, err := env.run("worker", "select")
	assert.Error(t, err)

	_, err = env.run("worker", "select", "--all", "Kiss Anna")
	assert.Error(t, err)

	_, err = env.run("worker", "select", "Nobody")
	assert.Error(t, err)
}

func TestWorkerCheck(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "worker", "add", "--name", "Kiss Anna", "--taj", "123456788", "--zip", "6720")

	out := env.mustRun(t, "worker", "check")
	assert.Contains(t, out, "Workers checked: 1")
	assert.Contains(t, out, "Errors:          0")

	_, err := env.run("worker", "check", "--strict")
	assert.Error(t, err)
}

func TestWorkerCheckSkipChecksums(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "worker", "add", "--name", "Kiss Anna", "--taj", "123456789", "--zip", "6720")

	out := env.mustRun(t, "worker", "check")
	assert.Contains(t, out, "TAJ number check digit does not match")

	out = env.mustRun(t, "worker", "check", "--skip-checksums")
	assert.NotContains(t, out, "TAJ number check digit does not match")
}

func TestRosterExportImport(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "worker", "add", "--name", "Kiss Anna", "--taj", "012345678", "--selected")
	env.mustRun(t, "worker", "add", "--name", "Szabó Péter")

	xlsxPath := filepath.Join(env.dir, "roster.xlsx")
	csvPath := filepath.Join(env.dir, "roster.csv")
	env.mustRun(t, "roster", "export", xlsxPath)
	env.mustRun(t, "roster", "export", csvPath, "--selected", "--delimiter", "semicolon")

	other := newTestEnv(t)
	out := other.mustRun(t, "roster", "import", xlsxPath, csvPath, "--delimiter", ";")
	assert.Contains(t, out, "Imported:     3")

	workers := other.listJSON(t)
	require.Len(t, workers, 3)
	assert.Equal(t, "012345678", workers[0].NationalHealthID)
	assert.Len(t, other.listJSON(t, "--selected"), 2)

	out = other.mustRun(t, "roster", "import", "--dry-run", xlsxPath)
	assert.Contains(t, out, "Dry run")
	assert.Len(t, other.listJSON(t), 3)

	_, err := other.run("roster", "import", filepath.Join(env.dir, "missing.csv"))
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	env := newTestEnv(t)
	legacyFile := filepath.Join(env.dir, "workersdb")
	require.NoError(t, os.WriteFile(legacyFile, []byte(`{
		"employers": [], "employer_counter": 0, "worker_counter": 1,
		"workers": [{"id": 1, "name": "Kiss Anna", "taj": "123456788", "taxnumber": "",
			"mothersname": "", "birthdate": "1987-04-23", "birthplace": "", "zip": 6720,
			"city": "Szeged", "street": "", "is_selected": true}]
	}`), 0644))

	out := env.mustRun(t, "migrate", legacyFile)
	assert.Contains(t, out, "Migrated 1 worker(s)")

	workers := env.listJSON(t)
	require.Len(t, workers, 1)
	assert.Equal(t, "6720", workers[0].PostalCode)
	assert.True(t, workers[0].IsSelected)

	out = env.mustRun(t, "migrate", legacyFile)
	assert.Contains(t, out, "Migrated 0 worker(s)")
	assert.Len(t, env.listJSON(t), 1)
}

func TestConfigInitAndShow(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config", "show")
	assert.Contains(t, out, "taxpayer_name: Minta Kft.")

	_, err := env.run("config", "init")
	assert.Error(t, err, "existing files are kept")

	env.config = filepath.Join(env.dir, "new", "config.yaml")
	_, err = env.run("config", "show")
	assert.Error(t, err, "an explicit --config must exist")

	out = env.mustRun(t, "config", "init")
	assert.Contains(t, out, "Fill in the declaration section")
	assert.FileExists(t, env.config)

	out = env.mustRun(t, "config", "show")
	assert.Contains(t, out, "form_code: T1042E")
}

func TestVerboseEnablesDebugLogging(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.config, []byte("log_level: warn\n"), 0644))

	for _, verbose := range []bool{false, true} {
		root := NewRootCmd()
		var out, errOut bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&errOut)
		args := []string{"--config", env.config, "--data-dir", env.data, "worker", "list"}
		if verbose {
			args = append(args, "-v")
		}
		root.SetArgs(args)
		require.NoError(t, root.Execute())

		if verbose {
			assert.Contains(t, errOut.String(), "configuration loaded")
		} else {
			assert.NotContains(t, errOut.String(), "configuration loaded")
		}
	}
}

func TestVersion(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--config", "/nonexistent/config.yaml"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Version:    "+Version)
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryCSV = "Ammo Type,Gauge or Ammo Size,Brand,Slug Size,Quantity Box,Quantity Loose,Quantity in Magazine,Type,Grain,Firearm Type,Date Entered\n" +
	"Shotgun,12,Federal,,2,10,0,Buckshot,,Pump,2024-03-01\n" +
	"Shotgun,12,Remington,1 oz,1,,0,Slug,,Pump,2024-03-01\n"

type result struct {
	code   int
	stdout string
	stderr string
}

// run executes the CLI against a SQLite file in a temp directory shared
// by every call in the test.
func run(t *testing.T, db string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--db", db, "--driver", "sqlite"}, args...)
	code := Execute(context.Background(), full, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func setup(t *testing.T) (db, dir string) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("INGEST_COERCION", "lenient")
	dir = t.TempDir()
	return filepath.Join(dir, "ammo.db"), dir
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitLoadList(t *testing.T) {
	db, dir := setup(t)

	res := run(t, db, "init")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Inventory ready (sqlite: "+db+")")

	res = run(t, db, "load", writeCSV(t, dir, "in.csv", inventoryCSV))
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Loaded 2 items from in.csv.")
	assert.Contains(t, res.stdout, "1 quantities were blank or invalid")

	res = run(t, db, "list")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	lines := strings.Split(res.stdout, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, res.stdout, "Federal")
	assert.Contains(t, res.stdout, "Remington")
}

func TestReadsOnFreshDatabase(t *testing.T) {
	db, _ := setup(t)

	res := run(t, db, "list")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "No items in inventory.\n", res.stdout)

	res = run(t, db, "search", "buck")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, core.NoResultsMessage+"\n", res.stdout)

	res = run(t, db, "export", "-")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, strings.Join(core.Columns, ",")+"\n", res.stdout)
}

func TestLoad_StrictFails(t *testing.T) {
	db, dir := setup(t)
	path := writeCSV(t, dir, "in.csv", inventoryCSV)

	res := run(t, db, "--coercion", "strict", "load", path)
	assert.Equal(t, ExitFailure, res.code)
	assert.True(t, strings.HasPrefix(res.stderr, "VAL003: ") || strings.HasPrefix(res.stderr, "VAL001: "), res.stderr)

	res = run(t, db, "--format", "json", "list")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	var resp struct {
		Status string        `json:"status"`
		Data   []core.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Empty(t, resp.Data)
}

func TestLoad_MissingFile(t *testing.T) {
	db, dir := setup(t)

	res := run(t, db, "--format", "json", "load", filepath.Join(dir, "nope.csv"))
	assert.Equal(t, ExitFailure, res.code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FILE001", resp.Error.Code)
}

func TestAdd(t *testing.T) {
	db, _ := setup(t)

	res := run(t, db, "add",
		"--ammo-type", "Rifle", "--brand", "Hornady", "--type", "ELD-X",
		"--quantity-box", "3", "--quantity-loose", "4", "--quantity-in-magazine", "0")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Added item 1.")

	res = run(t, db, "add", "--quantity-box", "-1", "--quantity-loose", "x")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "  Quantity_Box: must not be negative")
	assert.Contains(t, res.stderr, "  Quantity_Loose: must be a whole number")
	assert.Contains(t, res.stderr, "  Quantity_in_Magazine: is required")
}

func TestSearch(t *testing.T) {
	db, dir := setup(t)
	require.Equal(t, ExitSuccess, run(t, db, "load", writeCSV(t, dir, "in.csv", inventoryCSV)).code)

	res := run(t, db, "search", "BUCK")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Federal")
	assert.NotContains(t, res.stdout, "Remington")

	res = run(t, db, "search", "tracer")
	require.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, core.NoResultsMessage+"\n", res.stdout)
}

func TestExport(t *testing.T) {
	db, dir := setup(t)
	require.Equal(t, ExitSuccess, run(t, db, "load", writeCSV(t, dir, "in.csv", inventoryCSV)).code)

	out := filepath.Join(dir, "out.csv")
	res := run(t, db, "export", out)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Exported 2 items")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(core.Columns, ",")+"\n"))

	res = run(t, db, "export", "-")
	require.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, string(data), res.stdout)
}

func TestReset(t *testing.T) {
	db, dir := setup(t)
	require.Equal(t, ExitSuccess, run(t, db, "load", writeCSV(t, dir, "in.csv", inventoryCSV)).code)

	res := run(t, db, "reset")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "USAGE: ")

	res = run(t, db, "reset", "--yes")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = run(t, db, "list")
	assert.Equal(t, "No items in inventory.\n", res.stdout)
}

func TestParse(t *testing.T) {
	db, dir := setup(t)
	path := writeCSV(t, dir, "raw.csv", "name,quantity boxed,quantity loose,Quantity in Box\nFederal,2,,3\n")

	res := run(t, db, "--format", "json", "parse", path)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var resp struct {
		Data ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, 1, resp.Data.Defaulted)
	assert.Equal(t, "Federal", resp.Data.Rows[0]["name"])
	assert.Equal(t, float64(2), resp.Data.Rows[0]["quantity boxed"])

	res = run(t, db, "parse", "--numeric", "missing", path)
	assert.Equal(t, ExitFailure, res.code)
	assert.True(t, strings.HasPrefix(res.stderr, "PARSE002: "), res.stderr)
}

func TestUsageErrors(t *testing.T) {
	db, _ := setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"fly"}},
		{"missing argument", []string{"load"}},
		{"bad format", []string{"--format", "xml", "list"}},
		{"bad coercion", []string{"--coercion", "loose", "list"}},
		{"unknown flag", []string{"add", "--caliber", "9mm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, db, tt.args...)
			assert.Equal(t, ExitCommandError, res.code)
			assert.NotEmpty(t, res.stderr)
		})
	}
}

func TestOutputFormatter_TextError(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}

	err := fail(&core.ParseError{Err: core.ErrEmptyFile})
	require.NoError(t, f.Error(err))

	assert.Empty(t, out.String())
	msg := core.MapError(err)
	assert.Equal(t, "FILE004: "+msg.Message+". "+msg.Action+"\n", errOut.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(fail(assert.AnError)))
	assert.Equal(t, ExitCommandError, GetExitCode(usageError("bad")))
	assert.Equal(t, ExitCommandError, GetExitCode(assert.AnError))
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
	"github.com/ajitpratap0/pgscope/pkg/query"
	"github.com/ajitpratap0/pgscope/pkg/rowmap"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PGSCOPE_DATABASE_URL", "PGSCOPE_POOL_CAPACITY", "PGSCOPE_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pgscope v"+version)
}

func TestMissingDatabaseURL(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "tables")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url is required")
}

func TestUnknownOutputFormat(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "tables", "--database-url", "postgres://localhost/db", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestColumnsRequiresTableArgument(t *testing.T) {
	_, err := execute(t, "columns")
	assert.Error(t, err)
}

func TestLoadConfigLayers(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGSCOPE_POOL_CAPACITY", "7")

	path := filepath.Join(t.TempDir(), "pgscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  url: postgres://file/db\n  pool_capacity: 2\nguard:\n  policy: reference\n"), 0o600))

	root, opts := buildRoot(&bytes.Buffer{})
	require.NoError(t, root.PersistentFlags().Parse([]string{"--config", path, "--log-level", "debug"}))

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
	assert.Equal(t, 7, cfg.Database.PoolCapacity, "environment overrides the file")
	assert.Equal(t, "reference", cfg.Guard.Policy)
	assert.Equal(t, "debug", cfg.Logging.Level, "flags override defaults")
}

func TestDialFailureIsConnectionError(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "tables",
		"--database-url", "postgres://u:p@127.0.0.1:1/db?sslmode=disable",
		"--connect-timeout", "1s",
		"--log-level", "error")
	require.Error(t, err)
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeConnection))
}

func TestRenderFormats(t *testing.T) {
	cols := []rowmap.ColumnDescriptor{
		{Name: "id", DataType: "bigint"},
		{Name: "enabled", DataType: "boolean", Nullable: true},
	}

	var buf bytes.Buffer
	require.NoError(t, renderColumns(&buf, formatJSON, cols))
	var decoded []rowmap.ColumnDescriptor
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, cols, decoded)

	buf.Reset()
	require.NoError(t, renderColumns(&buf, formatYAML, cols))
	decoded = nil
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, cols, decoded)

	buf.Reset()
	require.NoError(t, renderColumns(&buf, formatTable, cols))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "NULL")

	assert.Error(t, render(&buf, "xml", cols, func(*tabwriter.Writer) {}))
}

func TestRenderResult(t *testing.T) {
	res := &query.Result{
		Columns: []string{"id", "name"},
		Rows:    []rowmap.Row{{rowmap.Int64(1), rowmap.String("Daniel")}, {rowmap.Int64(2), rowmap.Null()}},
	}

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, formatJSON, res))
	assert.JSONEq(t, `[{"id":1,"name":"Daniel"},{"id":2,"name":null}]`, buf.String())

	buf.Reset()
	require.NoError(t, renderResult(&buf, formatTable, res))
	assert.Contains(t, buf.String(), "Daniel")
	assert.Contains(t, buf.String(), "NULL")
}

func TestRenderPeople(t *testing.T) {
	yes := true
	people := []rowmap.Person{{ID: 1, Name: "Daniel", Email: "d@example.com", Enabled: &yes}, {ID: 2, Name: "A", Email: "a@x.com"}}

	var buf bytes.Buffer
	require.NoError(t, renderPeople(&buf, formatTable, people))
	out := buf.String()
	assert.Contains(t, out, "d@example.com")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "NULL")
}

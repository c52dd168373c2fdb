package sqlfiles

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/bqrun/pkg/bqrun"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"queries/02_filter.sql":      {Data: []byte("SELECT 2")},
		"queries/01_load.sql":        {Data: []byte("  SELECT 1\n")},
		"queries/README.md":          {Data: []byte("# notes")},
		"queries/nested/03_skip.sql": {Data: []byte("SELECT 3")},
		"queries/10_UPPER.SQL":       {Data: []byte("SELECT 10")},
		"single/Create Samples.sql":  {Data: []byte("CREATE TABLE t AS SELECT 1")},
		"empty/blank.sql":            {Data: []byte("   \n")},
		"nosql/notes.txt":            {Data: []byte("nothing")},
	}
}

func TestLoad_Directory_SortedAndFiltered(t *testing.T) {
	l := NewLoader(testFS())

	got, err := l.Load("queries")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, Statement{Label: "01_load", Path: "queries/01_load.sql", SQL: "SELECT 1"}, got[0])
	assert.Equal(t, "02_filter", got[1].Label)
	assert.Equal(t, "10_UPPER", got[2].Label)
}

func TestLoad_SingleFile(t *testing.T) {
	l := NewLoader(testFS())

	got, err := l.Load("single/Create Samples.sql")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Create Samples", got[0].Label)
	assert.Equal(t, "CREATE TABLE t AS SELECT 1", got[0].SQL)
}

func TestLoad_MultiplePathsKeepOrder(t *testing.T) {
	l := NewLoader(testFS())

	got, err := l.Load("single/Create Samples.sql", "queries/02_filter.sql")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Create Samples", got[0].Label)
	assert.Equal(t, "02_filter", got[1].Label)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		paths     []string
		noStmts   bool
		errSubstr string
	}{
		{name: "missing path", paths: []string{"nope.sql"}, errSubstr: "nope.sql"},
		{name: "empty file", paths: []string{"empty/blank.sql"}, noStmts: true, errSubstr: "is empty"},
		{name: "directory without sql", paths: []string{"nosql"}, noStmts: true, errSubstr: "no .sql files"},
		{name: "no paths", paths: nil, noStmts: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(testFS()).Load(tt.paths...)
			require.Error(t, err)
			if tt.noStmts {
				assert.ErrorIs(t, err, bqrun.ErrNoStatements)
			}
			if tt.errSubstr != "" {
				assert.Contains(t, err.Error(), tt.errSubstr)
			}
		})
	}
}

func TestLabelFor(t *testing.T) {
	tests := map[string]string{
		"a/b/Query One.sql": "Query One",
		"report.sql":        "report",
		"noext":             "noext",
		"dir/x.tar.sql":     "x.tar",
	}
	for in, want := range tests {
		assert.Equal(t, want, LabelFor(in), in)
	}
}

func TestNewOSLoader_AbsolutePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.sql"), []byte("SELECT 'b'"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sql"), []byte("SELECT 'a'"), 0644))

	got, err := NewOSLoader().Load(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Label)
	assert.Equal(t, "SELECT 'b'", got[1].SQL)
}

func TestNewLoader_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewLoader(nil) })
}

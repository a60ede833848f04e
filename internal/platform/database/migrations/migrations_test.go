package migrations

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnDef(t *testing.T, file, column string) string {
	t.Helper()
	f, err := FS.Open(file)
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, column+" ") {
			return line
		}
	}
	require.NoError(t, sc.Err())
	t.Fatalf("column %s not found in %s", column, file)
	return ""
}

func TestTasksSchema_AssigneeIsPlainValue(t *testing.T) {
	t.Parallel()

	// Any well-formed id may be stored as the assignee, same as the other stores.
	assert.NotContains(t, columnDef(t, "00002_create_tasks.sql", "assigned_to"), "REFERENCES")
	assert.Contains(t, columnDef(t, "00002_create_tasks.sql", "owner_id"), "REFERENCES users (id)")
}

func TestMigrations_HaveGooseSections(t *testing.T) {
	t.Parallel()

	entries, err := FS.ReadDir(".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		raw, err := FS.ReadFile(e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(raw), "-- +goose Up", e.Name())
		assert.Contains(t, string(raw), "-- +goose Down", e.Name())
	}
}

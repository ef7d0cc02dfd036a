package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InMemory(t *testing.T) {
	db, err := New("file:dbtest?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	// Migrations are idempotent.
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestNew_CreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/dir/history.db"

	db, err := New(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	assert.Positive(t, db.SizeBytes())
}

func TestBuildConnectionString(t *testing.T) {
	plain := buildConnectionString("/tmp/history.db")
	assert.Contains(t, plain, "/tmp/history.db?_pragma=journal_mode(WAL)")

	// file: URIs with an existing query string keep a single "?".
	uri := buildConnectionString("file:mem?mode=memory")
	assert.Contains(t, uri, "file:mem?mode=memory&_pragma=journal_mode(WAL)")
}

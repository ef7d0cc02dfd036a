package history

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quanthash/internal/database"
	"github.com/aristath/quanthash/internal/quantum"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn(), zerolog.Nop())
}

func sampleRecord(t *testing.T) Record {
	t.Helper()

	res, err := quantum.Run([]byte("stored input"), quantum.BasisHadamard, 3)
	require.NoError(t, err)

	return Record{
		Source:           "text",
		InputSize:        12,
		Basis:            res.Basis.String(),
		Rounds:           res.Rounds,
		FinalHash:        res.Hash,
		FirstRoundStates: res.FirstRoundStates,
	}
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	rec := sampleRecord(t)

	id, err := repo.Save(rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.GetByUUID(id)
	require.NoError(t, err)

	assert.Equal(t, rec.FinalHash, got.FinalHash)
	assert.Equal(t, rec.Basis, got.Basis)
	assert.Equal(t, rec.Rounds, got.Rounds)
	assert.Equal(t, rec.Source, got.Source)
	assert.Equal(t, rec.InputSize, got.InputSize)
	// The StateSet survives the msgpack round trip intact.
	assert.Equal(t, rec.FirstRoundStates, got.FirstRoundStates)
}

func TestRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByUUID("no-such-id")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRepository_ListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)

	older := sampleRecord(t)
	older.UUID = "older"
	older.CreatedAt = time.Now().Add(-2 * time.Hour)
	_, err := repo.Save(older)
	require.NoError(t, err)

	newer := sampleRecord(t)
	newer.UUID = "newer"
	newer.CreatedAt = time.Now().Add(-1 * time.Hour)
	_, err = repo.Save(newer)
	require.NoError(t, err)

	records, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "newer", records[0].UUID)
	assert.Equal(t, "older", records[1].UUID)
}

func TestRepository_CountAndPrune(t *testing.T) {
	repo := newTestRepo(t)

	stale := sampleRecord(t)
	stale.CreatedAt = time.Now().Add(-48 * time.Hour)
	_, err := repo.Save(stale)
	require.NoError(t, err)

	fresh := sampleRecord(t)
	_, err = repo.Save(fresh)
	require.NoError(t, err)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	job := NewPruneJob(repo, 1)
	require.NoError(t, job.Run())
	assert.Equal(t, "history:prune", job.Name())

	count, err = repo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

// Package history persists hash results so past runs can be listed
// and re-inspected. Storage is optional; the server runs without it
// when history is disabled.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/quanthash/internal/quantum"
)

// Record is one stored hash result.
type Record struct {
	UUID      string
	CreatedAt time.Time
	Source    string // "text" or "file"
	InputSize int64
	Basis     string
	Rounds    int
	FinalHash string
	// FirstRoundStates is stored as a msgpack blob and only decoded
	// when a single record is fetched.
	FirstRoundStates quantum.StateSet
}

// Repository handles CRUD operations for hash result records.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
}

// statesBlob is the msgpack shape of the stored StateSet.
type statesBlob struct {
	States [][]byte `msgpack:"states"`
}

func encodeStates(states quantum.StateSet) ([]byte, error) {
	blob := statesBlob{States: make([][]byte, quantum.NumStates)}
	for i := range states {
		s := states[i]
		blob.States[i] = s[:]
	}
	return msgpack.Marshal(blob)
}

func decodeStates(data []byte) (quantum.StateSet, error) {
	var blob statesBlob
	var states quantum.StateSet

	if err := msgpack.Unmarshal(data, &blob); err != nil {
		return states, fmt.Errorf("failed to decode states blob: %w", err)
	}
	if len(blob.States) != quantum.NumStates {
		return states, fmt.Errorf("states blob holds %d states, want %d", len(blob.States), quantum.NumStates)
	}
	for i, s := range blob.States {
		if len(s) != quantum.DigestSize {
			return states, fmt.Errorf("state %d is %d bytes, want %d", i, len(s), quantum.DigestSize)
		}
		copy(states[i][:], s)
	}
	return states, nil
}

// Save stores a result and returns the record's UUID.
func (r *Repository) Save(rec Record) (string, error) {
	if rec.UUID == "" {
		rec.UUID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	blob, err := encodeStates(rec.FirstRoundStates)
	if err != nil {
		return "", fmt.Errorf("failed to encode states: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO hash_results
			(uuid, created_at, source, input_size, basis, rounds, final_hash, states_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UUID, rec.CreatedAt.Unix(), rec.Source, rec.InputSize,
		rec.Basis, rec.Rounds, rec.FinalHash, blob,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert hash result: %w", err)
	}

	r.log.Debug().Str("uuid", rec.UUID).Str("hash", rec.FinalHash).Msg("Stored hash result")
	return rec.UUID, nil
}

// List returns the newest records first, without their state blobs.
func (r *Repository) List(limit int) ([]Record, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT uuid, created_at, source, input_size, basis, rounds, final_hash
		FROM hash_results
		ORDER BY created_at DESC, uuid
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list hash results: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(&rec.UUID, &createdAt, &rec.Source, &rec.InputSize,
			&rec.Basis, &rec.Rounds, &rec.FinalHash); err != nil {
			return nil, fmt.Errorf("failed to scan hash result: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByUUID fetches one record including its decoded StateSet.
// Returns sql.ErrNoRows when the record does not exist.
func (r *Repository) GetByUUID(id string) (*Record, error) {
	var rec Record
	var createdAt int64
	var blob []byte

	err := r.db.QueryRow(`
		SELECT uuid, created_at, source, input_size, basis, rounds, final_hash, states_blob
		FROM hash_results
		WHERE uuid = ?`, id).Scan(
		&rec.UUID, &createdAt, &rec.Source, &rec.InputSize,
		&rec.Basis, &rec.Rounds, &rec.FinalHash, &blob,
	)
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	rec.FirstRoundStates, err = decodeStates(blob)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Count returns the number of stored records.
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM hash_results`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count hash results: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes records created before the cutoff and
// returns how many were deleted.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM hash_results WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old hash results: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		r.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Pruned hash history")
	}
	return deleted, nil
}

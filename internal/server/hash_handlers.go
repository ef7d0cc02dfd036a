package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/quanthash/internal/analysis"
	"github.com/aristath/quanthash/internal/classical"
	"github.com/aristath/quanthash/internal/history"
	"github.com/aristath/quanthash/internal/quantum"
)

// HistoryStore is the subset of the history repository the handlers
// need. Nil means history is disabled.
type HistoryStore interface {
	Save(rec history.Record) (string, error)
	List(limit int) ([]history.Record, error)
	GetByUUID(id string) (*history.Record, error)
	Count() (int64, error)
}

// HashHandlers serves the hash pipeline endpoints.
type HashHandlers struct {
	log       zerolog.Logger
	store     HistoryStore
	maxUpload int64
}

// NewHashHandlers creates the hash endpoint handlers
func NewHashHandlers(log zerolog.Logger, store HistoryStore, maxUpload int64) *HashHandlers {
	return &HashHandlers{
		log:       log.With().Str("component", "hash_handlers").Logger(),
		store:     store,
		maxUpload: maxUpload,
	}
}

// HashRequest is the JSON body for text hashing.
type HashRequest struct {
	Text   string `json:"text"`
	Basis  string `json:"basis"`
	Rounds int    `json:"rounds"`
}

// HashResponse is the common response for text and file hashing.
type HashResponse struct {
	UUID      string                 `json:"uuid,omitempty"`
	FinalHash string                 `json:"final_hash"`
	Basis     string                 `json:"basis"`
	Rounds    int                    `json:"rounds"`
	Source    string                 `json:"source"`
	InputSize int64                  `json:"input_size"`
	States    []analysis.StateSeries `json:"states"`
	Classical classical.Reference    `json:"classical"`
}

// AvalancheRequest asks for a single-bit-flip comparison.
type AvalancheRequest struct {
	Text     string `json:"text"`
	Basis    string `json:"basis"`
	Rounds   int    `json:"rounds"`
	BitIndex int    `json:"bit_index"`
}

// AvalancheResponse reports how far one flipped input bit spreads.
type AvalancheResponse struct {
	OriginalHash string           `json:"original_hash"`
	FlippedHash  string           `json:"flipped_hash"`
	BitIndex     int              `json:"bit_index"`
	Diff         analysis.BitDiff `json:"diff"`
}

// HandleHashText handles POST /api/hash
func (h *HashHandlers) HandleHashText(w http.ResponseWriter, r *http.Request) {
	var req HashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.log, w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	h.hashBytes(w, []byte(req.Text), req.Basis, req.Rounds, "text")
}

// HandleHashFile handles POST /api/hash/file (multipart upload). The
// file's bytes go through the identical pipeline as text input.
func (h *HashHandlers) HandleHashFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(h.log, w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(h.log, w, http.StatusBadRequest, "missing file field: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(h.log, w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	rounds := 0
	if v := r.FormValue("rounds"); v != "" {
		rounds, err = strconv.Atoi(v)
		if err != nil {
			writeError(h.log, w, http.StatusBadRequest, "rounds must be an integer")
			return
		}
	}

	h.log.Debug().Str("filename", header.Filename).Int("bytes", len(data)).Msg("Hashing uploaded file")
	h.hashBytes(w, data, r.FormValue("basis"), rounds, "file")
}

// hashBytes runs the pipeline and writes the shared response shape.
func (h *HashHandlers) hashBytes(w http.ResponseWriter, input []byte, basisName string, rounds int, source string) {
	basis, err := quantum.ParseBasis(basisName)
	if err != nil {
		writeError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := quantum.Run(input, basis, rounds)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, quantum.ErrInvalidConfiguration) {
			status = http.StatusBadRequest
		}
		writeError(h.log, w, status, err.Error())
		return
	}

	resp := HashResponse{
		FinalHash: res.Hash,
		Basis:     res.Basis.String(),
		Rounds:    res.Rounds,
		Source:    source,
		InputSize: int64(len(input)),
		States:    analysis.Series(res.FirstRoundStates),
		Classical: classical.Compute(input),
	}

	if h.store != nil {
		id, err := h.store.Save(history.Record{
			Source:           source,
			InputSize:        resp.InputSize,
			Basis:            resp.Basis,
			Rounds:           resp.Rounds,
			FinalHash:        resp.FinalHash,
			FirstRoundStates: res.FirstRoundStates,
		})
		if err != nil {
			// Storage failure does not invalidate the hash itself.
			h.log.Error().Err(err).Msg("Failed to store hash result")
		} else {
			resp.UUID = id
		}
	}

	writeJSON(h.log, w, http.StatusOK, resp)
}

// HandleAvalanche handles POST /api/hash/avalanche: hash the input,
// flip one input bit, hash again, report the output divergence.
func (h *HashHandlers) HandleAvalanche(w http.ResponseWriter, r *http.Request) {
	var req AvalancheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.log, w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	basis, err := quantum.ParseBasis(req.Basis)
	if err != nil {
		writeError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}

	input := []byte(req.Text)
	flipped, err := analysis.FlipBit(input, req.BitIndex)
	if err != nil {
		writeError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}

	original, err := quantum.Run(input, basis, req.Rounds)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, quantum.ErrInvalidConfiguration) {
			status = http.StatusBadRequest
		}
		writeError(h.log, w, status, err.Error())
		return
	}
	// Same validated configuration, cannot fail.
	mutated, _ := quantum.Run(flipped, basis, req.Rounds)

	diff, err := analysis.BitDifference(original.Digest[:], mutated.Digest[:])
	if err != nil {
		writeError(h.log, w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(h.log, w, http.StatusOK, AvalancheResponse{
		OriginalHash: original.Hash,
		FlippedHash:  mutated.Hash,
		BitIndex:     req.BitIndex,
		Diff:         diff,
	})
}

// HistoryItem is the list projection of a stored record.
type HistoryItem struct {
	UUID      string `json:"uuid"`
	CreatedAt string `json:"created_at"`
	Source    string `json:"source"`
	InputSize int64  `json:"input_size"`
	Basis     string `json:"basis"`
	Rounds    int    `json:"rounds"`
	FinalHash string `json:"final_hash"`
}

// HandleHistoryList handles GET /api/history
func (h *HashHandlers) HandleHistoryList(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(h.log, w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(h.log, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.store.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list history")
		writeError(h.log, w, http.StatusInternalServerError, "failed to list history")
		return
	}

	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem(rec))
	}
	writeJSON(h.log, w, http.StatusOK, map[string]interface{}{"results": items})
}

// HandleHistoryGet handles GET /api/history/{uuid}
func (h *HashHandlers) HandleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(h.log, w, http.StatusNotFound, "history is disabled")
		return
	}

	id := chi.URLParam(r, "uuid")
	rec, err := h.store.GetByUUID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(h.log, w, http.StatusNotFound, "no such record")
			return
		}
		h.log.Error().Err(err).Str("uuid", id).Msg("Failed to fetch history record")
		writeError(h.log, w, http.StatusInternalServerError, "failed to fetch record")
		return
	}

	writeJSON(h.log, w, http.StatusOK, map[string]interface{}{
		"record": historyItem(*rec),
		"states": analysis.Series(rec.FirstRoundStates),
	})
}

func historyItem(rec history.Record) HistoryItem {
	return HistoryItem{
		UUID:      rec.UUID,
		CreatedAt: rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Source:    rec.Source,
		InputSize: rec.InputSize,
		Basis:     rec.Basis,
		Rounds:    rec.Rounds,
		FinalHash: rec.FinalHash,
	}
}

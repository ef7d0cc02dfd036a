package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/quanthash/internal/quantum"
)

// RoundStreamHandler streams per-round pipeline progress over a
// WebSocket: the client sends one hash request, the server emits one
// event per round and a final message, then closes.
type RoundStreamHandler struct {
	log zerolog.Logger
}

// NewRoundStreamHandler creates the round stream handler
func NewRoundStreamHandler(log zerolog.Logger) *RoundStreamHandler {
	return &RoundStreamHandler{
		log: log.With().Str("component", "round_stream").Logger(),
	}
}

// RoundEvent is one streamed message. Type is "round" for per-round
// events and "final" for the closing message.
type RoundEvent struct {
	Type      string `json:"type"`
	Round     int    `json:"round,omitempty"`
	Digest    string `json:"digest,omitempty"`
	FinalHash string `json:"final_hash,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ServeHTTP handles GET /api/hash/stream
func (h *RoundStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Same open policy as the HTTP CORS middleware.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected exit")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req HashRequest
	if _, data, err := conn.Read(ctx); err != nil {
		h.log.Debug().Err(err).Msg("WebSocket read failed")
		return
	} else if err := json.Unmarshal(data, &req); err != nil {
		h.writeEvent(ctx, conn, RoundEvent{Type: "error", Error: "invalid request: " + err.Error()})
		conn.Close(websocket.StatusUnsupportedData, "invalid request")
		return
	}

	basis, err := quantum.ParseBasis(req.Basis)
	if err != nil {
		h.writeEvent(ctx, conn, RoundEvent{Type: "error", Error: err.Error()})
		conn.Close(websocket.StatusNormalClosure, "invalid configuration")
		return
	}

	res, err := quantum.RunObserved([]byte(req.Text), basis, req.Rounds,
		func(round int, digest [quantum.DigestSize]byte) {
			h.writeEvent(ctx, conn, RoundEvent{
				Type:   "round",
				Round:  round,
				Digest: hex.EncodeToString(digest[:]),
			})
		})
	if err != nil {
		h.writeEvent(ctx, conn, RoundEvent{Type: "error", Error: err.Error()})
		conn.Close(websocket.StatusNormalClosure, "invalid configuration")
		return
	}

	h.writeEvent(ctx, conn, RoundEvent{Type: "final", FinalHash: res.Hash})
	conn.Close(websocket.StatusNormalClosure, "")
}

// writeEvent marshals and sends one event, logging write failures.
func (h *RoundStreamHandler) writeEvent(ctx context.Context, conn *websocket.Conn, event RoundEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal stream event")
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write stream event")
	}
}

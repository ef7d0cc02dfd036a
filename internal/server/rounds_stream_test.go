package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func dialStream(t *testing.T, ts *httptest.Server) (*websocket.Conn, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/hash/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	return conn, ctx
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) RoundEvent {
	t.Helper()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var event RoundEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestRoundStream(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, ctx := dialStream(t, ts)

	req, err := json.Marshal(HashRequest{Text: "stream me", Basis: "standard", Rounds: 3})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, req))

	// Three round events, then the final hash.
	for round := 1; round <= 3; round++ {
		event := readEvent(t, ctx, conn)
		assert.Equal(t, "round", event.Type)
		assert.Equal(t, round, event.Round)
		assert.Len(t, event.Digest, 64)
	}

	final := readEvent(t, ctx, conn)
	assert.Equal(t, "final", final.Type)
	assert.Len(t, final.FinalHash, 64)

	// The last round's digest is the final hash.
	rec := postJSON(t, srv, "/api/hash", HashRequest{Text: "stream me", Basis: "standard", Rounds: 3})
	var resp HashResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, resp.FinalHash, final.FinalHash)
}

func TestRoundStream_InvalidConfiguration(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, ctx := dialStream(t, ts)

	req, err := json.Marshal(HashRequest{Text: "x", Basis: "standard", Rounds: 99})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, req))

	event := readEvent(t, ctx, conn)
	assert.Equal(t, "error", event.Type)
	assert.Contains(t, event.Error, "rounds")
}

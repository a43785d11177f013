package signal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/CodeRoom/internal/adapters/signal"
	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func newServer(t *testing.T, opts signal.Options) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rooms := app.NewRoomManager("")
	o := orch.New(app.NewRegistry(), rooms, app.NewPresence(rooms, time.Minute, nil), app.SimplePolicy{Action: app.DropFrame})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = o.Run(ctx) }()

	ctl := signal.NewSignalWSController(o, opts)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		// Stands in for the session cookie middleware of the HTTP layer.
		if tok := c.Query("token"); tok != "" {
			c.Set(signal.ClientTokenKey, tok)
		}
		ctl.HandleSignal(ctx, c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	hello := readUntil(t, ws, "hello", nil)
	require.NotEmpty(t, hello["transportId"])
	return ws
}

func send(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(v))
}

// readUntil skips frames until one of type typ satisfies match.
func readUntil(t *testing.T, ws *websocket.Conn, typ string, match func(map[string]any) bool) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err, "waiting for %s", typ)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		if m["type"] == typ && (match == nil || match(m)) {
			return m
		}
	}
}

func withParticipants(n int) func(map[string]any) bool {
	return func(m map[string]any) bool {
		ps, _ := m["participants"].([]any)
		return len(ps) == n
	}
}

func join(room, logical, name string) map[string]any {
	return map[string]any{"type": "join-room", "ref": "j", "roomId": room, "logicalId": logical, "displayName": name}
}

func TestWebSocketRoundTrip(t *testing.T) {
	url := newServer(t, signal.Options{})
	alice := dial(t, url)
	bob := dial(t, url)

	send(t, alice, join("abc123", "a1", "Alice"))
	ack := readUntil(t, alice, "join-room", nil)
	assert.Equal(t, true, ack["success"])
	assert.Equal(t, "// Start coding...\n", ack["document"])
	assert.Equal(t, "javascript", ack["languageTag"])
	readUntil(t, alice, "participants-update", withParticipants(1))

	send(t, bob, join("ABC123", "b1", "Bob"))
	ack = readUntil(t, bob, "join-room", nil)
	assert.Len(t, ack["participants"], 2)
	readUntil(t, alice, "participants-update", withParticipants(2))

	send(t, alice, map[string]any{"type": "code-update", "roomId": "ABC123", "text": "let x=1;"})
	upd := readUntil(t, bob, "code-update", nil)
	assert.Equal(t, "let x=1;", upd["text"])
	assert.Equal(t, "a1", upd["from"])

	send(t, alice, map[string]any{"type": "ping"})
	readUntil(t, alice, "pong", nil)

	send(t, alice, map[string]any{"type": "language-change", "ref": "l", "roomId": "ABC123", "languageTag": "cobol"})
	rej := readUntil(t, alice, "language-change", nil)
	assert.Equal(t, false, rej["success"])
	assert.Equal(t, "invalid_language", rej["error"])

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	bad := readUntil(t, alice, "error", nil)
	assert.Equal(t, "bad_payload", bad["error"])

	send(t, alice, map[string]any{"type": "draw-circle"})
	unknown := readUntil(t, alice, "error", nil)
	assert.Equal(t, "unknown_type", unknown["error"])

	require.NoError(t, alice.Close())
	left := readUntil(t, bob, "participants-update", withParticipants(1))
	assert.Equal(t, "b1", left["participants"].([]any)[0].(map[string]any)["logicalId"])
}

func TestJoinRateLimited(t *testing.T) {
	url := newServer(t, signal.Options{JoinRateLimit: 1, JoinRateInterval: time.Minute})
	ws := dial(t, url)

	send(t, ws, join("R", "a1", "Alice"))
	assert.Equal(t, true, readUntil(t, ws, "join-room", nil)["success"])

	send(t, ws, join("R", "a1", "Alice"))
	rej := readUntil(t, ws, "join-room", nil)
	assert.Equal(t, false, rej["success"])
	assert.Equal(t, "rate_limited", rej["error"])
}

func TestJoinRateLimitSurvivesReconnect(t *testing.T) {
	url := newServer(t, signal.Options{JoinRateLimit: 1, JoinRateInterval: time.Minute})

	first := dial(t, url+"?token=alice")
	send(t, first, join("R", "a1", "Alice"))
	assert.Equal(t, true, readUntil(t, first, "join-room", nil)["success"])
	require.NoError(t, first.Close())

	again := dial(t, url+"?token=alice")
	send(t, again, join("R", "a1", "Alice"))
	rej := readUntil(t, again, "join-room", nil)
	assert.Equal(t, false, rej["success"])
	assert.Equal(t, "rate_limited", rej["error"])

	other := dial(t, url+"?token=bob")
	send(t, other, join("R", "b1", "Bob"))
	assert.Equal(t, true, readUntil(t, other, "join-room", nil)["success"])
}

func TestJoinMissingField(t *testing.T) {
	url := newServer(t, signal.Options{})
	ws := dial(t, url)

	send(t, ws, map[string]any{"type": "join-room", "ref": "1", "roomId": "R", "logicalId": "a1"})
	rej := readUntil(t, ws, "join-room", nil)
	assert.Equal(t, false, rej["success"])
	assert.Equal(t, "missing_field", rej["error"])
	assert.Equal(t, "displayName", rej["field"])
	assert.Equal(t, "1", rej["ref"])
}

func TestOriginCheck(t *testing.T) {
	url := newServer(t, signal.Options{AllowedOrigins: []string{"http://localhost:3000"}})

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ws, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://localhost:3000"}})
	require.NoError(t, err)
	_ = ws.Close()
}

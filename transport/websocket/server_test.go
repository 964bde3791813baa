package websocket

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/matchmaking"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/service"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const readTimeout = 2 * time.Second

type client struct {
	t      *testing.T
	conn   *websocket.Conn
	handle string
}

func newTestServer(t *testing.T) string {
	t.Helper()

	return newLoggedTestServer(t, io.Discard)
}

func newLoggedTestServer(t *testing.T, out io.Writer) string {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(out, nil))
	manager := usecase.NewGameManager(logger,
		matchmaking.NewQueue(),
		service.NewRoomService(repository.NewMemoryRoomRepository()),
		service.NewStatsService(),
	)

	server := New(logger, manager, DefaultOptions())
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		server.Close()
		ts.Close()
	})

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *client {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	c := &client{t: t, conn: conn}

	var connected connectedPayload
	c.expect(actionConnected, &connected)
	require.NotEmpty(t, connected.Handle)
	c.handle = connected.Handle

	return c
}

func (c *client) send(action string, payload any) {
	c.t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(Message{Action: action, Payload: raw}))
}

// expect reads until a message with the action arrives, skipping the others.
func (c *client) expect(action string, target any) {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(readTimeout)))

	for {
		var msg Message
		require.NoError(c.t, c.conn.ReadJSON(&msg), "waiting for %s", action)

		if msg.Action != action {
			continue
		}

		if target != nil {
			require.NoError(c.t, json.Unmarshal(msg.Payload, target))
		}
		return
	}
}

func (c *client) expectMove(x, y int) updatePayload {
	c.t.Helper()

	for {
		var update updatePayload
		c.expect(actionGameUpdate, &update)
		if update.Move.X == x && update.Move.Y == y {
			return update
		}
	}
}

func (c *client) expectRoom(match func(room entity.Room) bool) entity.Room {
	c.t.Helper()

	for {
		var room entity.Room
		c.expect(actionRoomState, &room)
		if match(room) {
			return room
		}
	}
}

// match pairs two fresh clients and returns them black first.
func match(t *testing.T, url string) (black, white *client, blackID, whiteID string) {
	t.Helper()

	alice, bob := dial(t, url), dial(t, url)

	alice.send(actionJoinQueue, joinPayload{PlayerName: "Alice"})
	var waiting waitingPayload
	alice.expect(actionWaiting, &waiting)
	assert.Equal(t, 1, waiting.Position)

	bob.send(actionJoinQueue, joinPayload{PlayerName: "Bob"})

	var aliceMatch, bobMatch matchedPayload
	alice.expect(actionMatched, &aliceMatch)
	bob.expect(actionMatched, &bobMatch)
	require.Equal(t, aliceMatch.RoomID, bobMatch.RoomID)
	require.Equal(t, alice.handle, aliceMatch.Player.Handle)

	return alice, bob, aliceMatch.Player.ID, bobMatch.Player.ID
}

func TestServer_Game(t *testing.T) {
	t.Run("Scenario: black wins with five in a column", func(t *testing.T) {
		url := newTestServer(t)
		black, white, blackID, whiteID := match(t, url)

		state := white.expectRoom(func(entity.Room) bool { return true })
		assert.Equal(t, entity.StatusPlaying, state.Status)
		assert.Equal(t, blackID, state.Players[0].ID)

		for i := 0; i < 5; i++ {
			x, y := 7, 7+i
			black.send(actionMove, movePayload{X: &x, Y: &y, PlayerID: blackID})

			update := white.expectMove(x, y)
			assert.Equal(t, entity.BlackCell, update.Board[y][x])

			if i < 4 {
				wx, wy := 0, i
				white.send(actionMove, movePayload{X: &wx, Y: &wy, PlayerID: whiteID})
				update = black.expectMove(wx, wy)
				assert.Equal(t, entity.ColorBlack, update.CurrentTurn)
			}
		}

		var result entity.GameResult
		white.expect(actionGameResult, &result)
		assert.Equal(t, blackID, result.Winner)
		assert.Equal(t, entity.ColorBlack, result.WinnerColor)
		assert.Equal(t, entity.ReasonFiveInRow, result.Reason)

		black.expect(actionGameResult, &result)
		assert.Equal(t, blackID, result.Winner)
	})

	t.Run("Rejected move is reported to the sender with its code", func(t *testing.T) {
		url := newTestServer(t)
		_, white, _, whiteID := match(t, url)

		x, y := 3, 3
		white.send(actionMove, movePayload{X: &x, Y: &y, PlayerID: whiteID})

		var errResp errorPayload
		white.expect(actionError, &errResp)
		assert.Equal(t, "NotYourTurn", errResp.Code)
		assert.NotEmpty(t, errResp.Message)
	})

	t.Run("Out of range move fails InvalidPosition", func(t *testing.T) {
		url := newTestServer(t)
		black, _, blackID, _ := match(t, url)

		x, y := 15, 0
		black.send(actionMove, movePayload{X: &x, Y: &y, PlayerID: blackID})

		var errResp errorPayload
		black.expect(actionError, &errResp)
		assert.Equal(t, "InvalidPosition", errResp.Code)
	})

	t.Run("Undo negotiation", func(t *testing.T) {
		url := newTestServer(t)
		black, white, blackID, _ := match(t, url)

		x, y := 7, 7
		black.send(actionMove, movePayload{X: &x, Y: &y, PlayerID: blackID})
		white.expect(actionGameUpdate, nil)

		black.send(actionUndoRequest, emptyPayload{})
		var requested requestedPayload
		white.expect(actionUndoRequested, &requested)
		assert.Equal(t, blackID, requested.RequesterID)
		assert.Equal(t, "Alice", requested.RequesterName)

		white.send(actionUndoRespond, undoRespondPayload{Accept: true})
		var done undoDonePayload
		black.expect(actionUndoDone, &done)
		assert.Equal(t, entity.Board{}, done.Board)
		assert.Equal(t, entity.ColorBlack, done.CurrentTurn)
	})

	t.Run("Surrender then rematch", func(t *testing.T) {
		url := newTestServer(t)
		black, white, blackID, _ := match(t, url)

		white.send(actionSurrender, emptyPayload{})
		var result entity.GameResult
		black.expect(actionGameResult, &result)
		assert.Equal(t, blackID, result.Winner)
		assert.Equal(t, entity.ReasonSurrender, result.Reason)
		white.expect(actionGameResult, nil)

		white.send(actionRematchRequest, emptyPayload{})
		var requested requestedPayload
		black.expect(actionRematchRequested, &requested)
		assert.Equal(t, "Bob", requested.RequesterName)

		black.send(actionRematchRequest, emptyPayload{})
		state := white.expectRoom(func(room entity.Room) bool { return room.Status == entity.StatusPlaying })
		assert.Empty(t, state.History)
		assert.Empty(t, state.Winner)
	})
}

func TestServer_Disconnect(t *testing.T) {
	t.Run("Opponent wins when a player drops", func(t *testing.T) {
		url := newTestServer(t)
		black, white, _, whiteID := match(t, url)

		// When: black's socket goes away
		require.NoError(t, black.conn.Close())

		// Then: white is told it won by disconnect
		var result entity.GameResult
		white.expect(actionGameResult, &result)
		assert.Equal(t, whiteID, result.Winner)
		assert.Equal(t, entity.ReasonDisconnect, result.Reason)
	})

	t.Run("Leaving the room after the end updates the opponent", func(t *testing.T) {
		url := newTestServer(t)
		black, white, _, _ := match(t, url)
		white.send(actionSurrender, emptyPayload{})
		black.expect(actionGameResult, nil)

		white.send(actionLeaveRoom, emptyPayload{})

		state := black.expectRoom(func(room entity.Room) bool { return room.Players[1].Left })
		assert.Equal(t, entity.StatusEnded, state.Status)
		assert.False(t, state.Players[0].Left)
	})
}

func TestServer_Protocol(t *testing.T) {
	url := newTestServer(t)
	c := dial(t, url)

	t.Run("Malformed JSON", func(t *testing.T) {
		require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

		var errResp errorPayload
		c.expect(actionError, &errResp)
		assert.Equal(t, "InvalidMessage", errResp.Code)
	})

	t.Run("Unknown action", func(t *testing.T) {
		c.send("game.teleport", emptyPayload{})

		var errResp errorPayload
		c.expect(actionError, &errResp)
		assert.Equal(t, "InvalidMessage", errResp.Code)
	})

	t.Run("Move without a room", func(t *testing.T) {
		x, y := 1, 1
		c.send(actionMove, movePayload{X: &x, Y: &y})

		var errResp errorPayload
		c.expect(actionError, &errResp)
		assert.Equal(t, "RoomNotFound", errResp.Code)
	})

	t.Run("Empty player name", func(t *testing.T) {
		c.send(actionJoinQueue, joinPayload{})

		var errResp errorPayload
		c.expect(actionError, &errResp)
		assert.Equal(t, "InvalidPlayerName", errResp.Code)
	})

	t.Run("Join then cancel", func(t *testing.T) {
		c.send(actionJoinQueue, joinPayload{PlayerName: "Carol"})
		c.expect(actionWaiting, nil)

		c.send(actionCancelQueue, emptyPayload{})
		c.expect(actionCancelled, nil)
	})
}

func TestServer_CheckOrigin(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no list allows everything", nil, "http://evil.example", true},
		{"missing origin header", []string{"http://game.example"}, "", true},
		{"listed origin", []string{"http://game.example"}, "http://game.example", true},
		{"wildcard", []string{"*"}, "http://other.example", true},
		{"foreign origin", []string{"http://game.example"}, "http://evil.example", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.AllowedOrigins = c.allowed
			server := New(logger, nil, opts)

			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if c.origin != "" {
				req.Header.Set("Origin", c.origin)
			}

			assert.Equal(t, c.want, server.checkOrigin(req))
		})
	}
}

// logBuffer is a bytes.Buffer safe for the server's goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (that *logBuffer) Write(p []byte) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.buf.Write(p)
}

func (that *logBuffer) String() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.buf.String()
}

func TestServer_LogsRequestID(t *testing.T) {
	// Given: a server logging into a buffer
	logs := &logBuffer{}
	url := newLoggedTestServer(t, logs)

	// When: a client connects
	dial(t, url)

	// Then: the upgrade is logged with the request id of the handshake
	var entry struct {
		Msg       string `json:"msg"`
		RequestID string `json:"requestID"`
	}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry.Msg == "connection established" {
			break
		}
	}

	assert.Equal(t, "connection established", entry.Msg)
	assert.NotEmpty(t, entry.RequestID)
}

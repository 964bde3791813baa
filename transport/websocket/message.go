package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// inbound actions
const (
	actionJoinQueue      = "matchmaking.join"
	actionCancelQueue    = "matchmaking.cancel"
	actionMove           = "game.move"
	actionSurrender      = "game.surrender"
	actionLeaveRoom      = "room.leave"
	actionUndoRequest    = "game.undo.request"
	actionUndoRespond    = "game.undo.respond"
	actionRematchRequest = "game.rematch.request"
)

// outbound actions
const (
	actionConnected        = "connected"
	actionWaiting          = "matchmaking.waiting"
	actionCancelled        = "matchmaking.cancelled"
	actionMatched          = "matchmaking.matched"
	actionRoomState        = "room.state"
	actionGameUpdate       = "game.update"
	actionGameResult       = "game.result"
	actionUndoRequested    = "game.undo.requested"
	actionUndoDone         = "game.undo.done"
	actionUndoRejected     = "game.undo.rejected"
	actionRematchRequested = "game.rematch.requested"
	actionError            = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinPayload struct {
	PlayerName string `json:"playerName"`
}

type movePayload struct {
	X        *int   `json:"x"`
	Y        *int   `json:"y"`
	PlayerID string `json:"playerId"`
}

type undoRespondPayload struct {
	Accept bool `json:"accept"`
}

type connectedPayload struct {
	Handle string `json:"handle"`
}

type waitingPayload struct {
	Position int `json:"position"`
}

type matchedPayload struct {
	RoomID string        `json:"roomId"`
	Player entity.Player `json:"player"`
}

type updatePayload struct {
	Move        entity.Move  `json:"move"`
	Board       entity.Board `json:"board"`
	CurrentTurn entity.Color `json:"currentTurn"`
}

type requestedPayload struct {
	RequesterID   string `json:"requesterId"`
	RequesterName string `json:"requesterName"`
}

type undoDonePayload struct {
	Board       entity.Board `json:"board"`
	CurrentTurn entity.Color `json:"currentTurn"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type emptyPayload struct{}

package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

func (that *Server) handleJoinQueue(ctx context.Context, conn *Connection, msg *Message) error {
	var payload joinPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	outcome, err := that.game.JoinQueue(ctx, conn.handle, payload.PlayerName)
	if outcome != nil && outcome.Abandoned != nil {
		that.broadcastRoom(outcome.Abandoned, actionRoomState, outcome.Abandoned)
	}

	if err != nil {
		if outcome != nil && outcome.Unpaired != "" {
			that.sendError(outcome.Unpaired, err)
		}
		return err
	}

	if outcome.Room == nil {
		that.sendTo(conn.handle, actionWaiting, waitingPayload{Position: outcome.Position})
		return nil
	}

	room := outcome.Room
	for _, player := range room.Players {
		that.sendTo(player.Handle, actionMatched, matchedPayload{RoomID: room.ID, Player: player})
	}
	that.broadcastRoom(room, actionRoomState, room)

	return nil
}

func (that *Server) handleCancelQueue(_ context.Context, conn *Connection, _ *Message) error {
	that.game.CancelQueue(conn.handle)
	that.sendTo(conn.handle, actionCancelled, emptyPayload{})

	return nil
}

func (that *Server) handleMove(ctx context.Context, conn *Connection, msg *Message) error {
	var payload movePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.X == nil || payload.Y == nil {
		return fmt.Errorf("%w: x and y are required", apperror.ErrInvalidPosition)
	}

	outcome, err := that.game.MakeMove(ctx, conn.handle, entity.Move{
		X:        *payload.X,
		Y:        *payload.Y,
		PlayerID: payload.PlayerID,
	})
	if err != nil {
		return err
	}

	room := outcome.Room

	if outcome.UndoRejected {
		that.broadcastRoom(room, actionUndoRejected, emptyPayload{})
	}

	that.broadcastRoom(room, actionGameUpdate, updatePayload{
		Move:        outcome.Move,
		Board:       room.Board,
		CurrentTurn: room.CurrentTurn,
	})

	if outcome.Result != nil {
		that.announceResult(room.Handles(), room, outcome.Result)
	}

	return nil
}

func (that *Server) handleSurrender(ctx context.Context, conn *Connection, _ *Message) error {
	outcome, err := that.game.Surrender(ctx, conn.handle)
	if err != nil {
		return err
	}

	that.announceResult(outcome.Room.Handles(), outcome.Room, outcome.Result)

	return nil
}

func (that *Server) handleLeaveRoom(ctx context.Context, conn *Connection, _ *Message) error {
	outcome, err := that.game.LeaveRoom(ctx, conn.handle)
	if err != nil {
		return err
	}

	if outcome.Result != nil {
		that.sendTo(conn.handle, actionGameResult, outcome.Result)
	}

	that.announceDeparture(outcome)

	return nil
}

func (that *Server) handleUndoRequest(ctx context.Context, conn *Connection, _ *Message) error {
	outcome, err := that.game.RequestUndo(ctx, conn.handle)
	if err != nil {
		return err
	}

	that.broadcastRoom(outcome.Room, actionUndoRequested, requestedPayload{
		RequesterID:   outcome.Requester.ID,
		RequesterName: outcome.Requester.Name,
	})

	return nil
}

func (that *Server) handleUndoRespond(ctx context.Context, conn *Connection, msg *Message) error {
	var payload undoRespondPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	outcome, err := that.game.RespondUndo(ctx, conn.handle, payload.Accept)
	if err != nil {
		return err
	}

	if !outcome.Accepted {
		that.broadcastRoom(outcome.Room, actionUndoRejected, emptyPayload{})
		return nil
	}

	that.broadcastRoom(outcome.Room, actionUndoDone, undoDonePayload{
		Board:       outcome.Room.Board,
		CurrentTurn: outcome.Room.CurrentTurn,
	})

	return nil
}

func (that *Server) handleRematchRequest(ctx context.Context, conn *Connection, _ *Message) error {
	outcome, err := that.game.RequestRematch(ctx, conn.handle)
	if err != nil {
		return err
	}

	if outcome.Restarted {
		that.broadcastRoom(outcome.Room, actionRoomState, outcome.Room)
		return nil
	}

	that.broadcastRoom(outcome.Room, actionRematchRequested, requestedPayload{
		RequesterID:   outcome.Requester.ID,
		RequesterName: outcome.Requester.Name,
	})

	return nil
}

// handleDisconnect - runs once the read loop of the connection ended.
func (that *Server) handleDisconnect(ctx context.Context, conn *Connection) {
	outcome, err := that.game.Disconnect(ctx, conn.handle)
	if err != nil {
		that.logger.Error("failed to process disconnect", "handle", conn.handle, "error", err)
		return
	}

	if outcome != nil {
		that.announceDeparture(outcome)
	}
}

// announceDeparture - tells the players still seated what changed.
func (that *Server) announceDeparture(outcome *usecase.EndOutcome) {
	if outcome.Closed {
		return
	}

	if outcome.Result != nil {
		that.announceResult(outcome.Room.Handles(), outcome.Room, outcome.Result)
		return
	}

	that.broadcastRoom(outcome.Room, actionRoomState, outcome.Room)
}

func (that *Server) announceResult(handles []string, room *entity.Room, result *entity.GameResult) {
	that.broadcast(handles, actionGameResult, result)
	that.broadcast(handles, actionRoomState, room)
}

func decodePayload(msg *Message, target any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%w: %s requires a payload", apperror.ErrInvalidMessage, msg.Action)
	}

	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidMessage, err)
	}

	return nil
}

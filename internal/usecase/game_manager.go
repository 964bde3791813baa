package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/matchmaking"
	"github.com/rocketscienceinc/gomoku-backend/internal/service"
)

const maxPlayerNameLength = 32

type matchQueue interface {
	Enqueue(handle, name string) (*matchmaking.Pairing, error)
	Remove(handle string) bool
	Len() int
}

// GameManager - runs every inbound operation to completion under the lock of
// the room involved and returns what the dispatcher has to broadcast.
type GameManager struct {
	logger *slog.Logger

	// matchMu covers a pair from leaving the queue until its room is
	// registered, so a disconnect in between still finds the room.
	matchMu sync.Mutex

	queue matchQueue
	rooms service.RoomService
	stats service.StatsService
}

func NewGameManager(logger *slog.Logger, queue matchQueue, rooms service.RoomService, stats service.StatsService) *GameManager {
	return &GameManager{
		logger: logger,

		queue: queue,
		rooms: rooms,
		stats: stats,
	}
}

// JoinQueue - queues the handle and creates a room once a partner is waiting.
func (that *GameManager) JoinQueue(ctx context.Context, handle, name string) (*JoinOutcome, error) {
	log := that.logger.With("method", "JoinQueue", "handle", handle)

	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxPlayerNameLength {
		return nil, apperror.ErrInvalidPlayerName
	}

	outcome := &JoinOutcome{}

	abandoned, err := that.leaveEndedRoom(ctx, handle)
	if err != nil {
		return nil, err
	}
	outcome.Abandoned = abandoned

	that.matchMu.Lock()
	defer that.matchMu.Unlock()

	pairing, err := that.queue.Enqueue(handle, name)
	if err != nil {
		return outcome, fmt.Errorf("failed to join queue: %w", err)
	}

	if pairing == nil {
		outcome.Position = that.queue.Len()
		log.Debug("waiting for opponent", "position", outcome.Position)

		return outcome, nil
	}

	black, white := that.withStats(pairing.First), that.withStats(pairing.Second)

	room, err := that.rooms.Create(ctx, black, white)
	if err != nil {
		outcome.Unpaired = pairing.First.Handle
		if outcome.Unpaired == handle {
			outcome.Unpaired = pairing.Second.Handle
		}

		log.Error("failed to create room", "partner", outcome.Unpaired, "error", err)

		return outcome, fmt.Errorf("failed to create room: %w", err)
	}

	log.Info("room created", "roomID", room.ID, "black", black.Name, "white", white.Name)

	outcome.Room = room

	return outcome, nil
}

// CancelQueue - idempotent; reports whether the handle was waiting.
func (that *GameManager) CancelQueue(handle string) bool {
	that.matchMu.Lock()
	defer that.matchMu.Unlock()

	return that.queue.Remove(handle)
}

func (that *GameManager) MakeMove(ctx context.Context, handle string, move entity.Move) (*MoveOutcome, error) {
	room, unlock, err := that.checkout(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sender := room.Players[room.PlayerIndexByHandle(handle)].ID
	if move.PlayerID == "" {
		move.PlayerID = sender
	}

	if move.PlayerID != sender {
		return nil, fmt.Errorf("%w: %s is not seated on this connection", apperror.ErrPlayerNotFound, move.PlayerID)
	}

	undoPending := room.UndoRequest != ""

	next, err := gomoku.ApplyMove(room, move)
	if err != nil {
		return nil, err
	}

	result := gomoku.CheckEnd(next, move)
	if result != nil {
		next = that.finish(gomoku.Conclude(next, result), result)
	}

	if err = that.rooms.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save move: %w", err)
	}

	return &MoveOutcome{
		Room:         next,
		Move:         move,
		Result:       result,
		UndoRejected: undoPending,
	}, nil
}

func (that *GameManager) Surrender(ctx context.Context, handle string) (*EndOutcome, error) {
	room, unlock, err := that.checkout(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer unlock()

	next, result, err := gomoku.Surrender(room, handle)
	if err != nil {
		return nil, err
	}

	next = that.finish(next, result)

	if err = that.rooms.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save surrender: %w", err)
	}

	return &EndOutcome{Room: next, Result: result}, nil
}

// LeaveRoom - a running game is lost by the leaver; the room is torn down once both players left.
func (that *GameManager) LeaveRoom(ctx context.Context, handle string) (*EndOutcome, error) {
	room, unlock, err := that.checkout(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return that.depart(ctx, room, handle)
}

// Disconnect - drops the handle from the queue and from its room. A handle
// that was only queued, or not known at all, yields no outcome.
func (that *GameManager) Disconnect(ctx context.Context, handle string) (*EndOutcome, error) {
	that.matchMu.Lock()
	if that.queue.Remove(handle) {
		that.logger.Debug("removed from queue on disconnect", "handle", handle)
	}

	room, unlock, err := that.checkout(ctx, handle)
	that.matchMu.Unlock()

	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	defer unlock()

	return that.depart(ctx, room, handle)
}

func (that *GameManager) RequestUndo(ctx context.Context, handle string) (*UndoOutcome, error) {
	room, unlock, err := that.checkout(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer unlock()

	next, err := gomoku.RequestUndo(room, handle)
	if err != nil {
		return nil, err
	}

	if err = that.rooms.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save undo request: %w", err)
	}

	return &UndoOutcome{
		Room:      next,
		Requester: next.Players[next.PlayerIndexByHandle(handle)],
	}, nil
}

func (that *GameManager) RespondUndo(ctx context.Context, handle string, accept bool) (*UndoOutcome, error) {
	room, unlock, err := that.checkout(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer unlock()

	next, err := gomoku.RespondUndo(room, handle, accept)
	if err != nil {
		return nil, err
	}

	if err = that.rooms.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save undo response: %w", err)
	}

	outcome := &UndoOutcome{Room: next, Accepted: accept}
	if index := room.PlayerIndexByID(room.UndoRequest); index != -1 {
		outcome.Requester = room.Players[index]
	}

	return outcome, nil
}

func (that *GameManager) RequestRematch(ctx context.Context, handle string) (*RematchOutcome, error) {
	log := that.logger.With("method", "RequestRematch", "handle", handle)

	room, unlock, err := that.checkout(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer unlock()

	requester := room.Players[room.PlayerIndexByHandle(handle)]

	next, restarted, err := gomoku.RequestRematch(room, requester.ID)
	if err != nil {
		return nil, err
	}

	if err = that.rooms.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save rematch request: %w", err)
	}

	if restarted {
		log.Info("rematch started", "roomID", next.ID)
	}

	return &RematchOutcome{
		Room:      next,
		Requester: requester,
		Restarted: restarted,
	}, nil
}

func (that *GameManager) Overview(ctx context.Context) (Overview, error) {
	rooms, err := that.rooms.Count(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to count rooms: %w", err)
	}

	return Overview{Rooms: rooms, Waiting: that.queue.Len()}, nil
}

// checkout - resolves the room of the handle and locks it. The room is read
// again under the lock, so it is the authoritative copy. The caller must
// release the lock with the returned func.
func (that *GameManager) checkout(ctx context.Context, handle string) (*entity.Room, func(), error) {
	room, err := that.rooms.GetByHandle(ctx, handle)
	if err != nil {
		return nil, nil, err
	}

	unlock := that.rooms.Lock(room.ID)

	room, err = that.rooms.GetByID(ctx, room.ID)
	if err != nil {
		unlock()
		return nil, nil, err
	}

	index := room.PlayerIndexByHandle(handle)
	if index == -1 || room.Players[index].Left {
		unlock()
		return nil, nil, fmt.Errorf("%w: handle %s", apperror.ErrRoomNotFound, handle)
	}

	return room, unlock, nil
}

func (that *GameManager) depart(ctx context.Context, room *entity.Room, handle string) (*EndOutcome, error) {
	log := that.logger.With("method", "depart", "roomID", room.ID, "handle", handle)

	next, result, err := gomoku.Leave(room, handle)
	if err != nil {
		return nil, err
	}

	if result != nil {
		next = that.finish(next, result)
	}

	outcome := &EndOutcome{Room: next, Result: result}

	if next.AllLeft() {
		if err = that.rooms.Delete(ctx, next.ID); err != nil {
			return nil, fmt.Errorf("failed to tear down room: %w", err)
		}

		log.Info("room closed")
		outcome.Closed = true

		return outcome, nil
	}

	if err = that.rooms.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save departure: %w", err)
	}

	if err = that.rooms.Detach(ctx, handle); err != nil {
		return nil, fmt.Errorf("failed to save departure: %w", err)
	}

	return outcome, nil
}

// leaveEndedRoom - a handle may queue again from an ended room, which it leaves first.
func (that *GameManager) leaveEndedRoom(ctx context.Context, handle string) (*entity.Room, error) {
	room, unlock, err := that.checkout(ctx, handle)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	defer unlock()

	if !room.IsEnded() {
		return nil, fmt.Errorf("%w: %s", apperror.ErrAlreadyInRoom, room.ID)
	}

	outcome, err := that.depart(ctx, room, handle)
	if err != nil {
		return nil, err
	}

	if outcome.Closed {
		return nil, nil
	}

	return outcome.Room, nil
}

// finish - records the result of a concluded room and refreshes the stats snapshot of its players.
func (that *GameManager) finish(room *entity.Room, result *entity.GameResult) *entity.Room {
	that.logger.Info("game over", "roomID", room.ID, "winner", result.Winner, "reason", result.Reason)

	that.stats.RecordResult(room, result)

	next := room.Clone()
	for i, player := range next.Players {
		next.Players[i] = that.withStats(player)
	}

	return next
}

func (that *GameManager) withStats(player entity.Player) entity.Player {
	stats := that.stats.Get(player.Name)
	player.Stats = &stats

	return player
}

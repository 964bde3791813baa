package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// RequestUndo - records the requester; only one request may be outstanding.
func RequestUndo(room *entity.Room, handle string) (*entity.Room, error) {
	if err := room.ConfirmPlayingState(); err != nil {
		return room, err
	}

	index := room.PlayerIndexByHandle(handle)
	if index == -1 {
		return room, apperror.ErrPlayerNotFound
	}

	if room.UndoRequest != "" {
		return room, apperror.ErrUndoAlreadyPending
	}

	if len(room.History) == 0 {
		return room, apperror.ErrNothingToUndo
	}

	next := room.Clone()
	next.UndoRequest = room.Players[index].ID

	return next, nil
}

// RespondUndo - the requester's opponent accepts or rejects the pending request.
// Accepting takes back the most recent move.
func RespondUndo(room *entity.Room, handle string, accept bool) (*entity.Room, error) {
	if err := room.ConfirmPlayingState(); err != nil {
		return room, err
	}

	index := room.PlayerIndexByHandle(handle)
	if index == -1 {
		return room, apperror.ErrPlayerNotFound
	}

	if room.UndoRequest == "" {
		return room, apperror.ErrNoUndoPending
	}

	if room.UndoRequest == room.Players[index].ID {
		return room, apperror.ErrCannotRespondOwnUndo
	}

	if !accept {
		next := room.Clone()
		next.UndoRequest = ""

		return next, nil
	}

	next, err := undoLastMove(room)
	if err != nil {
		return room, fmt.Errorf("failed to undo move: %w", err)
	}

	return next, nil
}

// undoLastMove - drops the last move and rebuilds the board from the remaining history.
func undoLastMove(room *entity.Room) (*entity.Room, error) {
	if len(room.History) == 0 {
		return nil, apperror.ErrNothingToUndo
	}

	next := room.Clone()
	last := next.History[len(next.History)-1]
	next.History = next.History[:len(next.History)-1]

	board, err := replay(next, next.History)
	if err != nil {
		return nil, err
	}

	index := next.PlayerIndexByID(last.PlayerID)
	if index == -1 {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, last.PlayerID)
	}

	next.Board = board
	next.CurrentTurn = entity.ColorForIndex(index)
	next.UndoRequest = ""

	return next, nil
}

func replay(room *entity.Room, history []entity.Move) (entity.Board, error) {
	var board entity.Board

	for _, move := range history {
		index := room.PlayerIndexByID(move.PlayerID)
		if index == -1 {
			return board, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, move.PlayerID)
		}

		var err error
		board, err = board.Place(move.X, move.Y, entity.ColorForIndex(index))
		if err != nil {
			return board, fmt.Errorf("failed to replay move: %w", err)
		}
	}

	return board, nil
}

// Package gomoku holds the per-room state machine. Every transition works on a
// clone of the given room and returns it, the input is never mutated.
package gomoku

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// ApplyMove - validates the move and places the stone, flipping the turn.
// Win detection is left to CheckEnd.
func ApplyMove(room *entity.Room, move entity.Move) (*entity.Room, error) {
	if err := room.ConfirmPlayingState(); err != nil {
		return room, err
	}

	color, err := validateMove(room, move)
	if err != nil {
		return room, fmt.Errorf("invalid move: %w", err)
	}

	next := room.Clone()

	next.Board, err = next.Board.Place(move.X, move.Y, color)
	if err != nil {
		return room, fmt.Errorf("invalid move: %w", err)
	}

	next.History = append(next.History, move)
	next.CurrentTurn = color.Opponent()
	// a move implicitly turns down an outstanding undo request
	next.UndoRequest = ""

	return next, nil
}

// validateMove - checks player, turn, bounds and occupancy, in that order.
func validateMove(room *entity.Room, move entity.Move) (entity.Color, error) {
	index := room.PlayerIndexByID(move.PlayerID)
	if index == -1 {
		return "", fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, move.PlayerID)
	}

	color := entity.ColorForIndex(index)
	if room.CurrentTurn != color {
		return "", apperror.ErrNotYourTurn
	}

	if !entity.InBounds(move.X, move.Y) {
		return "", fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidPosition, move.X, move.Y)
	}

	if room.Board[move.Y][move.X] != entity.EmptyCell {
		return "", fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, move.X, move.Y)
	}

	return color, nil
}

// CheckEnd - inspects the cell of the last move and returns a result when the game is over.
func CheckEnd(room *entity.Room, lastMove entity.Move) *entity.GameResult {
	if !entity.InBounds(lastMove.X, lastMove.Y) {
		return nil
	}

	var color entity.Color
	switch room.Board[lastMove.Y][lastMove.X] {
	case entity.BlackCell:
		color = entity.ColorBlack
	case entity.WhiteCell:
		color = entity.ColorWhite
	default:
		return nil
	}

	if room.Board.CheckWin(lastMove.X, lastMove.Y, color) {
		winner := room.PlayerByColor(color)
		if winner == nil {
			return nil
		}

		return &entity.GameResult{
			Winner:      winner.ID,
			WinnerColor: color,
			Reason:      entity.ReasonFiveInRow,
		}
	}

	if room.Board.IsFull() {
		return &entity.GameResult{Reason: entity.ReasonDraw}
	}

	return nil
}

// Conclude - moves the room into the ended state described by the result.
func Conclude(room *entity.Room, result *entity.GameResult) *entity.Room {
	next := room.Clone()
	next.Status = entity.StatusEnded
	next.Winner = result.Winner
	next.UndoRequest = ""
	next.RematchRequests = nil

	return next
}

// Surrender - the other player wins. Allowed on either turn while playing.
func Surrender(room *entity.Room, handle string) (*entity.Room, *entity.GameResult, error) {
	if err := room.ConfirmPlayingState(); err != nil {
		return room, nil, err
	}

	index := room.PlayerIndexByHandle(handle)
	if index == -1 {
		return room, nil, apperror.ErrPlayerNotFound
	}

	result := resultForOpponent(room, index, entity.ReasonSurrender)

	return Conclude(room, result), result, nil
}

// Disconnect - the other player wins if the game is still being played.
// Any other state yields no result and the room comes back unchanged.
func Disconnect(room *entity.Room, handle string) (*entity.Room, *entity.GameResult) {
	if !room.IsPlaying() {
		return room, nil
	}

	index := room.PlayerIndexByHandle(handle)
	if index == -1 {
		return room, nil
	}

	result := resultForOpponent(room, index, entity.ReasonDisconnect)

	return Conclude(room, result), result
}

// Leave - marks the player as departed, ending a running game in the opponent's favour.
func Leave(room *entity.Room, handle string) (*entity.Room, *entity.GameResult, error) {
	index := room.PlayerIndexByHandle(handle)
	if index == -1 {
		return room, nil, apperror.ErrPlayerNotFound
	}

	next, result := Disconnect(room, handle)
	if next == room {
		next = room.Clone()
	}

	next.Players[index].Left = true
	next.RematchRequests = slices.DeleteFunc(next.RematchRequests, func(id string) bool {
		return id == next.Players[index].ID
	})

	return next, result, nil
}

func resultForOpponent(room *entity.Room, loserIndex int, reason string) *entity.GameResult {
	winnerIndex := 1 - loserIndex

	return &entity.GameResult{
		Winner:      room.Players[winnerIndex].ID,
		WinnerColor: entity.ColorForIndex(winnerIndex),
		Reason:      reason,
	}
}

package gomoku

import (
	"slices"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// RequestRematch - collects rematch requests after the game ended. Once every
// player asked, the room restarts with the same id and seating. The returned
// flag reports whether the restart happened.
func RequestRematch(room *entity.Room, playerID string) (*entity.Room, bool, error) {
	if !room.IsEnded() {
		return room, false, apperror.ErrGameNotFinished
	}

	if room.PlayerIndexByID(playerID) == -1 {
		return room, false, apperror.ErrPlayerNotFound
	}

	for _, player := range room.Players {
		if player.Left {
			return room, false, apperror.ErrOpponentLeft
		}
	}

	next := room.Clone()
	if !slices.Contains(next.RematchRequests, playerID) {
		next.RematchRequests = append(next.RematchRequests, playerID)
	}

	if len(next.RematchRequests) < len(next.Players) {
		return next, false, nil
	}

	next.Board = entity.Board{}
	next.CurrentTurn = entity.ColorBlack
	next.Status = entity.StatusPlaying
	next.History = nil
	next.Winner = ""
	next.UndoRequest = ""
	next.RematchRequests = nil

	return next, true, nil
}

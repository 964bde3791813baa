package entity

import (
	"testing"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom() *Room {
	return NewRoom("room-1",
		Player{ID: "p1", Name: "Alice", Handle: "h1", Stats: &PlayerStats{Wins: 1}},
		Player{ID: "p2", Name: "Bob", Handle: "h2"},
	)
}

func TestNewRoom(t *testing.T) {
	// When: a room is created
	room := newTestRoom()

	// Then: it is playing, black moves first and the board is empty
	assert.Equal(t, StatusPlaying, room.Status)
	assert.Equal(t, ColorBlack, room.CurrentTurn)
	assert.Equal(t, Board{}, room.Board)
	assert.Empty(t, room.History)
	require.Len(t, room.Players, 2)
	assert.Equal(t, "Alice", room.PlayerByColor(ColorBlack).Name)
	assert.Equal(t, "Bob", room.PlayerByColor(ColorWhite).Name)
}

func TestRoom_Clone(t *testing.T) {
	// Given: a room with history and stats
	room := newTestRoom()
	room.History = []Move{{X: 1, Y: 1, PlayerID: "p1"}}
	room.RematchRequests = []string{"p2"}

	// When: the clone is mutated
	clone := room.Clone()
	clone.Board[0][0] = WhiteCell
	clone.History[0].X = 9
	clone.Players[0].Stats.Wins = 42
	clone.Players[1].Left = true
	clone.RematchRequests[0] = "p1"

	// Then: the original is unchanged
	assert.Equal(t, EmptyCell, room.Board[0][0])
	assert.Equal(t, 1, room.History[0].X)
	assert.Equal(t, 1, room.Players[0].Stats.Wins)
	assert.False(t, room.Players[1].Left)
	assert.Equal(t, "p2", room.RematchRequests[0])
}

func TestRoom_PlayerLookup(t *testing.T) {
	room := newTestRoom()

	assert.Equal(t, 0, room.PlayerIndexByID("p1"))
	assert.Equal(t, 1, room.PlayerIndexByID("p2"))
	assert.Equal(t, -1, room.PlayerIndexByID("p3"))

	assert.Equal(t, 1, room.PlayerIndexByHandle("h2"))
	assert.Equal(t, -1, room.PlayerIndexByHandle("nope"))
}

func TestRoom_ConfirmPlayingState(t *testing.T) {
	t.Run("Returns nil when playing", func(t *testing.T) {
		assert.NoError(t, newTestRoom().ConfirmPlayingState())
	})

	t.Run("Returns ErrGameNotInProgress when ended", func(t *testing.T) {
		room := newTestRoom()
		room.Status = StatusEnded

		assert.ErrorIs(t, room.ConfirmPlayingState(), apperror.ErrGameNotInProgress)
	})

	t.Run("Returns ErrGameNotInProgress when waiting", func(t *testing.T) {
		room := newTestRoom()
		room.Status = StatusWaiting

		assert.True(t, room.IsWaiting())
		assert.ErrorIs(t, room.ConfirmPlayingState(), apperror.ErrGameNotInProgress)
	})
}

func TestRoom_Departures(t *testing.T) {
	// Given: a room where the first player left
	room := newTestRoom()
	room.Players[0].Left = true

	// Then: only the remaining handle is listed and the room is not abandoned
	assert.Equal(t, []string{"h2"}, room.Handles())
	assert.False(t, room.AllLeft())

	// When: the second player leaves too
	room.Players[1].Left = true

	// Then: the room is abandoned
	assert.Empty(t, room.Handles())
	assert.True(t, room.AllLeft())
}

package entity

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	StatusWaiting = "waiting"
	StatusPlaying = "playing"
	StatusEnded   = "ended"
)

const (
	ReasonFiveInRow  = "five-in-row"
	ReasonSurrender  = "surrender"
	ReasonDisconnect = "disconnect"
	ReasonDraw       = "draw"
)

type Move struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	PlayerID string `json:"playerId"`
}

type GameResult struct {
	Winner      string `json:"winner,omitempty"`
	WinnerColor Color  `json:"winnerColor,omitempty"`
	Reason      string `json:"reason"`
}

type Room struct {
	ID              string   `json:"id"`
	Players         []Player `json:"players"`
	Board           Board    `json:"board"`
	CurrentTurn     Color    `json:"currentTurn"`
	Status          string   `json:"status"`
	Winner          string   `json:"winner,omitempty"`
	History         []Move   `json:"history,omitempty"`
	UndoRequest     string   `json:"undoRequest,omitempty"`
	RematchRequests []string `json:"rematchRequests,omitempty"`
}

// NewRoom - creates a playing room; black moves first.
func NewRoom(id string, black, white Player) *Room {
	return &Room{
		ID:          id,
		Players:     []Player{black, white},
		CurrentTurn: ColorBlack,
		Status:      StatusPlaying,
	}
}

// Clone - returns a deep copy, so a checked-out room never aliases the stored one.
func (that *Room) Clone() *Room {
	clone := *that
	clone.Players = make([]Player, len(that.Players))
	for i, player := range that.Players {
		if player.Stats != nil {
			stats := *player.Stats
			player.Stats = &stats
		}
		clone.Players[i] = player
	}
	clone.History = slices.Clone(that.History)
	clone.RematchRequests = slices.Clone(that.RematchRequests)

	return &clone
}

func (that *Room) PlayerIndexByID(playerID string) int {
	return slices.IndexFunc(that.Players, func(p Player) bool { return p.ID == playerID })
}

func (that *Room) PlayerIndexByHandle(handle string) int {
	return slices.IndexFunc(that.Players, func(p Player) bool { return p.Handle == handle })
}

// PlayerByColor - returns the player holding the color, or nil for a malformed room.
func (that *Room) PlayerByColor(color Color) *Player {
	for i := range that.Players {
		if ColorForIndex(i) == color {
			return &that.Players[i]
		}
	}

	return nil
}

func (that *Room) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Room) IsEnded() bool {
	return that.Status == StatusEnded
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// ConfirmPlayingState - returns an error unless the room accepts game actions.
func (that *Room) ConfirmPlayingState() error {
	if that.IsPlaying() {
		return nil
	}

	return fmt.Errorf("%w: room %s is %s", apperror.ErrGameNotInProgress, that.ID, that.Status)
}

// AllLeft - reports whether every player has departed the room.
func (that *Room) AllLeft() bool {
	for _, player := range that.Players {
		if !player.Left {
			return false
		}
	}

	return true
}

// Handles - lists the connection handles of players still in the room.
func (that *Room) Handles() []string {
	handles := make([]string, 0, len(that.Players))
	for _, player := range that.Players {
		if !player.Left {
			handles = append(handles, player.Handle)
		}
	}

	return handles
}

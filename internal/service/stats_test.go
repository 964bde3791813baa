package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

func TestStatsService(t *testing.T) {
	room := entity.NewRoom("room-1", alice, bob)

	t.Run("Winner gets a win, loser a loss", func(t *testing.T) {
		stats := NewStatsService()

		// When: Alice wins twice and Bob once
		stats.RecordResult(room, &entity.GameResult{Winner: alice.ID, Reason: entity.ReasonFiveInRow})
		stats.RecordResult(room, &entity.GameResult{Winner: alice.ID, Reason: entity.ReasonSurrender})
		stats.RecordResult(room, &entity.GameResult{Winner: bob.ID, Reason: entity.ReasonDisconnect})

		// Then: counters follow the results
		assert.Equal(t, entity.PlayerStats{Wins: 2, Losses: 1}, stats.Get("Alice"))
		assert.Equal(t, entity.PlayerStats{Wins: 1, Losses: 2}, stats.Get("Bob"))
	})

	t.Run("Draw counts for both players", func(t *testing.T) {
		stats := NewStatsService()

		stats.RecordResult(room, &entity.GameResult{Reason: entity.ReasonDraw})

		assert.Equal(t, entity.PlayerStats{Draws: 1}, stats.Get("Alice"))
		assert.Equal(t, entity.PlayerStats{Draws: 1}, stats.Get("Bob"))
	})

	t.Run("Unknown name has zero stats and nil results are ignored", func(t *testing.T) {
		stats := NewStatsService()

		stats.RecordResult(room, nil)
		stats.RecordResult(nil, &entity.GameResult{Reason: entity.ReasonDraw})

		assert.Zero(t, stats.Get("Carol"))
		assert.Empty(t, stats.All())
	})

	t.Run("Reset drops one name only", func(t *testing.T) {
		stats := NewStatsService()
		stats.RecordResult(room, &entity.GameResult{Winner: bob.ID, Reason: entity.ReasonSurrender})

		stats.Reset("Bob")

		assert.Zero(t, stats.Get("Bob"))
		assert.Equal(t, map[string]entity.PlayerStats{"Alice": {Losses: 1}}, stats.All())
	})

	t.Run("All returns a copy", func(t *testing.T) {
		stats := NewStatsService()
		stats.RecordResult(room, &entity.GameResult{Winner: alice.ID, Reason: entity.ReasonSurrender})

		all := stats.All()
		all["Alice"] = entity.PlayerStats{}

		assert.Equal(t, 1, stats.Get("Alice").Wins)
	})
}

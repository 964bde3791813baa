package service

import (
	"maps"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// StatsService keeps per-name win/loss/draw counters for the process lifetime.
type StatsService interface {
	Get(name string) entity.PlayerStats
	RecordResult(room *entity.Room, result *entity.GameResult)
	Reset(name string)
	All() map[string]entity.PlayerStats
}

type statsService struct {
	mu    sync.RWMutex
	stats map[string]entity.PlayerStats
}

func NewStatsService() StatsService {
	return &statsService{
		stats: make(map[string]entity.PlayerStats),
	}
}

// Get - unknown names have zero stats.
func (that *statsService) Get(name string) entity.PlayerStats {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.stats[name]
}

// RecordResult - the winner gets a win and every other player a loss; a draw counts for everybody.
func (that *statsService) RecordResult(room *entity.Room, result *entity.GameResult) {
	if room == nil || result == nil {
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for _, player := range room.Players {
		stats := that.stats[player.Name]

		switch {
		case result.Reason == entity.ReasonDraw:
			stats.Draws++
		case player.ID == result.Winner:
			stats.Wins++
		default:
			stats.Losses++
		}

		that.stats[player.Name] = stats
	}
}

func (that *statsService) Reset(name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.stats, name)
}

func (that *statsService) All() map[string]entity.PlayerStats {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return maps.Clone(that.stats)
}

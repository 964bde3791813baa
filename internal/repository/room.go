package repository

import (
	"context"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// RoomRepository stores rooms by id and indexes them by the handles of the players still seated.
type RoomRepository interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByHandle(ctx context.Context, handle string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
	DetachHandle(ctx context.Context, handle string) error
	Count(ctx context.Context) (int, error)
}

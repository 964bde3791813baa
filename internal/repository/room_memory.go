package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type memoryRoom struct {
	mu      sync.RWMutex
	rooms   map[string]*entity.Room
	handles map[string]string
}

// NewMemoryRoomRepository - rooms live in process memory; every read and write goes through a copy.
func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoom{
		rooms:   make(map[string]*entity.Room),
		handles: make(map[string]string),
	}
}

func (that *memoryRoom) CreateOrUpdate(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rooms[room.ID] = room.Clone()
	for _, handle := range room.Handles() {
		that.handles[handle] = room.ID
	}

	return nil
}

func (that *memoryRoom) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room.Clone(), nil
}

func (that *memoryRoom) GetByHandle(ctx context.Context, handle string) (*entity.Room, error) {
	that.mu.RLock()
	id, ok := that.handles[handle]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return that.GetByID(ctx, id)
}

func (that *memoryRoom) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[id]
	if !ok {
		return apperror.ErrRoomNotFound
	}

	for _, handle := range room.Handles() {
		if that.handles[handle] == id {
			delete(that.handles, handle)
		}
	}
	delete(that.rooms, id)

	return nil
}

func (that *memoryRoom) DetachHandle(_ context.Context, handle string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.handles, handle)

	return nil
}

func (that *memoryRoom) Count(_ context.Context) (int, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms), nil
}

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type RoomService interface {
	Create(ctx context.Context, black, white entity.Player) (*entity.Room, error)
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByHandle(ctx context.Context, handle string) (*entity.Room, error)
	Update(ctx context.Context, room *entity.Room) error
	Delete(ctx context.Context, id string) error
	Detach(ctx context.Context, handle string) error
	Count(ctx context.Context) (int, error)

	// Lock - takes the exclusive lock of the room; the returned func releases it.
	Lock(id string) func()
}

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByHandle(ctx context.Context, handle string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
	DetachHandle(ctx context.Context, handle string) error
	Count(ctx context.Context) (int, error)
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

type roomService struct {
	roomRepo roomRepo

	locksMu sync.Mutex
	locks   map[string]*roomLock
}

func NewRoomService(roomRepo roomRepo) RoomService {
	return &roomService{
		roomRepo: roomRepo,
		locks:    make(map[string]*roomLock),
	}
}

func (that *roomService) Create(ctx context.Context, black, white entity.Player) (*entity.Room, error) {
	room := entity.NewRoom(uuid.NewString(), black, white)

	if err := that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room in storage: %w", err)
	}

	return room, nil
}

func (that *roomService) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve room from storage: %w", err)
	}

	return room, nil
}

func (that *roomService) GetByHandle(ctx context.Context, handle string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve room by handle: %w", err)
	}

	return room, nil
}

func (that *roomService) Update(ctx context.Context, room *entity.Room) error {
	if err := that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	return nil
}

func (that *roomService) Delete(ctx context.Context, id string) error {
	if err := that.roomRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	return nil
}

func (that *roomService) Detach(ctx context.Context, handle string) error {
	if err := that.roomRepo.DetachHandle(ctx, handle); err != nil {
		return fmt.Errorf("failed to detach handle: %w", err)
	}

	return nil
}

func (that *roomService) Count(ctx context.Context) (int, error) {
	count, err := that.roomRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}

	return count, nil
}

// Lock - per-room locks are reference counted and dropped once nobody holds or waits for them.
func (that *roomService) Lock(id string) func() {
	that.locksMu.Lock()
	lock, ok := that.locks[id]
	if !ok {
		lock = &roomLock{}
		that.locks[id] = lock
	}
	lock.refs++
	that.locksMu.Unlock()

	lock.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()

			that.locksMu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(that.locks, id)
			}
			that.locksMu.Unlock()
		})
	}
}

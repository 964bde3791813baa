package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const (
	roomKeyPrefix   = "room:"
	handleKeyPrefix = "handle:"
	scanBatch       = 100
)

type dbRoom struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRoomRepository - rooms are kept as JSON under room:<id>, handle:<handle> points to the room id.
// A zero ttl keeps keys until they are deleted.
func NewRedisRoomRepository(client *redis.Client, ttl time.Duration) RoomRepository {
	return &dbRoom{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbRoom) CreateOrUpdate(ctx context.Context, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKeyPrefix+room.ID, roomJSON, that.ttl)
		for _, handle := range room.Handles() {
			pipe.Set(ctx, handleKeyPrefix+handle, room.ID, that.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	var room entity.Room
	if err = json.Unmarshal([]byte(response), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

func (that *dbRoom) GetByHandle(ctx context.Context, handle string) (*entity.Room, error) {
	id, err := that.client.Get(ctx, handleKeyPrefix+handle).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room id by handle: %w", err)
	}

	return that.GetByID(ctx, id)
}

func (that *dbRoom) DeleteByID(ctx context.Context, id string) error {
	room, err := that.GetByID(ctx, id)
	if err != nil {
		return err
	}

	keys := []string{roomKeyPrefix + id}
	for _, handle := range room.Handles() {
		keys = append(keys, handleKeyPrefix+handle)
	}

	if err = that.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete room by id: %w", err)
	}

	return nil
}

func (that *dbRoom) DetachHandle(ctx context.Context, handle string) error {
	if err := that.client.Del(ctx, handleKeyPrefix+handle).Err(); err != nil {
		return fmt.Errorf("failed to detach handle: %w", err)
	}

	return nil
}

func (that *dbRoom) Count(ctx context.Context) (int, error) {
	var count int

	iter := that.client.Scan(ctx, 0, roomKeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		count++
	}

	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}

	return count, nil
}

package matchmaking

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Pairing holds two matched players in arrival order; First plays black.
type Pairing struct {
	First  entity.Player
	Second entity.Player
}

type entry struct {
	handle string
	name   string
}

// Queue is a FIFO of waiting connections. Enqueue and Remove share one mutex,
// so a handle can't be paired after its removal was accepted.
type Queue struct {
	mu      sync.Mutex
	entries []entry
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue - appends the handle; once two entries wait, the two oldest are paired and returned.
func (that *Queue) Enqueue(handle, name string) (*Pairing, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.indexOf(handle) != -1 {
		return nil, fmt.Errorf("%w: %s", apperror.ErrAlreadyInQueue, handle)
	}

	that.entries = append(that.entries, entry{handle: handle, name: name})

	if len(that.entries) < 2 {
		return nil, nil
	}

	first, second := that.entries[0], that.entries[1]
	that.entries = slices.Delete(that.entries, 0, 2)

	return &Pairing{
		First:  newPlayer(first),
		Second: newPlayer(second),
	}, nil
}

// Remove - drops the handle if it is waiting; a no-op otherwise.
func (that *Queue) Remove(handle string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	index := that.indexOf(handle)
	if index == -1 {
		return false
	}

	that.entries = slices.Delete(that.entries, index, index+1)

	return true
}

func (that *Queue) Contains(handle string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.indexOf(handle) != -1
}

func (that *Queue) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.entries)
}

func (that *Queue) indexOf(handle string) int {
	return slices.IndexFunc(that.entries, func(e entry) bool { return e.handle == handle })
}

func newPlayer(e entry) entity.Player {
	return entity.Player{
		ID:     uuid.NewString(),
		Name:   e.name,
		Handle: e.handle,
	}
}

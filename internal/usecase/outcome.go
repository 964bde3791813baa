package usecase

import "github.com/rocketscienceinc/gomoku-backend/internal/entity"

// JoinOutcome - Room is set once the join produced a match, otherwise Position
// is the caller's place in the queue. Abandoned is the ended room the caller
// left to queue again. Unpaired names the partner dequeued for a room that
// could not be created.
type JoinOutcome struct {
	Room      *entity.Room
	Position  int
	Abandoned *entity.Room
	Unpaired  string
}

// MoveOutcome - UndoRejected reports that the move turned down a pending undo request.
type MoveOutcome struct {
	Room         *entity.Room
	Move         entity.Move
	Result       *entity.GameResult
	UndoRejected bool
}

// EndOutcome - the room after a surrender or a departure. Closed means the room was torn down.
type EndOutcome struct {
	Room   *entity.Room
	Result *entity.GameResult
	Closed bool
}

type UndoOutcome struct {
	Room      *entity.Room
	Requester entity.Player
	Accepted  bool
}

type RematchOutcome struct {
	Room      *entity.Room
	Requester entity.Player
	Restarted bool
}

type Overview struct {
	Rooms   int `json:"rooms"`
	Waiting int `json:"waiting"`
}

package apperror

import "errors"

var (
	ErrPlayerNotFound       = errors.New("player not found")
	ErrNotYourTurn          = errors.New("it's not your turn")
	ErrInvalidPosition      = errors.New("invalid position")
	ErrCellOccupied         = errors.New("position already occupied")
	ErrRoomNotFound         = errors.New("room not found")
	ErrUndoAlreadyPending   = errors.New("undo request already pending")
	ErrNoUndoPending        = errors.New("no undo request pending")
	ErrNothingToUndo        = errors.New("no moves to undo")
	ErrCannotRespondOwnUndo = errors.New("can't respond to your own undo request")
	ErrGameNotInProgress    = errors.New("game is not in progress")
	ErrGameNotFinished      = errors.New("game is not finished")
	ErrOpponentLeft         = errors.New("opponent has left the room")
	ErrAlreadyInQueue       = errors.New("already waiting in queue")
	ErrAlreadyInRoom        = errors.New("already playing in a room")
	ErrInvalidPlayerName    = errors.New("player name must be 1 to 32 characters")
	ErrInvalidMessage       = errors.New("invalid message")
)

const CodeUnknown = "UnknownError"

var codes = []struct {
	err  error
	code string
}{
	{ErrPlayerNotFound, "PlayerNotFound"},
	{ErrNotYourTurn, "NotYourTurn"},
	{ErrInvalidPosition, "InvalidPosition"},
	{ErrCellOccupied, "CellOccupied"},
	{ErrRoomNotFound, "RoomNotFound"},
	{ErrUndoAlreadyPending, "UndoAlreadyPending"},
	{ErrNoUndoPending, "NoUndoPending"},
	{ErrNothingToUndo, "NothingToUndo"},
	{ErrCannotRespondOwnUndo, "CannotRespondOwnUndo"},
	{ErrGameNotInProgress, "GameNotInProgress"},
	{ErrGameNotFinished, "GameNotFinished"},
	{ErrOpponentLeft, "OpponentLeft"},
	{ErrAlreadyInQueue, "AlreadyInQueue"},
	{ErrAlreadyInRoom, "AlreadyInRoom"},
	{ErrInvalidPlayerName, "InvalidPlayerName"},
	{ErrInvalidMessage, "InvalidMessage"},
}

// Code - returns the wire code of the first known error found in err's chain.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return CodeUnknown
}

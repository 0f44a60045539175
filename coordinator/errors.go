// coordinator/errors.go
package coordinator

import "errors"

// Validation failures surfaced to the originating participant as an
// error event. None of these leave a trace in the lobby store.
var (
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrNotAMember     = errors.New("you are not a member of this lobby")
	ErrAlreadyJoined  = errors.New("you are already in this lobby")
	ErrNotHost        = errors.New("only the host can do that")
	ErrLobbyFull      = errors.New("lobby is full")
	ErrGameInProgress = errors.New("game already in progress")
	ErrGameOver       = errors.New("this game is over")
	ErrRoundNotActive = errors.New("no round is running")
	ErrCannotStart    = errors.New("not enough players or not all ready")
)

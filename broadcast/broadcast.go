// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/spyfall/session"
)

var ErrSessionNotFound = errors.New("session not found")

// Broadcaster fans messages out to sessions. Lobby broadcasts resolve
// membership through the session manager at send time.
type Broadcaster interface {
	SendTo(sessionID string, msgID uint16, data []byte) error
	BroadcastToLobby(lobbyID string, msgID uint16, data []byte, exclude ...string) error
}

// LobbyBroadcaster is the session-manager-backed implementation.
type LobbyBroadcaster struct {
	sessionManager *session.Manager
}

func NewLobbyBroadcaster(sessionManager *session.Manager) *LobbyBroadcaster {
	return &LobbyBroadcaster{sessionManager: sessionManager}
}

func (b *LobbyBroadcaster) SendTo(sessionID string, msgID uint16, data []byte) error {
	sess, exists := b.sessionManager.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return sess.Send(msgID, data)
}

// BroadcastToLobby sends to every member of the lobby except the
// excluded session ids. A failed send to one member does not stop the
// fan-out to the rest.
func (b *LobbyBroadcaster) BroadcastToLobby(lobbyID string, msgID uint16, data []byte, exclude ...string) error {
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	for _, sess := range b.sessionManager.GetByLobbyID(lobbyID) {
		if excluded[sess.GetID()] {
			continue
		}
		if err := sess.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}

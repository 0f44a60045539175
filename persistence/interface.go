// persistence/interface.go
package persistence

import (
	"errors"
	"time"

	"github.com/wfunc/spyfall/game"
)

// Gateway is the durable backing store for lobbies. The coordinator
// re-reads through it before every mutation; no in-process copy is
// treated as authoritative.
type Gateway interface {
	LoadLobby(code string) (game.Lobby, error)
	SaveLobby(lobby game.Lobby) error
	DeleteLobby(code string) error
	ListLobbies() ([]game.Lobby, error)
	LoadSettings() (game.Settings, error)
	SaveSettings(settings game.Settings) error
	SaveGameRecord(record GameRecord) error
	Close() error
}

// GameRecord is the history row written when a match ends.
type GameRecord struct {
	LobbyCode    string    `json:"lobby_code"`
	Winner       string    `json:"winner"` // "impostor" or "crew"
	ImpostorWins int       `json:"impostor_wins"`
	CrewWins     int       `json:"crew_wins"`
	Rounds       int       `json:"rounds"`
	PlayerNames  []string  `json:"player_names"`
	FinishedAt   time.Time `json:"finished_at"`
}

var ErrLobbyNotFound = errors.New("lobby not found")

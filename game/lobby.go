// game/lobby.go
package game

import (
	"time"
)

// State is the lifecycle state of a lobby.
type State string

const (
	StateWaiting State = "waiting"
	StatePlaying State = "playing"
	StateVoting  State = "voting"
	StateEnded   State = "ended"
)

const (
	// MinPlayers is the smallest roster that can start a round.
	MinPlayers = 3
	// MaxPlayers is the hard roster cap while joining is allowed.
	MaxPlayers = 8
)

// Player is one participant in a lobby. The three secret fields are nil
// outside a running round; during a round the impostor keeps all three nil
// except IsImpostor, which points at true.
type Player struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	IsImpostor     *bool   `json:"is_impostor,omitempty"`
	SecretLocation *string `json:"secret_location,omitempty"`
	SecretRole     *string `json:"secret_role,omitempty"`
	IsHost         bool    `json:"is_host"`
	IsReady        bool    `json:"is_ready"`
}

// Lobby is the full state of one game session. It is treated as an
// immutable record: every transition in this package returns a new copy
// and never touches its input.
type Lobby struct {
	ID                 string    `json:"id"`
	Players            []Player  `json:"players"`
	GameState          State     `json:"game_state"`
	CurrentRound       int       `json:"current_round"`
	MaxRounds          int       `json:"max_rounds"`
	ImpostorWins       int       `json:"impostor_wins"`
	CrewWins           int       `json:"crew_wins"`
	CurrentLocation    *string   `json:"current_location,omitempty"`
	RoundTimeRemaining *int      `json:"round_time_remaining,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Settings is the read-only gameplay configuration.
type Settings struct {
	MaxRounds  int `json:"max_rounds"`
	RoundTime  int `json:"round_time"`  // seconds
	VotingTime int `json:"voting_time"` // seconds
}

// Member returns the player with the given id.
func (l Lobby) Member(playerID string) (Player, bool) {
	for _, p := range l.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// Host returns the current host. A non-empty lobby always has exactly one.
func (l Lobby) Host() (Player, bool) {
	for _, p := range l.Players {
		if p.IsHost {
			return p, true
		}
	}
	return Player{}, false
}

// IsEmpty reports whether the roster has no players left.
func (l Lobby) IsEmpty() bool {
	return len(l.Players) == 0
}

// clone deep-copies the lobby, including the pointer fields of each
// player, so transitions never alias their input.
func (l Lobby) clone() Lobby {
	out := l
	out.Players = make([]Player, len(l.Players))
	for i, p := range l.Players {
		cp := p
		cp.IsImpostor = copyBool(p.IsImpostor)
		cp.SecretLocation = copyString(p.SecretLocation)
		cp.SecretRole = copyString(p.SecretRole)
		out.Players[i] = cp
	}
	out.CurrentLocation = copyString(l.CurrentLocation)
	out.RoundTimeRemaining = copyInt(l.RoundTimeRemaining)
	return out
}

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
func intPtr(n int) *int          { return &n }

func copyBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	return boolPtr(*p)
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	return stringPtr(*p)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}

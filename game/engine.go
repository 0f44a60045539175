// game/engine.go
//
// Pure transition functions over the Lobby record. Every function returns
// a fresh copy of its input with the transition applied; callers are
// responsible for precondition checks (capacity, authorization, state)
// and for persisting the result.
package game

import (
	"math/rand"
	"time"
)

// CreateLobby builds a new waiting lobby with the given host as its only
// member. Round counters start at zero.
func CreateLobby(id string, host Player, settings Settings) Lobby {
	host.IsHost = true
	now := time.Now()
	return Lobby{
		ID:           id,
		Players:      []Player{host},
		GameState:    StateWaiting,
		CurrentRound: 0,
		MaxRounds:    settings.MaxRounds,
		ImpostorWins: 0,
		CrewWins:     0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AddPlayer appends a player to the end of the roster. The caller must
// have already checked capacity; the transition itself is total.
func AddPlayer(l Lobby, p Player) Lobby {
	out := l.clone()
	out.Players = append(out.Players, p)
	out.UpdatedAt = time.Now()
	return out
}

// RemovePlayer filters a player out of the roster. If the removed player
// was host, the earliest-joined remaining player becomes the new host;
// roster order is join order, so that is index 0 after the filter. An
// emptied lobby is returned as-is for the caller to delete.
func RemovePlayer(l Lobby, playerID string) Lobby {
	out := l.clone()
	remaining := out.Players[:0]
	for _, p := range out.Players {
		if p.ID != playerID {
			remaining = append(remaining, p)
		}
	}
	out.Players = remaining
	out.UpdatedAt = time.Now()

	if len(out.Players) == 0 {
		return out
	}

	for i := range out.Players {
		out.Players[i].IsHost = i == 0
	}
	return out
}

// ToggleReady flips the ready flag of exactly one player. An unknown id
// yields an unchanged copy.
func ToggleReady(l Lobby, playerID string) Lobby {
	out := l.clone()
	for i := range out.Players {
		if out.Players[i].ID == playerID {
			out.Players[i].IsReady = !out.Players[i].IsReady
			break
		}
	}
	out.UpdatedAt = time.Now()
	return out
}

// CanStart reports whether the roster is within bounds and everyone has
// readied up.
func CanStart(l Lobby) bool {
	if len(l.Players) < MinPlayers || len(l.Players) > MaxPlayers {
		return false
	}
	for _, p := range l.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// StartRound deals a new round: one uniformly chosen player becomes the
// impostor and gets no secrets, everyone else receives the location and a
// role taken positionally from a Fisher-Yates permutation of the role
// list. Positional assignment guarantees pairwise-distinct roles; the
// content pack carries at least MaxPlayers roles per location so the
// permutation is never short. Ready flags reset for the next round.
func StartRound(l Lobby, location string, roles []string, roundTime int, rng *rand.Rand) Lobby {
	out := l.clone()

	shuffled := make([]string, len(roles))
	copy(shuffled, roles)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	impostorIdx := rng.Intn(len(out.Players))
	for i := range out.Players {
		p := &out.Players[i]
		p.IsReady = false
		if i == impostorIdx {
			p.IsImpostor = boolPtr(true)
			p.SecretLocation = nil
			p.SecretRole = nil
		} else {
			p.IsImpostor = boolPtr(false)
			p.SecretLocation = stringPtr(location)
			p.SecretRole = stringPtr(shuffled[i])
		}
	}

	out.GameState = StatePlaying
	out.CurrentRound++
	out.CurrentLocation = stringPtr(location)
	out.RoundTimeRemaining = intPtr(roundTime)
	out.UpdatedAt = time.Now()
	return out
}

// EndRound scores a finished round and clears every per-round secret.
// The match ends once either side holds a strict majority of MaxRounds;
// otherwise the lobby returns to waiting and the round counter advances.
func EndRound(l Lobby, impostorWon bool) Lobby {
	out := l.clone()
	if impostorWon {
		out.ImpostorWins++
	} else {
		out.CrewWins++
	}

	isOver := float64(out.ImpostorWins) > float64(out.MaxRounds)/2 ||
		float64(out.CrewWins) > float64(out.MaxRounds)/2

	if isOver {
		out.GameState = StateEnded
	} else {
		out.GameState = StateWaiting
		out.CurrentRound++
	}

	for i := range out.Players {
		out.Players[i].IsImpostor = nil
		out.Players[i].SecretLocation = nil
		out.Players[i].SecretRole = nil
		out.Players[i].IsReady = false
	}
	out.CurrentLocation = nil
	out.RoundTimeRemaining = nil
	out.UpdatedAt = time.Now()
	return out
}

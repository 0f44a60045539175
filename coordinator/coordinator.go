// coordinator/coordinator.go
//
// The coordinator owns the event handling for every lobby: it re-reads
// the lobby from the gateway, validates the event, applies the pure
// game transition, persists the result and fans the update out. A
// broadcast only happens after a successful write, so participants never
// hear about state the store does not hold.
package coordinator

import (
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/wfunc/spyfall/broadcast"
	"github.com/wfunc/spyfall/game"
	"github.com/wfunc/spyfall/location"
	"github.com/wfunc/spyfall/logger"
	"github.com/wfunc/spyfall/network"
	"github.com/wfunc/spyfall/persistence"
	"github.com/wfunc/spyfall/session"
)

type Coordinator struct {
	gateway     persistence.Gateway
	broadcaster broadcast.Broadcaster
	settings    game.Settings

	rng   *rand.Rand
	rngMu sync.Mutex

	// One mutex per lobby code. Handlers for the same lobby are
	// serialized across load, transition, save and broadcast, which
	// closes the read-modify-write window between concurrent events.
	locks sync.Map
}

func New(gateway persistence.Gateway, broadcaster broadcast.Broadcaster, settings game.Settings, rng *rand.Rand) *Coordinator {
	return &Coordinator{
		gateway:     gateway,
		broadcaster: broadcaster,
		settings:    settings,
		rng:         rng,
	}
}

// NormalizeCode maps a lobby code to its canonical form. Codes are short
// human-typeable strings, compared case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coordinator) lockLobby(code string) func() {
	v, _ := c.locks.LoadOrStore(code, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// HandleJoin admits a participant into the lobby, creating it when the
// code is unknown. The creator becomes host. Joins are refused once the
// roster is full, while a round is playing, or after the match ended.
func (c *Coordinator) HandleJoin(sess *session.Session, lobbyID, playerName string) {
	code := NormalizeCode(lobbyID)
	unlock := c.lockLobby(code)
	defer unlock()

	player := game.Player{ID: sess.GetID(), Name: playerName}

	lobby, err := c.gateway.LoadLobby(code)
	switch {
	case err == persistence.ErrLobbyNotFound:
		lobby = game.CreateLobby(code, player, c.settings)
	case err != nil:
		c.internalError(sess, "load lobby", err)
		return
	default:
		if _, already := lobby.Member(sess.GetID()); already {
			c.sendError(sess, ErrAlreadyJoined)
			return
		}
		if len(lobby.Players) >= game.MaxPlayers {
			c.sendError(sess, ErrLobbyFull)
			return
		}
		if lobby.GameState == game.StatePlaying {
			c.sendError(sess, ErrGameInProgress)
			return
		}
		if lobby.GameState == game.StateEnded {
			c.sendError(sess, ErrGameOver)
			return
		}
		lobby = game.AddPlayer(lobby, player)
	}

	if err := c.gateway.SaveLobby(lobby); err != nil {
		c.internalError(sess, "save lobby", err)
		return
	}

	sess.SetName(playerName)
	sess.SetLobbyID(code)

	data, err := json.Marshal(lobby)
	if err != nil {
		c.internalError(sess, "marshal lobby", err)
		return
	}
	c.broadcaster.SendTo(sess.GetID(), network.MsgTypeLobbyJoined, data)
	c.broadcaster.BroadcastToLobby(code, network.MsgTypePlayerJoined, data, sess.GetID())

	logger.Log.Infof("Player %s (%s) joined lobby %s", playerName, sess.GetID(), code)
}

// HandleToggleReady flips the sender's ready flag.
func (c *Coordinator) HandleToggleReady(sess *session.Session, lobbyID string) {
	code := NormalizeCode(lobbyID)
	unlock := c.lockLobby(code)
	defer unlock()

	lobby, err := c.loadFor(sess, code)
	if err != nil {
		return
	}
	if _, ok := lobby.Member(sess.GetID()); !ok {
		c.sendError(sess, ErrNotAMember)
		return
	}

	lobby = game.ToggleReady(lobby, sess.GetID())

	if err := c.gateway.SaveLobby(lobby); err != nil {
		c.internalError(sess, "save lobby", err)
		return
	}

	data, err := json.Marshal(lobby)
	if err != nil {
		c.internalError(sess, "marshal lobby", err)
		return
	}
	c.broadcaster.BroadcastToLobby(code, network.MsgTypeLobbyUpdated, data)
}

// HandleStart deals a round. Host-only; the lobby must be waiting with a
// full complement of ready players. The resulting broadcast is redacted
// per recipient so nobody learns another player's secrets.
func (c *Coordinator) HandleStart(sess *session.Session, lobbyID string) {
	code := NormalizeCode(lobbyID)
	unlock := c.lockLobby(code)
	defer unlock()

	lobby, err := c.loadFor(sess, code)
	if err != nil {
		return
	}
	member, ok := lobby.Member(sess.GetID())
	if !ok {
		c.sendError(sess, ErrNotAMember)
		return
	}
	if !member.IsHost {
		c.sendError(sess, ErrNotHost)
		return
	}
	if lobby.GameState == game.StateEnded {
		c.sendError(sess, ErrGameOver)
		return
	}
	if lobby.GameState != game.StateWaiting {
		c.sendError(sess, ErrGameInProgress)
		return
	}
	if !game.CanStart(lobby) {
		c.sendError(sess, ErrCannotStart)
		return
	}

	c.rngMu.Lock()
	locationName, roles := location.Pick(c.rng)
	lobby = game.StartRound(lobby, locationName, roles, c.settings.RoundTime, c.rng)
	c.rngMu.Unlock()

	if err := c.gateway.SaveLobby(lobby); err != nil {
		c.internalError(sess, "save lobby", err)
		return
	}

	// One payload per recipient. A shared payload would leak the
	// impostor's identity and the location to everyone.
	for _, p := range lobby.Players {
		view := game.RedactFor(lobby, p.ID)
		data, err := json.Marshal(view)
		if err != nil {
			c.internalError(sess, "marshal lobby view", err)
			return
		}
		c.broadcaster.SendTo(p.ID, network.MsgTypeGameStarted, data)
	}

	logger.Log.Infof("Lobby %s started round %d", code, lobby.CurrentRound)
}

// HandleEndRound scores the running round. Host-only. When the match is
// decided a game record is appended for the history query surface.
func (c *Coordinator) HandleEndRound(sess *session.Session, lobbyID string, impostorWon bool) {
	code := NormalizeCode(lobbyID)
	unlock := c.lockLobby(code)
	defer unlock()

	lobby, err := c.loadFor(sess, code)
	if err != nil {
		return
	}
	member, ok := lobby.Member(sess.GetID())
	if !ok {
		c.sendError(sess, ErrNotAMember)
		return
	}
	if !member.IsHost {
		c.sendError(sess, ErrNotHost)
		return
	}
	if lobby.GameState != game.StatePlaying {
		c.sendError(sess, ErrRoundNotActive)
		return
	}

	lobby = game.EndRound(lobby, impostorWon)

	if err := c.gateway.SaveLobby(lobby); err != nil {
		c.internalError(sess, "save lobby", err)
		return
	}

	if lobby.GameState == game.StateEnded {
		c.recordFinishedGame(lobby)
	}

	data, err := json.Marshal(lobby)
	if err != nil {
		c.internalError(sess, "marshal lobby", err)
		return
	}
	c.broadcaster.BroadcastToLobby(code, network.MsgTypeRoundEnded, data)
}

// HandleDisconnect removes the departed participant from every lobby
// still listing them. The transport gives no lobby hint, so the gateway
// is scanned. Emptied lobbies are deleted.
func (c *Coordinator) HandleDisconnect(sess *session.Session) {
	lobbies, err := c.gateway.ListLobbies()
	if err != nil {
		logger.Log.Errorf("Disconnect sweep for %s failed to list lobbies: %v", sess.GetID(), err)
		return
	}

	for _, stale := range lobbies {
		if _, ok := stale.Member(sess.GetID()); !ok {
			continue
		}

		unlock := c.lockLobby(stale.ID)

		// Re-read under the lock; the listing above may be stale.
		lobby, err := c.gateway.LoadLobby(stale.ID)
		if err != nil {
			unlock()
			if err != persistence.ErrLobbyNotFound {
				logger.Log.Errorf("Disconnect reload of lobby %s failed: %v", stale.ID, err)
			}
			continue
		}
		if _, ok := lobby.Member(sess.GetID()); !ok {
			unlock()
			continue
		}

		lobby = game.RemovePlayer(lobby, sess.GetID())

		if lobby.IsEmpty() {
			if err := c.gateway.DeleteLobby(lobby.ID); err != nil {
				logger.Log.Errorf("Failed to delete empty lobby %s: %v", lobby.ID, err)
			}
			unlock()
			continue
		}

		if err := c.gateway.SaveLobby(lobby); err != nil {
			logger.Log.Errorf("Failed to save lobby %s after disconnect: %v", lobby.ID, err)
			unlock()
			continue
		}

		data, err := json.Marshal(lobby)
		if err != nil {
			logger.Log.Errorf("Failed to marshal lobby %s: %v", lobby.ID, err)
			unlock()
			continue
		}
		c.broadcaster.BroadcastToLobby(lobby.ID, network.MsgTypePlayerLeft, data, sess.GetID())
		unlock()

		logger.Log.Infof("Player %s removed from lobby %s on disconnect", sess.GetID(), lobby.ID)
	}
}

// ActiveLobbies returns every lobby with at least one member, the
// diagnostics read surface.
func (c *Coordinator) ActiveLobbies() ([]game.Lobby, error) {
	lobbies, err := c.gateway.ListLobbies()
	if err != nil {
		return nil, err
	}

	active := make([]game.Lobby, 0, len(lobbies))
	for _, l := range lobbies {
		if !l.IsEmpty() {
			active = append(active, l)
		}
	}
	return active, nil
}

// SweepStaleLobbies deletes empty lobbies and lobbies idle for longer
// than the TTL. Run periodically; gameplay never depends on it.
func (c *Coordinator) SweepStaleLobbies(ttl time.Duration) {
	lobbies, err := c.gateway.ListLobbies()
	if err != nil {
		logger.Log.Errorf("Stale sweep failed to list lobbies: %v", err)
		return
	}

	cutoff := time.Now().Add(-ttl)
	for _, l := range lobbies {
		if !l.IsEmpty() && l.UpdatedAt.After(cutoff) {
			continue
		}
		unlock := c.lockLobby(l.ID)
		if err := c.gateway.DeleteLobby(l.ID); err != nil {
			logger.Log.Errorf("Stale sweep failed to delete lobby %s: %v", l.ID, err)
		} else {
			logger.Log.Infof("Stale sweep deleted lobby %s", l.ID)
		}
		unlock()
	}
}

// loadFor loads the lobby for an already-normalized code, reporting
// failures back to the sender.
func (c *Coordinator) loadFor(sess *session.Session, code string) (game.Lobby, error) {
	lobby, err := c.gateway.LoadLobby(code)
	if err == persistence.ErrLobbyNotFound {
		c.sendError(sess, ErrLobbyNotFound)
		return game.Lobby{}, err
	}
	if err != nil {
		c.internalError(sess, "load lobby", err)
		return game.Lobby{}, err
	}
	return lobby, nil
}

func (c *Coordinator) recordFinishedGame(lobby game.Lobby) {
	winner := "crew"
	if lobby.ImpostorWins > lobby.CrewWins {
		winner = "impostor"
	}
	names := make([]string, len(lobby.Players))
	for i, p := range lobby.Players {
		names[i] = p.Name
	}
	record := persistence.GameRecord{
		LobbyCode:    lobby.ID,
		Winner:       winner,
		ImpostorWins: lobby.ImpostorWins,
		CrewWins:     lobby.CrewWins,
		Rounds:       lobby.CurrentRound,
		PlayerNames:  names,
		FinishedAt:   time.Now(),
	}
	// History is best effort; the round result already went out.
	if err := c.gateway.SaveGameRecord(record); err != nil {
		logger.Log.Errorf("Failed to record finished game %s: %v", lobby.ID, err)
	}
}

func (c *Coordinator) sendError(sess *session.Session, err error) {
	msg := network.ErrorMessage{Message: err.Error()}
	data, merr := json.Marshal(msg)
	if merr != nil {
		return
	}
	c.broadcaster.SendTo(sess.GetID(), network.MsgTypeError, data)
}

func (c *Coordinator) internalError(sess *session.Session, op string, err error) {
	logger.Log.Errorf("Internal error (%s) for session %s: %v", op, sess.GetID(), err)
	msg := network.ErrorMessage{Message: "internal server error"}
	data, merr := json.Marshal(msg)
	if merr != nil {
		return
	}
	c.broadcaster.SendTo(sess.GetID(), network.MsgTypeError, data)
}

package coordinator

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net"
	"os"
	"testing"
	"time"

	"github.com/wfunc/spyfall/game"
	"github.com/wfunc/spyfall/logger"
	"github.com/wfunc/spyfall/network"
	"github.com/wfunc/spyfall/persistence"
	"github.com/wfunc/spyfall/session"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

// MockGateway is an in-memory persistence.Gateway with failure injection.
type MockGateway struct {
	lobbies  map[string]game.Lobby
	records  []persistence.GameRecord
	deleted  []string
	failSave bool
}

func NewMockGateway() *MockGateway {
	return &MockGateway{lobbies: make(map[string]game.Lobby)}
}

func (g *MockGateway) LoadLobby(code string) (game.Lobby, error) {
	lobby, ok := g.lobbies[code]
	if !ok {
		return game.Lobby{}, persistence.ErrLobbyNotFound
	}
	return lobby, nil
}

func (g *MockGateway) SaveLobby(lobby game.Lobby) error {
	if g.failSave {
		return errors.New("disk on fire")
	}
	g.lobbies[lobby.ID] = lobby
	return nil
}

func (g *MockGateway) DeleteLobby(code string) error {
	delete(g.lobbies, code)
	g.deleted = append(g.deleted, code)
	return nil
}

func (g *MockGateway) ListLobbies() ([]game.Lobby, error) {
	out := make([]game.Lobby, 0, len(g.lobbies))
	for _, l := range g.lobbies {
		out = append(out, l)
	}
	return out, nil
}

func (g *MockGateway) LoadSettings() (game.Settings, error) {
	return game.Settings{MaxRounds: 3, RoundTime: 480, VotingTime: 60}, nil
}

func (g *MockGateway) SaveSettings(settings game.Settings) error { return nil }

func (g *MockGateway) SaveGameRecord(record persistence.GameRecord) error {
	g.records = append(g.records, record)
	return nil
}

func (g *MockGateway) Close() error { return nil }

// MockBroadcaster records every send instead of hitting the network.
type SentMessage struct {
	SessionID string
	MsgID     uint16
	Data      []byte
}

type BroadcastMessage struct {
	LobbyID string
	MsgID   uint16
	Data    []byte
	Exclude []string
}

type MockBroadcaster struct {
	sent       []SentMessage
	broadcasts []BroadcastMessage
}

func (b *MockBroadcaster) SendTo(sessionID string, msgID uint16, data []byte) error {
	b.sent = append(b.sent, SentMessage{SessionID: sessionID, MsgID: msgID, Data: data})
	return nil
}

func (b *MockBroadcaster) BroadcastToLobby(lobbyID string, msgID uint16, data []byte, exclude ...string) error {
	b.broadcasts = append(b.broadcasts, BroadcastMessage{LobbyID: lobbyID, MsgID: msgID, Data: data, Exclude: exclude})
	return nil
}

func (b *MockBroadcaster) sentTo(sessionID string, msgID uint16) []SentMessage {
	var out []SentMessage
	for _, m := range b.sent {
		if m.SessionID == sessionID && m.MsgID == msgID {
			out = append(out, m)
		}
	}
	return out
}

func (b *MockBroadcaster) reset() {
	b.sent = nil
	b.broadcasts = nil
}

func newTestCoordinator() (*Coordinator, *MockGateway, *MockBroadcaster) {
	gateway := NewMockGateway()
	bcast := &MockBroadcaster{}
	settings := game.Settings{MaxRounds: 3, RoundTime: 480, VotingTime: 60}
	c := New(gateway, bcast, settings, rand.New(rand.NewSource(1)))
	return c, gateway, bcast
}

func newTestSession(id string) *session.Session {
	return session.NewSession(id, &MockConnection{})
}

// joinThree seeds lobby ABC123 with alice (host), bob and cara.
func joinThree(c *Coordinator) (alice, bob, cara *session.Session) {
	alice = newTestSession("alice")
	bob = newTestSession("bob")
	cara = newTestSession("cara")
	c.HandleJoin(alice, "ABC123", "Alice")
	c.HandleJoin(bob, "ABC123", "Bob")
	c.HandleJoin(cara, "ABC123", "Cara")
	return alice, bob, cara
}

func readyThree(c *Coordinator, alice, bob, cara *session.Session) {
	c.HandleToggleReady(alice, "ABC123")
	c.HandleToggleReady(bob, "ABC123")
	c.HandleToggleReady(cara, "ABC123")
}

func TestHandleJoin_CreatesLobbyWithHost(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	alice := newTestSession("alice")

	c.HandleJoin(alice, "abc123", "Alice")

	lobby, ok := gateway.lobbies["ABC123"]
	if !ok {
		t.Fatal("Expected the lobby to be persisted under its uppercased code")
	}
	if len(lobby.Players) != 1 {
		t.Fatalf("Expected 1 player, got %d", len(lobby.Players))
	}
	if !lobby.Players[0].IsHost {
		t.Error("Expected the creator to be host")
	}
	if lobby.GameState != game.StateWaiting {
		t.Errorf("Expected waiting state, got %s", lobby.GameState)
	}

	if len(bcast.sentTo("alice", network.MsgTypeLobbyJoined)) != 1 {
		t.Error("Expected lobby-joined sent to the creator")
	}
	if alice.GetLobbyID() != "ABC123" {
		t.Errorf("Expected session bound to ABC123, got %q", alice.GetLobbyID())
	}
}

func TestHandleJoin_JoinsExistingLobby(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	joinThree(c)

	lobby := gateway.lobbies["ABC123"]
	if len(lobby.Players) != 3 {
		t.Fatalf("Expected 3 players, got %d", len(lobby.Players))
	}
	if lobby.Players[0].ID != "alice" || !lobby.Players[0].IsHost {
		t.Error("Expected alice to remain host at index 0")
	}
	if lobby.Players[2].ID != "cara" {
		t.Error("Expected join order preserved")
	}

	// Each successful join after the first broadcasts player-joined,
	// excluding the joiner who got lobby-joined instead.
	joined := 0
	for _, b := range bcast.broadcasts {
		if b.MsgID == network.MsgTypePlayerJoined {
			joined++
			if len(b.Exclude) != 1 {
				t.Error("player-joined broadcast should exclude the joiner")
			}
		}
	}
	if joined != 3 {
		t.Errorf("Expected 3 player-joined broadcasts, got %d", joined)
	}
}

func TestHandleJoin_RejectsWhenFull(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	for i := 0; i < game.MaxPlayers; i++ {
		sess := newTestSession(string(rune('a' + i)))
		c.HandleJoin(sess, "FULL01", "Player")
	}
	bcast.reset()

	late := newTestSession("late")
	c.HandleJoin(late, "FULL01", "Late")

	if len(gateway.lobbies["FULL01"].Players) != game.MaxPlayers {
		t.Error("A full lobby must not grow")
	}
	if len(bcast.sentTo("late", network.MsgTypeError)) != 1 {
		t.Error("Expected an error event to the rejected joiner")
	}
	if len(bcast.broadcasts) != 0 {
		t.Error("A rejected join must not broadcast")
	}
}

func TestHandleJoin_RejectsWhilePlaying(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	alice, bob, cara := joinThree(c)
	readyThree(c, alice, bob, cara)
	c.HandleStart(alice, "ABC123")
	bcast.reset()

	late := newTestSession("late")
	c.HandleJoin(late, "ABC123", "Late")

	if len(gateway.lobbies["ABC123"].Players) != 3 {
		t.Error("No one may join while a round is playing")
	}
	if len(bcast.sentTo("late", network.MsgTypeError)) != 1 {
		t.Error("Expected an error event to the late joiner")
	}
}

func TestHandleToggleReady_UnknownLobby(t *testing.T) {
	c, _, bcast := newTestCoordinator()
	alice := newTestSession("alice")

	c.HandleToggleReady(alice, "NOSUCH")

	if len(bcast.sentTo("alice", network.MsgTypeError)) != 1 {
		t.Error("Expected an error event for an unknown lobby")
	}
	if len(bcast.broadcasts) != 0 {
		t.Error("A failed event must not broadcast")
	}
}

func TestHandleToggleReady_NonMember(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	joinThree(c)
	bcast.reset()

	stranger := newTestSession("stranger")
	c.HandleToggleReady(stranger, "ABC123")

	if len(bcast.sentTo("stranger", network.MsgTypeError)) != 1 {
		t.Error("Expected an error event to the non-member")
	}
	for _, p := range gateway.lobbies["ABC123"].Players {
		if p.IsReady {
			t.Error("A rejected toggle must not change any ready flag")
		}
	}
}

func TestHandleToggleReady_BroadcastsUpdate(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	_, bob, _ := joinThree(c)
	bcast.reset()

	c.HandleToggleReady(bob, "abc123")

	lobby := gateway.lobbies["ABC123"]
	member, _ := lobby.Member("bob")
	if !member.IsReady {
		t.Error("Expected bob's ready flag to flip")
	}

	if len(bcast.broadcasts) != 1 || bcast.broadcasts[0].MsgID != network.MsgTypeLobbyUpdated {
		t.Fatal("Expected a single lobby-updated broadcast")
	}
	if len(bcast.broadcasts[0].Exclude) != 0 {
		t.Error("lobby-updated goes to every member including the sender")
	}
}

func TestHandleStart_RequiresHost(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	alice, bob, cara := joinThree(c)
	readyThree(c, alice, bob, cara)
	bcast.reset()

	c.HandleStart(bob, "ABC123")

	if gateway.lobbies["ABC123"].GameState != game.StateWaiting {
		t.Error("A non-host start must not change state")
	}
	if len(bcast.sentTo("bob", network.MsgTypeError)) != 1 {
		t.Error("Expected an unauthorized error to the sender only")
	}
}

func TestHandleStart_RequiresCanStart(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	alice, bob, _ := joinThree(c)
	c.HandleToggleReady(alice, "ABC123")
	c.HandleToggleReady(bob, "ABC123")
	bcast.reset()

	c.HandleStart(alice, "ABC123")

	if gateway.lobbies["ABC123"].GameState != game.StateWaiting {
		t.Error("Start must be refused while a player is unready")
	}
	if len(bcast.sentTo("alice", network.MsgTypeError)) != 1 {
		t.Error("Expected a precondition error to the host")
	}
}

func TestHandleStart_SendsRedactedViewPerRecipient(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	alice, bob, cara := joinThree(c)
	readyThree(c, alice, bob, cara)
	bcast.reset()

	c.HandleStart(alice, "ABC123")

	lobby := gateway.lobbies["ABC123"]
	if lobby.GameState != game.StatePlaying {
		t.Fatalf("Expected playing state persisted, got %s", lobby.GameState)
	}

	if len(bcast.broadcasts) != 0 {
		t.Error("game-started must never use a shared broadcast")
	}

	for _, id := range []string{"alice", "bob", "cara"} {
		msgs := bcast.sentTo(id, network.MsgTypeGameStarted)
		if len(msgs) != 1 {
			t.Fatalf("Expected exactly one game-started for %s, got %d", id, len(msgs))
		}

		var view game.Lobby
		if err := json.Unmarshal(msgs[0].Data, &view); err != nil {
			t.Fatalf("Failed to unmarshal view for %s: %v", id, err)
		}
		if len(view.Players) != 3 {
			t.Fatalf("View must carry the full roster, got %d", len(view.Players))
		}
		for _, p := range view.Players {
			if p.ID == id {
				truth, _ := lobby.Member(id)
				if (p.SecretRole == nil) != (truth.SecretRole == nil) {
					t.Errorf("Recipient %s lost their own role", id)
				}
				continue
			}
			if p.IsImpostor != nil || p.SecretLocation != nil || p.SecretRole != nil {
				t.Errorf("View for %s leaks secrets of %s", id, p.ID)
			}
		}
	}
}

func TestHandleStart_FailedSaveIsNotBroadcast(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	alice, bob, cara := joinThree(c)
	readyThree(c, alice, bob, cara)
	gateway.failSave = true
	bcast.reset()

	c.HandleStart(alice, "ABC123")

	if len(bcast.sentTo("alice", network.MsgTypeError)) != 1 {
		t.Error("Expected an internal error event to the sender")
	}
	for _, id := range []string{"alice", "bob", "cara"} {
		if len(bcast.sentTo(id, network.MsgTypeGameStarted)) != 0 {
			t.Error("A failed write must not be announced")
		}
	}
}

func TestHandleEndRound_ScoresAndBroadcasts(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	alice, bob, cara := joinThree(c)
	readyThree(c, alice, bob, cara)
	c.HandleStart(alice, "ABC123")
	bcast.reset()

	c.HandleEndRound(alice, "ABC123", false)

	lobby := gateway.lobbies["ABC123"]
	if lobby.CrewWins != 1 || lobby.ImpostorWins != 0 {
		t.Errorf("Expected crew 1 / impostor 0, got %d / %d", lobby.CrewWins, lobby.ImpostorWins)
	}
	if lobby.GameState != game.StateWaiting {
		t.Errorf("Expected waiting after one round, got %s", lobby.GameState)
	}
	if len(bcast.broadcasts) != 1 || bcast.broadcasts[0].MsgID != network.MsgTypeRoundEnded {
		t.Fatal("Expected one round-ended broadcast")
	}
	if len(gateway.records) != 0 {
		t.Error("No game record until the match is decided")
	}
}

func TestHandleEndRound_RequiresHostAndActiveRound(t *testing.T) {
	c, _, bcast := newTestCoordinator()
	alice, bob, cara := joinThree(c)

	// No round running yet.
	c.HandleEndRound(alice, "ABC123", true)
	if len(bcast.sentTo("alice", network.MsgTypeError)) != 1 {
		t.Error("Expected an error while no round is active")
	}

	readyThree(c, alice, bob, cara)
	c.HandleStart(alice, "ABC123")
	bcast.reset()

	c.HandleEndRound(cara, "ABC123", true)
	if len(bcast.sentTo("cara", network.MsgTypeError)) != 1 {
		t.Error("Expected an unauthorized error to the non-host")
	}
}

func TestHandleEndRound_MajorityEndsMatchAndWritesRecord(t *testing.T) {
	c, gateway, _ := newTestCoordinator()
	alice, bob, cara := joinThree(c)

	for round := 0; round < 2; round++ {
		readyThree(c, alice, bob, cara)
		c.HandleStart(alice, "ABC123")
		c.HandleEndRound(alice, "ABC123", true)
	}

	lobby := gateway.lobbies["ABC123"]
	if lobby.GameState != game.StateEnded {
		t.Fatalf("Expected ended after two impostor wins, got %s", lobby.GameState)
	}
	if len(gateway.records) != 1 {
		t.Fatalf("Expected one game record, got %d", len(gateway.records))
	}
	record := gateway.records[0]
	if record.Winner != "impostor" || record.ImpostorWins != 2 {
		t.Errorf("Unexpected record: %+v", record)
	}
	if len(record.PlayerNames) != 3 {
		t.Errorf("Expected 3 player names in the record, got %d", len(record.PlayerNames))
	}
}

func TestHandleDisconnect_RemovesFromEveryLobby(t *testing.T) {
	c, gateway, bcast := newTestCoordinator()
	alice, bob, _ := joinThree(c)

	// Bob also sits alone in a second lobby.
	c.HandleJoin(bob, "SOLO99", "Bob")
	_ = alice
	bcast.reset()

	c.HandleDisconnect(bob)

	lobby := gateway.lobbies["ABC123"]
	if _, ok := lobby.Member("bob"); ok {
		t.Error("Expected bob removed from ABC123")
	}
	if len(lobby.Players) != 2 {
		t.Errorf("Expected 2 players left, got %d", len(lobby.Players))
	}

	if _, ok := gateway.lobbies["SOLO99"]; ok {
		t.Error("Expected the emptied lobby to be deleted")
	}

	left := 0
	for _, b := range bcast.broadcasts {
		if b.MsgID == network.MsgTypePlayerLeft {
			left++
			if b.LobbyID != "ABC123" {
				t.Errorf("player-left broadcast for wrong lobby %s", b.LobbyID)
			}
		}
	}
	if left != 1 {
		t.Errorf("Expected one player-left broadcast, got %d", left)
	}
}

func TestHandleDisconnect_HostHandoff(t *testing.T) {
	c, gateway, _ := newTestCoordinator()
	alice, _, _ := joinThree(c)

	c.HandleDisconnect(alice)

	lobby := gateway.lobbies["ABC123"]
	host, ok := lobby.Host()
	if !ok {
		t.Fatal("Expected a host after the old host disconnected")
	}
	if host.ID != "bob" {
		t.Errorf("Expected bob (earliest joined) as new host, got %s", host.ID)
	}
}

func TestActiveLobbies_FiltersEmpty(t *testing.T) {
	c, gateway, _ := newTestCoordinator()
	joinThree(c)
	gateway.lobbies["GHOST1"] = game.Lobby{ID: "GHOST1"}

	active, err := c.ActiveLobbies()
	if err != nil {
		t.Fatalf("ActiveLobbies failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != "ABC123" {
		t.Errorf("Expected only ABC123 to be active, got %v", active)
	}
}

func TestSweepStaleLobbies(t *testing.T) {
	c, gateway, _ := newTestCoordinator()
	joinThree(c)

	stale := game.Lobby{
		ID:        "OLD001",
		Players:   []game.Player{{ID: "ghost", Name: "Ghost", IsHost: true}},
		GameState: game.StateWaiting,
		UpdatedAt: time.Now().Add(-48 * time.Hour),
	}
	gateway.lobbies["OLD001"] = stale
	gateway.lobbies["EMPTY1"] = game.Lobby{ID: "EMPTY1", UpdatedAt: time.Now()}

	c.SweepStaleLobbies(24 * time.Hour)

	if _, ok := gateway.lobbies["OLD001"]; ok {
		t.Error("Expected the idle lobby to be swept")
	}
	if _, ok := gateway.lobbies["EMPTY1"]; ok {
		t.Error("Expected the empty lobby to be swept")
	}
	if _, ok := gateway.lobbies["ABC123"]; !ok {
		t.Error("The live lobby must survive the sweep")
	}
}

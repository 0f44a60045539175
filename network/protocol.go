package network

// Inbound message ids (participant -> server).
const (
	MsgTypeHeartbeat   = 1
	MsgTypeJoinLobby   = 101
	MsgTypeToggleReady = 102
	MsgTypeStartGame   = 103
	MsgTypeEndRound    = 104
)

// Outbound message ids (server -> participant).
const (
	MsgTypeLobbyJoined  = 201
	MsgTypePlayerJoined = 202
	MsgTypePlayerLeft   = 203
	MsgTypeLobbyUpdated = 204
	MsgTypeGameStarted  = 205
	MsgTypeRoundEnded   = 206
	MsgTypeError        = 300
)

// JoinLobbyRequest creates the lobby when the code is unknown; the
// creator becomes host.
type JoinLobbyRequest struct {
	LobbyID    string `json:"lobby_id"`
	PlayerName string `json:"player_name"`
}

type ToggleReadyRequest struct {
	LobbyID string `json:"lobby_id"`
}

type StartGameRequest struct {
	LobbyID string `json:"lobby_id"`
}

type EndRoundRequest struct {
	LobbyID     string `json:"lobby_id"`
	ImpostorWon bool   `json:"impostor_won"`
}

// ErrorMessage goes back to the originating sender only, never broadcast.
type ErrorMessage struct {
	Message string `json:"message"`
}

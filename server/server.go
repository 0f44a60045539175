package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/spyfall/coordinator"
	"github.com/wfunc/spyfall/logger"
	"github.com/wfunc/spyfall/monitor"
	"github.com/wfunc/spyfall/network"
	"github.com/wfunc/spyfall/services"
	"github.com/wfunc/spyfall/session"
	spyfall_rpc "github.com/wfunc/spyfall/rpc"
)

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	coordinator    *coordinator.Coordinator
	monitor        *monitor.Monitor
	rpcServer      *spyfall_rpc.Server
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr string, coord *coordinator.Coordinator, sessionManager *session.Manager, mon *monitor.Monitor, stats *services.StatsService) *GameServer {
	s := &GameServer{
		addr:           addr,
		sessionManager: sessionManager,
		coordinator:    coord,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // allow any origin, auth is out of scope
			},
		},
	}

	rpcServer, err := spyfall_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	lobbyService := spyfall_rpc.NewLobbyService(coord, stats)
	rpc.Register(lobbyService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/api/lobbies", s.handleListLobbies)
	mux.HandleFunc("/ws", s.handleWebSocket)

	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "Spyfall Backend",
	})
}

// handleListLobbies is the diagnostics listing of non-empty lobbies.
func (s *GameServer) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies, err := s.coordinator.ActiveLobbies()
	if err != nil {
		logger.Log.Errorf("Failed to list lobbies: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to fetch lobbies"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lobbies)
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncConnectedPlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.coordinator.HandleDisconnect(sess)
		s.monitor.DecConnectedPlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	s.monitor.IncEventsReceived()
	defer func() {
		s.monitor.ObserveEventLatency(time.Since(start))
	}()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()

	case network.MsgTypeJoinLobby:
		var req network.JoinLobbyRequest
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendBadRequest(sess)
			return
		}
		s.coordinator.HandleJoin(sess, req.LobbyID, req.PlayerName)

	case network.MsgTypeToggleReady:
		var req network.ToggleReadyRequest
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendBadRequest(sess)
			return
		}
		s.coordinator.HandleToggleReady(sess, req.LobbyID)

	case network.MsgTypeStartGame:
		var req network.StartGameRequest
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendBadRequest(sess)
			return
		}
		s.coordinator.HandleStart(sess, req.LobbyID)

	case network.MsgTypeEndRound:
		var req network.EndRoundRequest
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendBadRequest(sess)
			return
		}
		s.coordinator.HandleEndRound(sess, req.LobbyID, req.ImpostorWon)

	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) sendBadRequest(sess *session.Session) {
	msg := network.ErrorMessage{Message: "invalid request payload"}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	sess.Send(network.MsgTypeError, data)
}

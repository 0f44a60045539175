package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/spyfall/coordinator"
	"github.com/wfunc/spyfall/game"
	"github.com/wfunc/spyfall/logger"
	"github.com/wfunc/spyfall/persistence"
	"github.com/wfunc/spyfall/services"
)

// Server manages the RPC listener for the diagnostics surface.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// LobbyService exposes the read-only lobby diagnostics over net/rpc.
// Methods follow the net/rpc signature rules: exported method, exported
// argument types, pointer reply, error return.
type LobbyService struct {
	coordinator *coordinator.Coordinator
	stats       *services.StatsService
}

func NewLobbyService(c *coordinator.Coordinator, stats *services.StatsService) *LobbyService {
	return &LobbyService{coordinator: c, stats: stats}
}

type ListLobbiesArgs struct{}

type ListLobbiesReply struct {
	Lobbies []game.Lobby
}

// ListLobbies returns every non-empty lobby.
func (ls *LobbyService) ListLobbies(args *ListLobbiesArgs, reply *ListLobbiesReply) error {
	lobbies, err := ls.coordinator.ActiveLobbies()
	if err != nil {
		return err
	}
	reply.Lobbies = lobbies
	return nil
}

type LobbyHistoryArgs struct {
	Code string
}

type LobbyHistoryReply struct {
	Records []persistence.GameRecord
}

// LobbyHistory returns the finished matches recorded for one lobby code.
func (ls *LobbyService) LobbyHistory(args *LobbyHistoryArgs, reply *LobbyHistoryReply) error {
	records, err := ls.stats.LobbyHistory(coordinator.NormalizeCode(args.Code))
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

type WinTotalsArgs struct{}

type WinTotalsReply struct {
	Totals map[string]int64
}

// WinTotals returns the all-time match tally per winning side.
func (ls *LobbyService) WinTotals(args *WinTotalsArgs, reply *WinTotalsReply) error {
	totals, err := ls.stats.WinTotals()
	if err != nil {
		return err
	}
	reply.Totals = totals
	return nil
}

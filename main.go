package main

import (
	"math/rand"
	"time"

	"github.com/wfunc/spyfall/broadcast"
	"github.com/wfunc/spyfall/config"
	"github.com/wfunc/spyfall/coordinator"
	"github.com/wfunc/spyfall/game"
	"github.com/wfunc/spyfall/logger"
	"github.com/wfunc/spyfall/monitor"
	"github.com/wfunc/spyfall/persistence"
	"github.com/wfunc/spyfall/server"
	"github.com/wfunc/spyfall/services"
	"github.com/wfunc/spyfall/session"
	"github.com/wfunc/spyfall/timer"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	db, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Configured settings are authoritative; keep the persisted
	// singleton in sync for anything reading the store directly.
	settings := game.Settings{
		MaxRounds:  cfg.Game.MaxRounds,
		RoundTime:  cfg.Game.RoundTime,
		VotingTime: cfg.Game.VotingTime,
	}
	if err := db.SaveSettings(settings); err != nil {
		logger.Log.Warnf("Failed to persist game settings: %v", err)
	}

	// Wire the coordinator
	sessionManager := session.NewManager()
	broadcaster := broadcast.NewLobbyBroadcaster(sessionManager)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	coord := coordinator.New(db, broadcaster, settings, rng)

	// Monitoring
	mon := monitor.NewMonitor("spyfall")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Housekeeping: sweep stale lobbies and refresh the lobby gauge.
	ttl := time.Duration(cfg.Game.LobbyTTLHours) * time.Hour
	timers := timer.NewManager()
	timers.AddTask(time.Minute, 15*time.Minute, func() {
		coord.SweepStaleLobbies(ttl)
		if active, err := coord.ActiveLobbies(); err == nil {
			mon.SetActiveLobbies(len(active))
		}
	})
	defer timers.Stop()

	// Initialize Game Server
	stats := services.NewStatsService(db.DB())
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, coord, sessionManager, mon, stats)

	// Start Server
	logger.Log.Infof("Starting spyfall server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}

// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/wfunc/spyfall/game"
)

// PostgreSQL is the plain database/sql Gateway implementation, kept as a
// lighter alternative to the GORM one for deployments that do not need
// the stats service.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS lobbies (
            id SERIAL PRIMARY KEY,
            code VARCHAR(32) UNIQUE NOT NULL,
            state VARCHAR(50) NOT NULL,
            data JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS settings (
            id SERIAL PRIMARY KEY,
            data JSONB NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            lobby_code VARCHAR(32) NOT NULL,
            winner VARCHAR(16) NOT NULL,
            impostor_wins INT NOT NULL,
            crew_wins INT NOT NULL,
            rounds INT NOT NULL,
            players JSONB,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_lobbies_code ON lobbies(code);
        CREATE INDEX IF NOT EXISTS idx_game_records_lobby_code ON game_records(lobby_code);
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
    `)
	return err
}

func (p *PostgreSQL) LoadLobby(code string) (game.Lobby, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM lobbies WHERE code = $1`, code).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return game.Lobby{}, ErrLobbyNotFound
		}
		return game.Lobby{}, err
	}

	var lobby game.Lobby
	if err := json.Unmarshal(data, &lobby); err != nil {
		return game.Lobby{}, err
	}
	return lobby, nil
}

func (p *PostgreSQL) SaveLobby(lobby game.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO lobbies (code, state, data)
        VALUES ($1, $2, $3)
        ON CONFLICT (code)
        DO UPDATE SET state = $2, data = $3, updated_at = CURRENT_TIMESTAMP
    `
	_, err = p.db.ExecContext(ctx, query, lobby.ID, string(lobby.GameState), data)
	return err
}

func (p *PostgreSQL) DeleteLobby(code string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `DELETE FROM lobbies WHERE code = $1`, code)
	return err
}

func (p *PostgreSQL) ListLobbies() ([]game.Lobby, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `SELECT data FROM lobbies`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lobbies []game.Lobby
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var lobby game.Lobby
		if err := json.Unmarshal(data, &lobby); err != nil {
			return nil, err
		}
		lobbies = append(lobbies, lobby)
	}
	return lobbies, rows.Err()
}

func (p *PostgreSQL) LoadSettings() (game.Settings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM settings LIMIT 1`).Scan(&data)
	if err == sql.ErrNoRows {
		defaults := game.Settings{MaxRounds: 3, RoundTime: 480, VotingTime: 60}
		if err := p.SaveSettings(defaults); err != nil {
			return game.Settings{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return game.Settings{}, err
	}

	var settings game.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return game.Settings{}, err
	}
	return settings, nil
}

func (p *PostgreSQL) SaveSettings(settings game.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id int
	err = p.db.QueryRowContext(ctx, `SELECT id FROM settings LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		_, err = p.db.ExecContext(ctx, `INSERT INTO settings (data) VALUES ($1)`, data)
		return err
	}
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, `UPDATE settings SET data = $1 WHERE id = $2`, data, id)
	return err
}

func (p *PostgreSQL) SaveGameRecord(record GameRecord) error {
	players, err := json.Marshal(record.PlayerNames)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_records (lobby_code, winner, impostor_wins, crew_wins, rounds, players)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err = p.db.ExecContext(ctx, query,
		record.LobbyCode, record.Winner, record.ImpostorWins, record.CrewWins, record.Rounds, players)
	return err
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

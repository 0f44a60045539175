// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/spyfall/game"
)

// GormPostgreSQL is the GORM-backed Gateway implementation. Lobbies are
// stored as one jsonb blob per code; the blob is the source of truth,
// the State column exists only for querying.
type GormPostgreSQL struct {
	db *gorm.DB
}

type LobbyModel struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"uniqueIndex;not null"`
	State     string `gorm:"not null"`
	Data      []byte `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SettingsModel struct {
	ID   uint   `gorm:"primaryKey"`
	Data []byte `gorm:"type:jsonb;not null"`
}

type GameRecordModel struct {
	ID           uint   `gorm:"primaryKey"`
	LobbyCode    string `gorm:"index;not null"`
	Winner       string `gorm:"not null"`
	ImpostorWins int
	CrewWins     int
	Rounds       int
	Players      []byte `gorm:"type:jsonb"`
	CreatedAt    time.Time
}

// NewGormPostgreSQL opens the connection, configures the pool and
// migrates the schema.
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&LobbyModel{}, &SettingsModel{}, &GameRecordModel{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) LoadLobby(code string) (game.Lobby, error) {
	var row LobbyModel
	if err := p.db.Where("code = ?", code).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return game.Lobby{}, ErrLobbyNotFound
		}
		return game.Lobby{}, err
	}

	var lobby game.Lobby
	if err := json.Unmarshal(row.Data, &lobby); err != nil {
		return game.Lobby{}, err
	}
	return lobby, nil
}

func (p *GormPostgreSQL) SaveLobby(lobby game.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return err
	}

	var row LobbyModel
	result := p.db.Where("code = ?", lobby.ID).First(&row)

	if result.Error == gorm.ErrRecordNotFound {
		row = LobbyModel{
			Code:  lobby.ID,
			State: string(lobby.GameState),
			Data:  data,
		}
		return p.db.Create(&row).Error
	} else if result.Error != nil {
		return result.Error
	}

	row.State = string(lobby.GameState)
	row.Data = data
	row.UpdatedAt = time.Now()
	return p.db.Save(&row).Error
}

func (p *GormPostgreSQL) DeleteLobby(code string) error {
	return p.db.Where("code = ?", code).Delete(&LobbyModel{}).Error
}

func (p *GormPostgreSQL) ListLobbies() ([]game.Lobby, error) {
	var rows []LobbyModel
	if err := p.db.Find(&rows).Error; err != nil {
		return nil, err
	}

	lobbies := make([]game.Lobby, 0, len(rows))
	for _, row := range rows {
		var lobby game.Lobby
		if err := json.Unmarshal(row.Data, &lobby); err != nil {
			return nil, err
		}
		lobbies = append(lobbies, lobby)
	}
	return lobbies, nil
}

// LoadSettings returns the singleton settings row, seeding it with the
// defaults on first use.
func (p *GormPostgreSQL) LoadSettings() (game.Settings, error) {
	var row SettingsModel
	err := p.db.First(&row).Error
	if err == gorm.ErrRecordNotFound {
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
	if err := json.Unmarshal(row.Data, &settings); err != nil {
		return game.Settings{}, err
	}
	return settings, nil
}

func (p *GormPostgreSQL) SaveSettings(settings game.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	var row SettingsModel
	result := p.db.First(&row)
	if result.Error == gorm.ErrRecordNotFound {
		return p.db.Create(&SettingsModel{Data: data}).Error
	} else if result.Error != nil {
		return result.Error
	}

	row.Data = data
	return p.db.Save(&row).Error
}

func (p *GormPostgreSQL) SaveGameRecord(record GameRecord) error {
	players, err := json.Marshal(record.PlayerNames)
	if err != nil {
		return err
	}

	row := GameRecordModel{
		LobbyCode:    record.LobbyCode,
		Winner:       record.Winner,
		ImpostorWins: record.ImpostorWins,
		CrewWins:     record.CrewWins,
		Rounds:       record.Rounds,
		Players:      players,
	}
	return p.db.Create(&row).Error
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the underlying handle for the stats service's raw queries.
func (p *GormPostgreSQL) DB() *gorm.DB {
	return p.db
}

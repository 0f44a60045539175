// services/stats_service.go
package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/wfunc/spyfall/persistence"
)

// StatsService answers history queries over the game_records table. It
// is read-only and only available with the GORM-backed gateway.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// LobbyHistory returns every finished match recorded for a lobby code,
// newest first.
func (s *StatsService) LobbyHistory(code string) ([]persistence.GameRecord, error) {
	var rows []persistence.GameRecordModel
	err := s.db.Where("lobby_code = ?", code).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]persistence.GameRecord, 0, len(rows))
	for _, row := range rows {
		var names []string
		if len(row.Players) > 0 {
			if err := json.Unmarshal(row.Players, &names); err != nil {
				return nil, err
			}
		}
		records = append(records, persistence.GameRecord{
			LobbyCode:    row.LobbyCode,
			Winner:       row.Winner,
			ImpostorWins: row.ImpostorWins,
			CrewWins:     row.CrewWins,
			Rounds:       row.Rounds,
			PlayerNames:  names,
			FinishedAt:   row.CreatedAt,
		})
	}
	return records, nil
}

// WinTotals tallies finished matches per winning side across all lobbies.
func (s *StatsService) WinTotals() (map[string]int64, error) {
	type row struct {
		Winner string
		Total  int64
	}

	var rows []row
	err := s.db.Raw(`
        SELECT winner, COUNT(*) as total
        FROM game_record_models
        GROUP BY winner`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(rows))
	for _, r := range rows {
		totals[r.Winner] = r.Total
	}
	return totals, nil
}

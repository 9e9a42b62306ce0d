package postgres

import (
	"database/sql"
	"time"

	"github.com/bweisel/win-notifier/internal/domain/teamstate"
)

type teamStateTableModel struct {
	TeamID            string       `db:"team_id"`
	InGame            bool         `db:"in_game"`
	InGameLastUpdated sql.NullTime `db:"in_game_last_updated"`
	LastVictory       sql.NullTime `db:"last_victory"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
}

type teamStateInsertModel struct {
	TeamID            string     `db:"team_id"`
	InGame            bool       `db:"in_game"`
	InGameLastUpdated *time.Time `db:"in_game_last_updated"`
	LastVictory       *time.Time `db:"last_victory"`
}

func (m teamStateTableModel) toDomain() teamstate.TeamState {
	return teamstate.TeamState{
		TeamID:            m.TeamID,
		InGame:            m.InGame,
		InGameLastUpdated: nullTimeToTime(m.InGameLastUpdated),
		LastVictory:       nullTimeToTime(m.LastVictory),
	}
}

func nullTimeToTime(value sql.NullTime) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return value.Time.UTC()
}

func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	utc := value.UTC()
	return &utc
}

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/bweisel/win-notifier/internal/domain/teamstate"
	qb "github.com/bweisel/win-notifier/internal/platform/querybuilder"
)

type TeamStateRepository struct {
	db *sqlx.DB
}

func NewTeamStateRepository(db *sqlx.DB) *TeamStateRepository {
	return &TeamStateRepository{db: db}
}

func (r *TeamStateRepository) Get(ctx context.Context, teamID string) (teamstate.TeamState, bool, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return teamstate.TeamState{}, false, fmt.Errorf("team id is required")
	}

	query, args, err := qb.Select("*").From("team_states").
		Where(qb.Eq("team_id", teamID)).
		ToSQL()
	if err != nil {
		return teamstate.TeamState{}, false, fmt.Errorf("build get team state query: %w", err)
	}

	var row teamStateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return teamstate.TeamState{}, false, nil
		}
		return teamstate.TeamState{}, false, fmt.Errorf("get team state team_id=%s: %w", teamID, err)
	}

	return row.toDomain(), true, nil
}

// Save upserts the record. Timestamp columns only ever move forward so a
// delayed write can never regress a newer observation.
func (r *TeamStateRepository) Save(ctx context.Context, state teamstate.TeamState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("validate team state: %w", err)
	}

	model := teamStateInsertModel{
		TeamID:            state.TeamID,
		InGame:            state.InGame,
		InGameLastUpdated: optionalTime(state.InGameLastUpdated),
		LastVictory:       optionalTime(state.LastVictory),
	}

	query, args, err := qb.InsertModel("team_states", model, `ON CONFLICT (team_id)
DO UPDATE SET
    in_game = EXCLUDED.in_game,
    in_game_last_updated = GREATEST(
        COALESCE(team_states.in_game_last_updated, EXCLUDED.in_game_last_updated),
        COALESCE(EXCLUDED.in_game_last_updated, team_states.in_game_last_updated)
    ),
    last_victory = GREATEST(
        COALESCE(team_states.last_victory, EXCLUDED.last_victory),
        COALESCE(EXCLUDED.last_victory, team_states.last_victory)
    ),
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert team state query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team state team_id=%s: %w", state.TeamID, err)
	}

	return nil
}

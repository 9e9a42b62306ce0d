package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bweisel/win-notifier/internal/domain/scoreboard"
	"github.com/bweisel/win-notifier/internal/domain/teamstate"
	"github.com/bweisel/win-notifier/internal/platform/logging"
)

// GameStatus is the externally visible outcome for one team for one check
// cycle.
type GameStatus string

const (
	StatusWin        GameStatus = "WIN"
	StatusInProgress GameStatus = "IN_PROGRESS"
	// StatusCloseGame is part of the status vocabulary for late-game margin
	// alerts but no transition produces it yet.
	StatusCloseGame GameStatus = "CLOSE_GAME"
	StatusNoOp      GameStatus = "NO_OP"
)

// CheckResult aggregates one cycle's statuses, one slot per tracked team.
type CheckResult struct {
	Browns  GameStatus `json:"browns"`
	Cavs    GameStatus `json:"cavs"`
	Indians GameStatus `json:"indians"`
}

// TrackedTeam binds a persisted team id to the name the feed uses and the
// league whose ticker carries its games.
type TrackedTeam struct {
	ID     string
	Name   string
	League string
}

// DefaultTeams returns the three tracked Cleveland franchises.
func DefaultTeams() []TrackedTeam {
	return []TrackedTeam{
		{ID: "browns", Name: "Cleveland", League: "nfl"},
		{ID: "cavs", Name: "Cleveland", League: "nba"},
		{ID: "indians", Name: "Cleveland", League: "mlb"},
	}
}

// FeedProvider fetches a league's raw scoreboard ticker.
type FeedProvider interface {
	FetchScores(ctx context.Context, league string) (string, error)
}

type CheckServiceConfig struct {
	Teams        []TrackedTeam
	NotifyWindow time.Duration
	MaxWorkers   int
}

// CheckService runs the per-team pipeline: extract the team's line from the
// league ticker, classify the game's lifecycle stage, resolve scores on a
// finished game, and debounce win notifications against persisted state.
type CheckService struct {
	feeds  FeedProvider
	states teamstate.Repository
	logger *logging.Logger

	teams      []TrackedTeam
	window     time.Duration
	maxWorkers int
	now        func() time.Time
}

func NewCheckService(feeds FeedProvider, states teamstate.Repository, logger *logging.Logger, cfg CheckServiceConfig) *CheckService {
	teams := cfg.Teams
	if len(teams) == 0 {
		teams = DefaultTeams()
	}
	window := cfg.NotifyWindow
	if window <= 0 {
		window = 10 * time.Minute
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = len(teams)
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &CheckService{
		feeds:      feeds,
		states:     states,
		logger:     logger,
		teams:      teams,
		window:     window,
		maxWorkers: maxWorkers,
		now:        time.Now,
	}
}

// CheckAll runs every tracked team's pipeline on a worker pool. A fault in
// one pipeline never aborts the others; the failed slot reports NO_OP.
func (s *CheckService) CheckAll(ctx context.Context) (CheckResult, error) {
	ctx, span := startUsecaseSpan(ctx, "CheckService.CheckAll")
	defer span.End()

	if s.feeds == nil || s.states == nil {
		return CheckResult{}, fmt.Errorf("%w: check service is missing collaborators", ErrDependencyUnavailable)
	}

	pool, err := ants.NewPool(s.maxWorkers)
	if err != nil {
		return CheckResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	statuses := make([]GameStatus, len(s.teams))
	var workers sync.WaitGroup
	for i, team := range s.teams {
		i, team := i, team
		workers.Add(1)
		submitErr := pool.Submit(func() {
			defer workers.Done()
			statuses[i] = s.checkTeamSafely(ctx, team)
		})
		if submitErr != nil {
			workers.Done()
			statuses[i] = StatusNoOp
			s.logger.ErrorContext(ctx, "submit team check", "error", submitErr, "team_id", team.ID)
		}
	}
	workers.Wait()

	result := CheckResult{Browns: StatusNoOp, Cavs: StatusNoOp, Indians: StatusNoOp}
	for i, team := range s.teams {
		switch team.ID {
		case "browns":
			result.Browns = statuses[i]
		case "cavs":
			result.Cavs = statuses[i]
		case "indians":
			result.Indians = statuses[i]
		default:
			s.logger.WarnContext(ctx, "tracked team has no result slot", "team_id", team.ID)
		}
	}

	span.SetAttributes(
		attribute.String("check.browns", string(result.Browns)),
		attribute.String("check.cavs", string(result.Cavs)),
		attribute.String("check.indians", string(result.Indians)),
	)
	s.logger.InfoContext(ctx, "check cycle complete",
		"browns", string(result.Browns),
		"cavs", string(result.Cavs),
		"indians", string(result.Indians),
	)
	return result, nil
}

// TeamState returns the persisted record for one tracked team.
func (s *CheckService) TeamState(ctx context.Context, teamID string) (teamstate.TeamState, error) {
	ctx, span := startUsecaseSpan(ctx, "CheckService.TeamState")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if !s.isTracked(teamID) {
		return teamstate.TeamState{}, fmt.Errorf("%w: unknown team %q", ErrInvalidInput, teamID)
	}

	state, found, err := s.states.Get(ctx, teamID)
	if err != nil {
		return teamstate.TeamState{}, fmt.Errorf("%w: load team state: %v", ErrDependencyUnavailable, err)
	}
	if !found {
		return teamstate.TeamState{}, fmt.Errorf("%w: team %q has no recorded state", ErrNotFound, teamID)
	}
	return state, nil
}

func (s *CheckService) isTracked(teamID string) bool {
	for _, team := range s.teams {
		if team.ID == teamID {
			return true
		}
	}
	return false
}

func (s *CheckService) checkTeamSafely(ctx context.Context, team TrackedTeam) (status GameStatus) {
	defer func() {
		if r := recover(); r != nil {
			status = StatusNoOp
			s.logger.ErrorContext(ctx, "team check panicked", "team_id", team.ID, "panic", fmt.Sprint(r))
		}
	}()
	return s.checkTeam(ctx, team)
}

// checkTeam is the win-debounce state machine. Every fault is team-local and
// downgrades to NO_OP; ambiguous data is never reported as a win.
func (s *CheckService) checkTeam(ctx context.Context, team TrackedTeam) GameStatus {
	raw, err := s.feeds.FetchScores(ctx, team.League)
	if err != nil {
		s.logger.WarnContext(ctx, "fetch scoreboard", "error", err, "team_id", team.ID, "league", team.League)
		return StatusNoOp
	}

	line, ok := scoreboard.ExtractTeamLine(raw, team.Name)
	if !ok {
		return StatusNoOp
	}
	s.logger.DebugContext(ctx, "score line matched", "team_id", team.ID, "league", team.League, "line", line)

	now := s.now()
	state, found, err := s.states.Get(ctx, team.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "load team state", "error", err, "team_id", team.ID)
		found = false
	}
	if !found {
		state = teamstate.New(team.ID)
	}

	// Re-notify an already recorded win for the length of the window, then
	// go quiet. No mutation either way.
	if state.WonWithin(s.window, now) {
		return StatusWin
	}

	scores, statusSection, err := scoreboard.SplitLine(line)
	if err != nil {
		s.logger.WarnContext(ctx, "malformed score line", "error", err, "team_id", team.ID, "line", line)
		return StatusNoOp
	}

	switch scoreboard.Classify(statusSection) {
	case scoreboard.StageInProgress:
		state.MarkInProgress(now)
		s.saveState(ctx, state)
		return StatusInProgress
	case scoreboard.StageUpcoming:
		return StatusNoOp
	}

	tracked, opponent, err := scoreboard.ResolveScores(scores, team.Name)
	if err != nil {
		s.logger.WarnContext(ctx, "unresolved final score", "error", err, "team_id", team.ID, "line", line)
		return StatusNoOp
	}
	s.logger.DebugContext(ctx, "final score resolved", "team_id", team.ID, "tracked", tracked, "opponent", opponent)

	// A win is only fresh if the game was seen live after the last recorded
	// victory; otherwise a later poll would re-report the same final.
	if tracked > opponent && state.HasFreshInProgress() {
		state.MarkVictory(now)
		s.saveState(ctx, state)
		return StatusWin
	}

	state.MarkFinished()
	s.saveState(ctx, state)
	return StatusNoOp
}

func (s *CheckService) saveState(ctx context.Context, state teamstate.TeamState) {
	if err := s.states.Save(ctx, state); err != nil {
		s.logger.ErrorContext(ctx, "save team state", "error", err, "team_id", state.TeamID)
	}
}

package usecase

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/bweisel/win-notifier/internal/domain/teamstate"
	"github.com/bweisel/win-notifier/internal/platform/logging"
)

type stubFeedProvider struct {
	feeds map[string]string
	errs  map[string]error
}

func (s *stubFeedProvider) FetchScores(_ context.Context, league string) (string, error) {
	if err, ok := s.errs[league]; ok {
		return "", err
	}
	return s.feeds[league], nil
}

type stubStateRepository struct {
	mu      sync.Mutex
	states  map[string]teamstate.TeamState
	getErr  error
	saveErr error
	saves   int
}

func (r *stubStateRepository) Get(_ context.Context, teamID string) (teamstate.TeamState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return teamstate.TeamState{}, false, r.getErr
	}
	state, ok := r.states[teamID]
	return state, ok, nil
}

func (r *stubStateRepository) Save(_ context.Context, state teamstate.TeamState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.states == nil {
		r.states = make(map[string]teamstate.TeamState)
	}
	r.states[state.TeamID] = state
	r.saves++
	return nil
}

func tickerWith(lines ...string) string {
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "&"
		}
		out += "s_left" + string(rune('1'+i)) + "=" + url.QueryEscape(line)
	}
	return out
}

func newTestService(feeds *stubFeedProvider, states *stubStateRepository, now time.Time) *CheckService {
	svc := NewCheckService(feeds, states, logging.NewNop(), CheckServiceConfig{
		Teams: []TrackedTeam{{ID: "cavs", Name: "Cleveland", League: "nba"}},
	})
	svc.now = func() time.Time { return now }
	return svc
}

func TestCheckTeamNoLineLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 21, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Dallas 98 Miami 101 (FINAL)"),
	}}
	states := &stubStateRepository{}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusNoOp {
		t.Fatalf("status = %s, want NO_OP", got)
	}
	if states.saves != 0 {
		t.Fatalf("unexpected state save count %d", states.saves)
	}
}

func TestCheckTeamTransportFaultIsNoOp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 21, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{errs: map[string]error{"nba": errors.New("connect timeout")}}
	states := &stubStateRepository{}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusNoOp {
		t.Fatalf("status = %s, want NO_OP", got)
	}
	if states.saves != 0 {
		t.Fatalf("unexpected state save count %d", states.saves)
	}
}

func TestCheckTeamInProgressUpdatesState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 21, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Milwaukee 105   Cleveland 94 (3:10 IN 4TH)"),
	}}
	states := &stubStateRepository{}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", got)
	}

	state := states.states["cavs"]
	if !state.InGame {
		t.Fatal("InGame should be true")
	}
	if !state.InGameLastUpdated.Equal(now) {
		t.Fatalf("InGameLastUpdated = %v, want %v", state.InGameLastUpdated, now)
	}
	if !state.LastVictory.IsZero() {
		t.Fatalf("LastVictory should be unchanged, got %v", state.LastVictory)
	}
}

func TestCheckTeamOvertimeClockIsInProgress(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 21, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Cleveland 101 Boston 101 (00:00 IN OT)"),
	}}
	states := &stubStateRepository{}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", got)
	}
}

func TestCheckTeamUpcomingIsNoOpWithoutMutation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 15, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Cleveland at Chicago (8:05 PM ET)"),
	}}
	states := &stubStateRepository{}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusNoOp {
		t.Fatalf("status = %s, want NO_OP", got)
	}
	if states.saves != 0 {
		t.Fatalf("unexpected state save count %d", states.saves)
	}
}

func TestCheckTeamFreshWin(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 22, 30, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Cleveland 33 Baltimore 30 (FINAL - OT)"),
	}}
	states := &stubStateRepository{states: map[string]teamstate.TeamState{
		"cavs": {
			TeamID:            "cavs",
			InGame:            true,
			InGameLastUpdated: now.Add(-5 * time.Minute),
			LastVictory:       now.Add(-72 * time.Hour),
		},
	}}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusWin {
		t.Fatalf("status = %s, want WIN", got)
	}

	state := states.states["cavs"]
	if state.InGame {
		t.Fatal("InGame should be false after the final")
	}
	if !state.LastVictory.Equal(now) {
		t.Fatalf("LastVictory = %v, want %v", state.LastVictory, now)
	}
}

func TestCheckTeamLossIsNoOp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 22, 30, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Memphis 91 Cleveland 81 (FINAL)"),
	}}
	states := &stubStateRepository{states: map[string]teamstate.TeamState{
		"cavs": {
			TeamID:            "cavs",
			InGame:            true,
			InGameLastUpdated: now.Add(-5 * time.Minute),
		},
	}}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusNoOp {
		t.Fatalf("status = %s, want NO_OP", got)
	}

	state := states.states["cavs"]
	if state.InGame {
		t.Fatal("InGame should be false after the final")
	}
	if !state.LastVictory.IsZero() {
		t.Fatalf("LastVictory should be unchanged, got %v", state.LastVictory)
	}
}

func TestCheckTeamStaleFinalDoesNotReportWin(t *testing.T) {
	t.Parallel()

	// The final is still on the ticker but the last in-progress observation
	// predates the recorded victory, so this is the same historical win.
	now := time.Date(2026, 2, 11, 23, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Cleveland 33 Baltimore 30 (FINAL - OT)"),
	}}
	states := &stubStateRepository{states: map[string]teamstate.TeamState{
		"cavs": {
			TeamID:            "cavs",
			InGameLastUpdated: now.Add(-time.Hour),
			LastVictory:       now.Add(-30 * time.Minute),
		},
	}}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusNoOp {
		t.Fatalf("status = %s, want NO_OP", got)
	}

	state := states.states["cavs"]
	if !state.LastVictory.Equal(now.Add(-30 * time.Minute)) {
		t.Fatalf("LastVictory should be unchanged, got %v", state.LastVictory)
	}
}

func TestCheckTeamRenotifiesWithinWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 22, 35, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Cleveland 33 Baltimore 30 (FINAL - OT)"),
	}}
	states := &stubStateRepository{states: map[string]teamstate.TeamState{
		"cavs": {
			TeamID:      "cavs",
			LastVictory: now.Add(-5 * time.Minute),
		},
	}}
	svc := newTestService(feeds, states, now)

	for i := 0; i < 2; i++ {
		if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusWin {
			t.Fatalf("iteration %d: status = %s, want WIN", i, got)
		}
	}
	if states.saves != 0 {
		t.Fatalf("re-notification should not mutate state, saves = %d", states.saves)
	}
}

func TestCheckTeamWindowExpiryGoesQuiet(t *testing.T) {
	t.Parallel()

	victory := time.Date(2026, 2, 11, 22, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Cleveland 33 Baltimore 30 (FINAL - OT)"),
	}}
	states := &stubStateRepository{states: map[string]teamstate.TeamState{
		"cavs": {
			TeamID:            "cavs",
			InGameLastUpdated: victory.Add(-time.Hour),
			LastVictory:       victory,
		},
	}}
	svc := newTestService(feeds, states, victory.Add(11*time.Minute))

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusNoOp {
		t.Fatalf("status after window = %s, want NO_OP", got)
	}
}

func TestCheckTeamMalformedLineIsNoOp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 21, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Cleveland 33 Baltimore 30 FINAL"),
	}}
	states := &stubStateRepository{}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusNoOp {
		t.Fatalf("status = %s, want NO_OP", got)
	}
	if states.saves != 0 {
		t.Fatalf("malformed line should not mutate state, saves = %d", states.saves)
	}
}

func TestCheckTeamUnresolvedScoresIsNoOp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 21, 0, 0, 0, time.UTC)
	feeds := &stubFeedProvider{feeds: map[string]string{
		"nba": tickerWith("Cleveland vs Boston (FINAL)"),
	}}
	states := &stubStateRepository{states: map[string]teamstate.TeamState{
		"cavs": {TeamID: "cavs", InGameLastUpdated: now.Add(-time.Minute)},
	}}
	svc := newTestService(feeds, states, now)

	if got := svc.checkTeam(context.Background(), svc.teams[0]); got != StatusNoOp {
		t.Fatalf("status = %s, want NO_OP", got)
	}
	if states.saves != 0 {
		t.Fatalf("unresolved scores should not mutate state, saves = %d", states.saves)
	}
}

func TestCheckAllIsolatesTeamFaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 22, 30, 0, 0, time.UTC)
	feeds := &stubFeedProvider{
		feeds: map[string]string{
			"nfl": tickerWith("Cleveland 33 Baltimore 30 (FINAL - OT)"),
			"nba": tickerWith("Milwaukee 105   Cleveland 94 (3:10 IN 4TH)"),
		},
		errs: map[string]error{"mlb": errors.New("503 from upstream")},
	}
	states := &stubStateRepository{states: map[string]teamstate.TeamState{
		"browns": {
			TeamID:            "browns",
			InGame:            true,
			InGameLastUpdated: now.Add(-10 * time.Minute),
		},
	}}
	svc := NewCheckService(feeds, states, logging.NewNop(), CheckServiceConfig{})
	svc.now = func() time.Time { return now }

	result, err := svc.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll returned error: %v", err)
	}

	want := CheckResult{Browns: StatusWin, Cavs: StatusInProgress, Indians: StatusNoOp}
	if result != want {
		t.Fatalf("result = %+v, want %+v", result, want)
	}
}

func TestCheckAllWithoutCollaborators(t *testing.T) {
	t.Parallel()

	svc := NewCheckService(nil, nil, logging.NewNop(), CheckServiceConfig{})
	if _, err := svc.CheckAll(context.Background()); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want ErrDependencyUnavailable", err)
	}
}

func TestTeamState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 11, 21, 0, 0, 0, time.UTC)
	states := &stubStateRepository{states: map[string]teamstate.TeamState{
		"browns": {TeamID: "browns", LastVictory: now},
	}}
	svc := NewCheckService(&stubFeedProvider{}, states, logging.NewNop(), CheckServiceConfig{})

	state, err := svc.TeamState(context.Background(), "browns")
	if err != nil {
		t.Fatalf("TeamState returned error: %v", err)
	}
	if !state.LastVictory.Equal(now) {
		t.Fatalf("LastVictory = %v", state.LastVictory)
	}

	if _, err := svc.TeamState(context.Background(), "steelers"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown team err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.TeamState(context.Background(), "cavs"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("absent state err = %v, want ErrNotFound", err)
	}
}

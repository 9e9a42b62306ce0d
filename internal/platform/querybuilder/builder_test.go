package querybuilder

import (
	"reflect"
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	t.Parallel()

	sql, args, err := Select("team_id", "in_game", "last_victory").
		From("team_states").
		Where(Eq("team_id", "browns")).
		OrderBy("team_id").
		Limit(1).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL returned error: %v", err)
	}

	wantSQL := "SELECT team_id, in_game, last_victory FROM team_states WHERE team_id = $1 ORDER BY team_id LIMIT 1"
	if sql != wantSQL {
		t.Fatalf("sql mismatch:\n got: %s\nwant: %s", sql, wantSQL)
	}
	if !reflect.DeepEqual(args, []any{"browns"}) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestSelectBuilderConditions(t *testing.T) {
	t.Parallel()

	sql, args, err := Select("id").
		From("job_dispatches").
		Where(Eq("status", "sent"), IsNull("completed_at"), Expr("created_at >= ?", "2026-01-01")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL returned error: %v", err)
	}

	wantSQL := "SELECT id FROM job_dispatches WHERE status = $1 AND completed_at IS NULL AND created_at >= $2"
	if sql != wantSQL {
		t.Fatalf("sql mismatch:\n got: %s\nwant: %s", sql, wantSQL)
	}
	if !reflect.DeepEqual(args, []any{"sent", "2026-01-01"}) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestSelectBuilderRequiresTable(t *testing.T) {
	t.Parallel()

	if _, _, err := Select("id").ToSQL(); err == nil {
		t.Fatal("expected error for missing table")
	}
	if _, _, err := Select().From("team_states").ToSQL(); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestInsertBuilderWithSuffix(t *testing.T) {
	t.Parallel()

	sql, args, err := InsertInto("team_states").
		Columns("team_id", "in_game").
		Values("cavs", true).
		Suffix("ON CONFLICT (team_id) DO UPDATE SET in_game = EXCLUDED.in_game").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL returned error: %v", err)
	}

	wantSQL := "INSERT INTO team_states (team_id, in_game) VALUES ($1, $2) ON CONFLICT (team_id) DO UPDATE SET in_game = EXCLUDED.in_game"
	if sql != wantSQL {
		t.Fatalf("sql mismatch:\n got: %s\nwant: %s", sql, wantSQL)
	}
	if !reflect.DeepEqual(args, []any{"cavs", true}) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestInsertBuilderRowShapeMismatch(t *testing.T) {
	t.Parallel()

	_, _, err := InsertInto("team_states").
		Columns("team_id", "in_game").
		Values("indians").
		ToSQL()
	if err == nil {
		t.Fatal("expected error for row shape mismatch")
	}
}

func TestUpdateBuilder(t *testing.T) {
	t.Parallel()

	sql, args, err := Update("team_states").
		Set("in_game", false).
		SetExpr("updated_at", "NOW()").
		Where(Eq("team_id", "browns")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL returned error: %v", err)
	}

	wantSQL := "UPDATE team_states SET in_game = $1, updated_at = NOW() WHERE team_id = $2"
	if sql != wantSQL {
		t.Fatalf("sql mismatch:\n got: %s\nwant: %s", sql, wantSQL)
	}
	if !reflect.DeepEqual(args, []any{false, "browns"}) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestInsertModel(t *testing.T) {
	t.Parallel()

	type row struct {
		TeamID    string    `db:"team_id"`
		InGame    bool      `db:"in_game"`
		UpdatedAt time.Time `db:"updated_at"`
		Ignored   string    `db:"-"`
	}

	now := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)
	sql, args, err := InsertModel("team_states", row{TeamID: "cavs", InGame: true, UpdatedAt: now}, "")
	if err != nil {
		t.Fatalf("InsertModel returned error: %v", err)
	}

	wantSQL := "INSERT INTO team_states (team_id, in_game, updated_at) VALUES ($1, $2, $3)"
	if sql != wantSQL {
		t.Fatalf("sql mismatch:\n got: %s\nwant: %s", sql, wantSQL)
	}
	if !reflect.DeepEqual(args, []any{"cavs", true, now}) {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestInsertModelRejectsNonStruct(t *testing.T) {
	t.Parallel()

	if _, _, err := InsertModel("team_states", 42, ""); err == nil {
		t.Fatal("expected error for non-struct model")
	}
	var nilRow *struct {
		ID string `db:"id"`
	}
	if _, _, err := InsertModel("team_states", nilRow, ""); err == nil {
		t.Fatal("expected error for nil model")
	}
}

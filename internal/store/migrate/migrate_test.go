package migrate

import (
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
)

func TestRunAppliesMigrations(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	r := NewRunner(db)
	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	current, pending, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if pending != 0 {
		t.Errorf("pending = %d, want 0", pending)
	}
	if current < 1 {
		t.Errorf("current = %d, want >= 1", current)
	}

	for _, table := range []string{"log_records", "clusters", "sessions", "threats"} {
		var count int64
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	r := NewRunner(db)
	if err := r.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}
}

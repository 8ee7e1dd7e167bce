package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "002_location.sql", "CREATE TABLE location ();")
	writeFile(t, dir, "001_doctor.sql", "CREATE TABLE doctor ();")
	writeFile(t, dir, "010_expense.sql", "CREATE TABLE expense ();")
	writeFile(t, dir, "notes.txt", "not a migration")
	writeFile(t, dir, "README.sql", "no numeric prefix, skipped")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migrations))
	}
	wantOrder := []int{1, 2, 10}
	for i, mig := range migrations {
		if mig.Version != wantOrder[i] {
			t.Errorf("migrations[%d].Version = %d, want %d", i, mig.Version, wantOrder[i])
		}
	}
	if migrations[0].Name != "001_doctor.sql" {
		t.Errorf("first migration = %s, want 001_doctor.sql", migrations[0].Name)
	}
	if migrations[0].SQL != "CREATE TABLE doctor ();" {
		t.Errorf("SQL not loaded: %q", migrations[0].SQL)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

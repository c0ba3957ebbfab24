package db_test

import (
	"testing"
	"testing/fstest"

	"order-backoffice/internal/db"
	"order-backoffice/migrations"
)

func TestLoadMigrations_Ordered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2;")},
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"README.md": {Data: []byte("ignored")},
		"010_c.sql": {Data: []byte("SELECT 10;")},
	}
	got, err := db.LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(got))
	}
	if got[0].Version != "001" || got[1].Version != "002" || got[2].Version != "010" {
		t.Errorf("unexpected order: %s %s %s", got[0].Filename, got[1].Filename, got[2].Filename)
	}
	if got[0].Checksum == got[1].Checksum {
		t.Error("different files must have different checksums")
	}
}

func TestLoadMigrations_Rejects(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"duplicate version": {
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"001_b.sql": {Data: []byte("SELECT 2;")},
		},
		"bad name": {
			"init.sql": {Data: []byte("SELECT 1;")},
		},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := db.LoadMigrations(fsys); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	got, err := db.LoadMigrations(migrations.FS)
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(got) == 0 || got[0].Filename != "001_init.sql" {
		t.Errorf("expected embedded migrations starting at 001_init.sql, got %+v", got)
	}
}

package migration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

type fakeConn struct {
	version  int
	applied  []int
	failOn   int
	versionE error
}

func (f *fakeConn) CurrentVersion(context.Context) (int, error) {
	return f.version, f.versionE
}

func (f *fakeConn) Apply(_ context.Context, m Migration) error {
	if m.Version == f.failOn {
		return errors.New("boom")
	}
	f.applied = append(f.applied, m.Version)
	f.version = m.Version
	return nil
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"002_goals.sql": {Data: []byte("CREATE TABLE goals (id INTEGER);")},
		"001_init.sql":  {Data: []byte("CREATE TABLE users (id TEXT);")},
		"README.md":     {Data: []byte("ignored")},
		"archive/x.sql": {Data: []byte("ignored")},
	}
}

func TestReadMigrationFilesSortsAndParses(t *testing.T) {
	runner := NewRunner(&fakeConn{}, testFS())
	migrations, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "init" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "goals" {
		t.Errorf("unexpected second migration: %+v", migrations[1])
	}
}

func TestReadMigrationFilesRejectsBadNames(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name:    "missing separator",
			files:   fstest.MapFS{"001.sql": {Data: []byte("")}},
			wantErr: "invalid migration filename",
		},
		{
			name:    "non-numeric version",
			files:   fstest.MapFS{"abc_init.sql": {Data: []byte("")}},
			wantErr: "invalid version number",
		},
		{
			name:    "zero version",
			files:   fstest.MapFS{"000_init.sql": {Data: []byte("")}},
			wantErr: "at least 1",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"001_a.sql": {Data: []byte("")},
				"01_b.sql":  {Data: []byte("")},
			},
			wantErr: "duplicate migration version 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(&fakeConn{}, tt.files).ReadMigrationFiles()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyMigrationsRunsOnlyPending(t *testing.T) {
	conn := &fakeConn{version: 1}
	var logs []string
	applied, err := NewRunner(conn, testFS()).ApplyMigrations(context.Background(), func(s string) {
		logs = append(logs, s)
	})
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 1 || len(conn.applied) != 1 || conn.applied[0] != 2 {
		t.Fatalf("expected only migration 2 to run, got applied=%d %v", applied, conn.applied)
	}
	if len(logs) == 0 {
		t.Errorf("expected progress logs")
	}

	applied, err = NewRunner(conn, testFS()).ApplyMigrations(context.Background(), nil)
	if err != nil || applied != 0 {
		t.Fatalf("expected second run to be a no-op, got applied=%d err=%v", applied, err)
	}
}

func TestApplyMigrationsRejectsNewerDatabase(t *testing.T) {
	conn := &fakeConn{version: 9}
	_, err := NewRunner(conn, testFS()).ApplyMigrations(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("expected newer-schema error, got %v", err)
	}
}

func TestApplyMigrationsStopsOnFailure(t *testing.T) {
	conn := &fakeConn{failOn: 2}
	applied, err := NewRunner(conn, testFS()).ApplyMigrations(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "002_goals") {
		t.Fatalf("expected failure naming migration 002_goals, got %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 migration applied before failure, got %d", applied)
	}
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		version int
		wantErr string
	}{
		{name: "current", version: 2},
		{name: "behind", version: 1, wantErr: "older than expected"},
		{name: "ahead", version: 3, wantErr: "newer than supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRunner(&fakeConn{version: tt.version}, testFS()).ValidateVersion(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

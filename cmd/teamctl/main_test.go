package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hackmate/config"
	"hackmate/middleware"
	"hackmate/models"

	"gorm.io/gorm"
)

const seedYAML = `
hackathons:
  - id: hack-2026
    name: Spring Hack
    location: Berlin
    startDate: 2026-03-01
    endDate: 2026-03-03T18:00:00Z
    tracks: [ai, climate]
  - id: winter
    name: Winter Jam
    startDate: 2026-12-01
    endDate: 2026-12-02
`

func TestParseSeed(t *testing.T) {
	hackathons, err := parseSeed(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("parseSeed: %v", err)
	}
	if len(hackathons) != 2 {
		t.Fatalf("got %d hackathons, want 2", len(hackathons))
	}

	h := hackathons[0]
	if h.ID != "hack-2026" || h.Name != "Spring Hack" || h.Location != "Berlin" {
		t.Errorf("unexpected first hackathon: %+v", h)
	}
	if !h.StartDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v", h.StartDate)
	}
	if !h.EndDate.Equal(time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("EndDate = %v", h.EndDate)
	}
	if len(h.Tracks) != 2 || h.Tracks[1] != "climate" {
		t.Errorf("Tracks = %v", h.Tracks)
	}
	if hackathons[1].Tracks == nil {
		t.Error("missing tracks should default to an empty list")
	}
}

func TestParseSeed_Errors(t *testing.T) {
	cases := map[string]string{
		"bad date":      "hackathons:\n  - id: x\n    name: X\n    startDate: soon\n    endDate: 2026-01-01\n",
		"missing date":  "hackathons:\n  - id: x\n    name: X\n    endDate: 2026-01-01\n",
		"end too early": "hackathons:\n  - id: x\n    name: X\n    startDate: 2026-02-01\n    endDate: 2026-01-01\n",
		"not yaml":      "hackathons: [",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseSeed(strings.NewReader(input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseSeed_Empty(t *testing.T) {
	hackathons, err := parseSeed(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parseSeed: %v", err)
	}
	if len(hackathons) != 0 {
		t.Errorf("got %d hackathons, want 0", len(hackathons))
	}
}

func TestTokenCommand(t *testing.T) {
	secret := strings.Repeat("k", 32)
	t.Setenv("JWT_SECRET", secret)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"token", "user-42", "--name", "Ada", "--ttl", "1h"})
	if err := root.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}

	id, err := middleware.NewHMACAuthenticator(secret).Parse(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if id.UserID != "user-42" || id.Name != "Ada" {
		t.Errorf("identity = %+v", id)
	}
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token", "user-42"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for short secret")
	}
}

// useSQLite points the CLI at a fresh sqlite file.
func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "teamctl.db"))
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("REDIS_URL", "")
}

func TestWithDB_ClosesConnection(t *testing.T) {
	useSQLite(t)

	var kept *gorm.DB
	err := withDB(func(db *gorm.DB, cfg *config.Config) error {
		kept = db
		return db.Exec("SELECT 1").Error
	})
	if err != nil {
		t.Fatalf("withDB: %v", err)
	}

	sqlDB, err := kept.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	if err := sqlDB.Ping(); err == nil {
		t.Error("connection still open after withDB returned")
	}
}

func TestMigrateAndSeedCommands(t *testing.T) {
	useSQLite(t)

	seed := filepath.Join(t.TempDir(), "hackathons.yaml")
	if err := os.WriteFile(seed, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	for _, args := range [][]string{{"migrate"}, {"seed-hackathons", seed}} {
		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%s: %v", args[0], err)
		}
	}

	var count int64
	err := withDB(func(db *gorm.DB, _ *config.Config) error {
		return db.Model(&models.Hackathon{}).Count(&count).Error
	})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("hackathons = %d, want 2", count)
	}
}

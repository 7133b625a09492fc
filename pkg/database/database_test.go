package database

import (
	"path/filepath"
	"testing"

	"github.com/yi-nology/cos_bridge/pkg/config"
	"gorm.io/gorm/logger"
)

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meta.db")
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: path}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(db)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("query: %v", err)
	}
}

func TestOpenRejectsMissingSettings(t *testing.T) {
	cases := []config.DatabaseConfig{
		{Driver: "mysql"},
		{Driver: "postgres"},
		{Driver: "sqlite"},
		{Driver: "oracle"},
	}
	for _, cfg := range cases {
		if _, err := Open(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestLogLevel(t *testing.T) {
	if logLevel("silent") != logger.Silent || logLevel("") != logger.Warn {
		t.Fatalf("unexpected log level mapping")
	}
}

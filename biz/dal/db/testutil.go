package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/yi-nology/cos_bridge/biz/dal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an isolated in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Reduce log noise in tests
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("Failed to migrate tables: %v", err)
	}

	t.Cleanup(func() { CleanupTestDB(t, db) })
	return db
}

// CleanupTestDB closes the database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("Warning: Failed to get underlying DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: Failed to close DB: %v", err)
	}
}

// CreateTestFolder creates a folder record under parent (nil for root).
func CreateTestFolder(t *testing.T, db *gorm.DB, name string, parent *model.FileRecord) *model.FileRecord {
	t.Helper()
	record := &model.FileRecord{
		Name:   name,
		Type:   model.FolderType,
		Bucket: "test-bucket",
		Key:    name + "/",
	}
	if parent != nil {
		record.ParentID = &parent.FileID
		record.Key = parent.Key + name + "/"
	}
	if err := NewFileRecordDAO().Create(context.Background(), db, record); err != nil {
		t.Fatalf("Failed to create test folder: %v", err)
	}
	return record
}

// CreateTestFile creates a file record under parent (nil for root).
func CreateTestFile(t *testing.T, db *gorm.DB, name string, parent *model.FileRecord) *model.FileRecord {
	t.Helper()
	record := &model.FileRecord{
		Name:   name,
		Type:   "text/plain",
		Size:   1,
		Bucket: "test-bucket",
		Key:    name,
	}
	if parent != nil {
		record.ParentID = &parent.FileID
		record.Key = parent.Key + name
	}
	if err := NewFileRecordDAO().Create(context.Background(), db, record); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return record
}

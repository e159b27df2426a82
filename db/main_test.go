package db

import (
	"fmt"
	"testing"

	"github.com/rushrhq/messaging/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *GormDB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return &GormDB{DB: gdb}
}

func createTestUser(t *testing.T, gdb *GormDB, name string) *models.User {
	t.Helper()
	user := &models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s@example.com", name),
	}
	if err := gdb.DB.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

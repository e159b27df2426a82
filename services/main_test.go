package services

import (
	"fmt"
	"testing"

	"github.com/rushrhq/messaging/config"
	"github.com/rushrhq/messaging/db"
	"github.com/rushrhq/messaging/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires real repositories over an in-memory database, with the
// realtime and notification sides left out.
type testEnv struct {
	gdb       *db.GormDB
	conf      *config.Config
	convRepo  db.ConversationRepository
	msgRepo   db.MessageRepository
	offerRepo db.OfferRepository
	userRepo  db.UserRepository

	conversations ConversationService
	messages      MessageService
	offers        OfferService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	gdb := &db.GormDB{DB: gormDB}
	conf := &config.Config{
		TypingTTLSeconds:       8,
		MessageUndoWindowHours: 24,
		MessageRetentionDays:   30,
		OfferExpiryHours:       72,
	}

	env := &testEnv{
		gdb:       gdb,
		conf:      conf,
		convRepo:  db.NewConversationRepo(gdb),
		msgRepo:   db.NewMessageRepo(gdb),
		offerRepo: db.NewOfferRepo(gdb),
		userRepo:  db.NewUserRepo(gdb),
	}
	env.conversations = NewConversationService(env.convRepo, env.msgRepo, nil, conf)
	env.messages = NewMessageService(env.msgRepo, env.convRepo, env.userRepo, nil, nil, conf)
	env.offers = NewOfferService(env.offerRepo, env.msgRepo, env.convRepo, env.userRepo, nil, nil, conf)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s@example.com", name),
	}
	if err := e.gdb.DB.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

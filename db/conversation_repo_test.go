package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/rushrhq/messaging/models"
)

func TestCreateOrGetIsIdempotent(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewConversationRepo(gdb)
	requester := createTestUser(t, gdb, "rita")
	provider := createTestUser(t, gdb, "paul")

	first, created, err := repo.CreateOrGet(&models.Conversation{
		RequesterID: requester.ID,
		ProviderID:  provider.ID,
		Title:       "Fix sink",
		JobRef:      "job-1",
	})
	assert.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateOrGet(&models.Conversation{
		RequesterID: requester.ID,
		ProviderID:  provider.ID,
		Title:       "A different title",
		JobRef:      "job-1",
	})
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	// The existing row comes back unchanged.
	assert.Equal(t, "Fix sink", second.Title)

	var count int64
	gdb.DB.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// Both participant overlay rows exist.
	var participants int64
	gdb.DB.Model(&models.ConversationParticipant{}).Where("conversation_id = ?", first.ID).Count(&participants)
	assert.Equal(t, int64(2), participants)
}

func TestCreateOrGetSeparatesJobs(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewConversationRepo(gdb)
	requester := createTestUser(t, gdb, "rita")
	provider := createTestUser(t, gdb, "paul")

	a, _, err := repo.CreateOrGet(&models.Conversation{RequesterID: requester.ID, ProviderID: provider.ID, JobRef: "job-1"})
	assert.NoError(t, err)
	b, _, err := repo.CreateOrGet(&models.Conversation{RequesterID: requester.ID, ProviderID: provider.ID, JobRef: "job-2"})
	assert.NoError(t, err)
	c, _, err := repo.CreateOrGet(&models.Conversation{RequesterID: requester.ID, ProviderID: provider.ID})
	assert.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.NotEqual(t, b.ID, c.ID)
}

func TestAdvanceReadCursorNeverRetreats(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewConversationRepo(gdb)
	requester := createTestUser(t, gdb, "rita")
	provider := createTestUser(t, gdb, "paul")
	conv, _, err := repo.CreateOrGet(&models.Conversation{RequesterID: requester.ID, ProviderID: provider.ID})
	assert.NoError(t, err)

	moved, err := repo.AdvanceReadCursor(conv.ID, provider.ID, 5, time.Now())
	assert.NoError(t, err)
	assert.True(t, moved)

	// A backward request is a no-op, not an error.
	moved, err = repo.AdvanceReadCursor(conv.ID, provider.ID, 3, time.Now())
	assert.NoError(t, err)
	assert.False(t, moved)

	p, err := repo.FindParticipant(conv.ID, provider.ID)
	assert.NoError(t, err)
	assert.Equal(t, uint64(5), p.LastReadSeq)

	moved, err = repo.AdvanceReadCursor(conv.ID, provider.ID, 9, time.Now())
	assert.NoError(t, err)
	assert.True(t, moved)
	p, _ = repo.FindParticipant(conv.ID, provider.ID)
	assert.Equal(t, uint64(9), p.LastReadSeq)
}

func TestListForUserDirectory(t *testing.T) {
	gdb := setupTestDB(t)
	convRepo := NewConversationRepo(gdb)
	msgRepo := NewMessageRepo(gdb)
	requester := createTestUser(t, gdb, "rita")
	provider := createTestUser(t, gdb, "paul")
	other := createTestUser(t, gdb, "omar")

	sink, _, err := convRepo.CreateOrGet(&models.Conversation{RequesterID: requester.ID, ProviderID: provider.ID, Title: "Fix sink", JobRef: "job-1"})
	assert.NoError(t, err)
	fence, _, err := convRepo.CreateOrGet(&models.Conversation{RequesterID: requester.ID, ProviderID: other.ID, Title: "Fence repair", JobRef: "job-2"})
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		msg := &models.Message{ConversationID: sink.ID, SenderID: requester.ID, Kind: models.MessageText, Content: "hello", CreatedAt: time.Now()}
		assert.NoError(t, msgRepo.Append(msg, msg.Preview()))
	}
	// Fence gets the most recent activity.
	last := &models.Message{ConversationID: fence.ID, SenderID: other.ID, Kind: models.MessageText, Content: "quote attached", CreatedAt: time.Now().Add(time.Minute)}
	assert.NoError(t, msgRepo.Append(last, last.Preview()))

	summaries, err := convRepo.ListForUser(requester.ID)
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
	assert.Equal(t, fence.ID, summaries[0].ID)
	assert.Equal(t, sink.ID, summaries[1].ID)
	assert.Equal(t, "omar", summaries[0].CounterpartName)
	assert.Equal(t, "quote attached", summaries[0].LastMessage)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)
	// Rita authored everything in the sink thread, so nothing is unread there.
	assert.Equal(t, int64(0), summaries[1].UnreadCount)

	// The provider sees three unread messages from Rita.
	providerView, err := convRepo.ListForUser(provider.ID)
	assert.NoError(t, err)
	assert.Len(t, providerView, 1)
	assert.Equal(t, int64(3), providerView[0].UnreadCount)
}

func TestListForUserExcludesSelfDeleted(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewConversationRepo(gdb)
	requester := createTestUser(t, gdb, "rita")
	provider := createTestUser(t, gdb, "paul")
	conv, _, err := repo.CreateOrGet(&models.Conversation{RequesterID: requester.ID, ProviderID: provider.ID})
	assert.NoError(t, err)

	assert.NoError(t, repo.SetParticipantState(conv.ID, requester.ID, models.ParticipantDeleted))

	mine, err := repo.ListForUser(requester.ID)
	assert.NoError(t, err)
	assert.Empty(t, mine)

	// Deleting for me must not hide the thread for the counterpart.
	theirs, err := repo.ListForUser(provider.ID)
	assert.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestSetTypingStampsTimestamp(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewConversationRepo(gdb)
	requester := createTestUser(t, gdb, "rita")
	provider := createTestUser(t, gdb, "paul")
	conv, _, err := repo.CreateOrGet(&models.Conversation{RequesterID: requester.ID, ProviderID: provider.ID})
	assert.NoError(t, err)

	at := time.Now()
	assert.NoError(t, repo.SetTyping(conv.ID, requester.ID, true, at))

	p, err := repo.FindParticipant(conv.ID, requester.ID)
	assert.NoError(t, err)
	assert.True(t, p.IsTyping)
	assert.NotNil(t, p.TypingUpdatedAt)
	assert.True(t, p.TypingActive(at.Add(2*time.Second), 8*time.Second))
	assert.False(t, p.TypingActive(at.Add(20*time.Second), 8*time.Second))
}

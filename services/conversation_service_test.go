package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/models"
)

func TestCreateOrGetRejectsInvalidParticipants(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")

	_, err := env.conversations.CreateOrGet(rita.ID, rita.ID, "", "")
	assert.ErrorIs(t, err, errs.ErrInvalidParticipants)

	_, err = env.conversations.CreateOrGet(rita.ID, uuid.Nil, "", "")
	assert.ErrorIs(t, err, errs.ErrInvalidParticipants)
}

func TestCreateOrGetKeepsExistingTitle(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")

	first, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "Fix sink", "job-1")
	assert.NoError(t, err)
	second, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "Ignore me", "job-1")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Fix sink", second.Title)
}

func TestGetRejectsStranger(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	omar := env.createUser(t, "omar")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "")
	assert.NoError(t, err)

	_, err = env.conversations.Get(conv.ID, omar.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	err = env.conversations.Archive(conv.ID, omar.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestMarkReadTracksUnread(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "Fix sink", "job-1")
	assert.NoError(t, err)

	var sent []*models.Message
	for i := 0; i < 3; i++ {
		msg, err := env.messages.Send(conv.ID, rita.ID, SendMessageInput{Kind: models.MessageText, Content: "hello"})
		assert.NoError(t, err)
		sent = append(sent, msg)
	}

	view, err := env.conversations.List(paul.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), view[0].UnreadCount)

	// Reading up to the second message leaves one unread.
	assert.NoError(t, env.conversations.MarkRead(conv.ID, paul.ID, sent[1].ID))
	view, _ = env.conversations.List(paul.ID)
	assert.Equal(t, int64(1), view[0].UnreadCount)

	// A stale cursor request is accepted and ignored.
	assert.NoError(t, env.conversations.MarkRead(conv.ID, paul.ID, sent[0].ID))
	view, _ = env.conversations.List(paul.ID)
	assert.Equal(t, int64(1), view[0].UnreadCount)

	assert.NoError(t, env.conversations.MarkRead(conv.ID, paul.ID, sent[2].ID))
	view, _ = env.conversations.List(paul.ID)
	assert.Equal(t, int64(0), view[0].UnreadCount)
}

func TestMarkReadRejectsForeignMessage(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	omar := env.createUser(t, "omar")
	sink, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "job-1")
	assert.NoError(t, err)
	fence, err := env.conversations.CreateOrGet(rita.ID, omar.ID, "", "job-2")
	assert.NoError(t, err)

	msg, err := env.messages.Send(fence.ID, omar.ID, SendMessageInput{Kind: models.MessageText, Content: "quote"})
	assert.NoError(t, err)

	// A cursor target must live in the conversation being read.
	err = env.conversations.MarkRead(sink.ID, paul.ID, msg.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTypingIndicatorExpiresOnRead(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "")
	assert.NoError(t, err)

	assert.NoError(t, env.conversations.SetTyping(conv.ID, rita.ID, true))

	loaded, err := env.conversations.Get(conv.ID, paul.ID)
	assert.NoError(t, err)
	for _, p := range loaded.Participants {
		if p.UserID == rita.ID {
			assert.True(t, p.IsTyping)
		}
	}

	// Age the stamp past the TTL; the flag reads as off even though the
	// stored value was never flipped.
	stale := time.Now().Add(-time.Minute)
	err = env.gdb.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conv.ID, rita.ID).
		Update("typing_updated_at", stale).Error
	assert.NoError(t, err)

	loaded, err = env.conversations.Get(conv.ID, paul.ID)
	assert.NoError(t, err)
	for _, p := range loaded.Participants {
		if p.UserID == rita.ID {
			assert.False(t, p.IsTyping)
		}
	}
}

func TestArchiveAndDeleteAreLocal(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "")
	assert.NoError(t, err)

	assert.NoError(t, env.conversations.Delete(conv.ID, rita.ID))

	mine, err := env.conversations.List(rita.ID)
	assert.NoError(t, err)
	assert.Empty(t, mine)
	theirs, err := env.conversations.List(paul.ID)
	assert.NoError(t, err)
	assert.Len(t, theirs, 1)

	// A new message from the counterpart brings the thread back.
	_, err = env.messages.Send(conv.ID, paul.ID, SendMessageInput{Kind: models.MessageText, Content: "still there?"})
	assert.NoError(t, err)
	mine, err = env.conversations.List(rita.ID)
	assert.NoError(t, err)
	assert.Len(t, mine, 1)
}

package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/models"
)

func TestSendValidatesPayload(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "")
	assert.NoError(t, err)

	_, err = env.messages.Send(conv.ID, rita.ID, SendMessageInput{Kind: models.MessageText, Content: "   "})
	assert.ErrorIs(t, err, errs.ErrEmptyPayload)

	_, err = env.messages.Send(conv.ID, rita.ID, SendMessageInput{Kind: models.MessageFile})
	assert.ErrorIs(t, err, errs.ErrEmptyPayload)

	// Offer and system kinds have their own entry points.
	_, err = env.messages.Send(conv.ID, rita.ID, SendMessageInput{Kind: models.MessageOffer, Content: "x"})
	assert.ErrorIs(t, err, errs.ErrBadRequest)

	omar := env.createUser(t, "omar")
	_, err = env.messages.Send(conv.ID, omar.ID, SendMessageInput{Kind: models.MessageText, Content: "hi"})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestSendReplyMustTargetSameConversation(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	omar := env.createUser(t, "omar")
	sink, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "job-1")
	assert.NoError(t, err)
	fence, err := env.conversations.CreateOrGet(rita.ID, omar.ID, "", "job-2")
	assert.NoError(t, err)

	elsewhere, err := env.messages.Send(fence.ID, omar.ID, SendMessageInput{Kind: models.MessageText, Content: "quote"})
	assert.NoError(t, err)

	_, err = env.messages.Send(sink.ID, rita.ID, SendMessageInput{
		Kind:      models.MessageText,
		Content:   "re: quote",
		ReplyToID: &elsewhere.ID,
	})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	missing := uuid.New()
	_, err = env.messages.Send(sink.ID, rita.ID, SendMessageInput{
		Kind:      models.MessageText,
		Content:   "re: nothing",
		ReplyToID: &missing,
	})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteRules(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "")
	assert.NoError(t, err)

	msg, err := env.messages.Send(conv.ID, rita.ID, SendMessageInput{Kind: models.MessageText, Content: "typo"})
	assert.NoError(t, err)

	// Only the author may delete, no matter the age.
	err = env.messages.Delete(msg.ID, paul.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	assert.NoError(t, env.messages.Delete(msg.ID, rita.ID))
	// Deleting again is a no-op.
	assert.NoError(t, env.messages.Delete(msg.ID, rita.ID))

	// Readers see a redacted placeholder, not the original text.
	msgs, err := env.messages.List(conv.ID, paul.ID, 50, 0)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.True(t, msgs[0].Deleted)
	assert.Empty(t, msgs[0].Content)
}

func TestDeleteOutsideUndoWindow(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "")
	assert.NoError(t, err)

	msg, err := env.messages.Send(conv.ID, rita.ID, SendMessageInput{Kind: models.MessageText, Content: "old news"})
	assert.NoError(t, err)

	aged := time.Now().Add(-25 * time.Hour)
	err = env.gdb.DB.Model(&models.Message{}).Where("id = ?", msg.ID).Update("created_at", aged).Error
	assert.NoError(t, err)

	err = env.messages.Delete(msg.ID, rita.ID)
	assert.ErrorIs(t, err, errs.ErrWindowExpired)
}

func TestSendSystemMessage(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "")
	assert.NoError(t, err)

	msg, err := env.messages.SendSystem(conv.ID, "Payment released")
	assert.NoError(t, err)
	assert.Equal(t, models.MessageSystem, msg.Kind)
	assert.Equal(t, uuid.Nil, msg.SenderID)

	_, err = env.messages.SendSystem(conv.ID, "  ")
	assert.ErrorIs(t, err, errs.ErrEmptyPayload)
}

func TestPurgeExpiredHonorsRetention(t *testing.T) {
	env := setupTestEnv(t)
	rita := env.createUser(t, "rita")
	paul := env.createUser(t, "paul")
	conv, err := env.conversations.CreateOrGet(rita.ID, paul.ID, "", "")
	assert.NoError(t, err)

	old, err := env.messages.Send(conv.ID, rita.ID, SendMessageInput{Kind: models.MessageText, Content: "old"})
	assert.NoError(t, err)
	recent, err := env.messages.Send(conv.ID, rita.ID, SendMessageInput{Kind: models.MessageText, Content: "recent"})
	assert.NoError(t, err)

	assert.NoError(t, env.messages.Delete(old.ID, rita.ID))
	assert.NoError(t, env.messages.Delete(recent.ID, rita.ID))

	// Age only the first deletion past the retention period.
	aged := time.Now().Add(-31 * 24 * time.Hour)
	err = env.gdb.DB.Model(&models.Message{}).Where("id = ?", old.ID).Update("deleted_at", aged).Error
	assert.NoError(t, err)

	purged, err := env.messages.PurgeExpired(time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	msgs, err := env.messages.List(conv.ID, paul.ID, 50, 0)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, recent.ID, msgs[0].ID)
}

package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushrhq/messaging/models"
	"gorm.io/gorm"
)

// MessageRepository interface
type MessageRepository interface {
	Append(msg *models.Message, preview string) error
	GetByID(id uuid.UUID) (*models.Message, error)
	ListByConversation(conversationID uuid.UUID, limit int, beforeSeq uint64) ([]models.Message, error)
	SoftDelete(id uuid.UUID, at time.Time) error
	PurgeDeletedBefore(cutoff time.Time) (int64, error)
}

// messageRepo struct
type messageRepo struct {
	DB *gorm.DB
}

// NewMessageRepo creates a new instance of MessageRepository
func NewMessageRepo(db *GormDB) MessageRepository {
	return &messageRepo{db.DB}
}

// Append durably inserts the message and bumps the conversation's
// denormalized preview and last_activity_at in the same transaction, so
// the directory ordering can never drift from the message log. The store
// assigns seq at insert; that sequence, not any client clock, is the
// ordering truth.
func (r *messageRepo) Append(msg *models.Message, preview string) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]interface{}{
				"last_message":     preview,
				"last_activity_at": msg.CreatedAt,
			}).Error
	})
	if err != nil {
		return errors.Wrap(err, "could not append message")
	}
	return nil
}

func (r *messageRepo) GetByID(id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.DB.Preload("Offer").Preload("Attachments").Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByConversation returns a window of messages in append order. With
// beforeSeq set it pages backwards from that point; the result is always
// ascending by seq.
func (r *messageRepo) ListByConversation(conversationID uuid.UUID, limit int, beforeSeq uint64) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.DB.Preload("Offer").Preload("Attachments").
		Where("conversation_id = ?", conversationID)
	if beforeSeq > 0 {
		q = q.Where("seq < ?", beforeSeq)
	}
	var msgs []models.Message
	if err := q.Order("seq DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, errors.Wrap(err, "could not list messages")
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// SoftDelete flips the deleted flag; the row persists for the undo window
// and the counterpart's view.
func (r *messageRepo) SoftDelete(id uuid.UUID, at time.Time) error {
	res := r.DB.Model(&models.Message{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]interface{}{
			"deleted":    true,
			"deleted_at": at,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "could not delete message")
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PurgeDeletedBefore hard-deletes soft-deleted messages whose deletion is
// older than the cutoff, together with their attachments and offers. Meant
// to be driven by the external retention sweep.
func (r *messageRepo) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	var purged int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.Message{}).
			Where("deleted = ? AND deleted_at < ?", true, cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("message_id IN ?", ids).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id IN ?", ids).Delete(&models.Offer{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Message{})
		purged = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, errors.Wrap(err, "could not purge messages")
	}
	return purged, nil
}

package db

import (
	goerrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushrhq/messaging/models"
	"gorm.io/gorm"
)

// ConversationRepository interface
type ConversationRepository interface {
	CreateOrGet(conv *models.Conversation) (*models.Conversation, bool, error)
	GetByID(id uuid.UUID) (*models.Conversation, error)
	ListForUser(userID uuid.UUID) ([]models.ConversationSummary, error)
	FindParticipant(conversationID, userID uuid.UUID) (*models.ConversationParticipant, error)
	SetParticipantState(conversationID, userID uuid.UUID, state string) error
	AdvanceReadCursor(conversationID, userID uuid.UUID, seq uint64, at time.Time) (bool, error)
	SetTyping(conversationID, userID uuid.UUID, isTyping bool, at time.Time) error
	UnreadCount(conversationID, userID uuid.UUID) (int64, error)
}

// conversationRepo struct
type conversationRepo struct {
	DB *gorm.DB
}

// NewConversationRepo creates a new instance of ConversationRepository
func NewConversationRepo(db *GormDB) ConversationRepository {
	return &conversationRepo{db.DB}
}

// CreateOrGet returns the existing conversation for the
// (requester, provider, job_ref) triple, or inserts a new one together
// with its two participant rows. The unique index on the triple is the
// idempotency guarantee: a create that loses a race falls back to reading
// the row the winner inserted.
func (r *conversationRepo) CreateOrGet(conv *models.Conversation) (*models.Conversation, bool, error) {
	existing, err := r.findByTriple(conv.RequesterID, conv.ProviderID, conv.JobRef)
	if err == nil {
		return existing, false, nil
	}
	if !goerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, errors.Wrap(err, "could not look up conversation")
	}

	now := time.Now()
	conv.LastActivityAt = now
	txErr := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		participants := []models.ConversationParticipant{
			{ConversationID: conv.ID, UserID: conv.RequesterID, State: models.ParticipantActive},
			{ConversationID: conv.ID, UserID: conv.ProviderID, State: models.ParticipantActive},
		}
		return tx.Create(&participants).Error
	})
	if txErr != nil {
		// Unique index violation means a concurrent create won; hand back
		// that row instead of failing.
		if existing, err := r.findByTriple(conv.RequesterID, conv.ProviderID, conv.JobRef); err == nil {
			return existing, false, nil
		}
		return nil, false, errors.Wrap(txErr, "could not create conversation")
	}
	return conv, true, nil
}

func (r *conversationRepo) findByTriple(requesterID, providerID uuid.UUID, jobRef string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.DB.Where("requester_id = ? AND provider_id = ? AND job_ref = ?", requesterID, providerID, jobRef).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) GetByID(id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.DB.Preload("Participants").Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

type directoryRow struct {
	ID             uuid.UUID
	RequesterID    uuid.UUID
	ProviderID     uuid.UUID
	JobRef         string
	Title          string
	LastMessage    string
	LastActivityAt time.Time
	State          string
}

type unreadRow struct {
	ConversationID uuid.UUID
	Count          int64
}

// ListForUser returns the directory for one user: every conversation they
// participate in and haven't deleted for themselves, most recent activity
// first, annotated with counterpart name and unread count.
func (r *conversationRepo) ListForUser(userID uuid.UUID) ([]models.ConversationSummary, error) {
	var rows []directoryRow
	err := r.DB.Table("conversations").
		Select("conversations.id, conversations.requester_id, conversations.provider_id, conversations.job_ref, conversations.title, conversations.last_message, conversations.last_activity_at, conversation_participants.state").
		Joins("JOIN conversation_participants ON conversation_participants.conversation_id = conversations.id").
		Where("conversation_participants.user_id = ? AND conversation_participants.state <> ?", userID, models.ParticipantDeleted).
		Order("conversations.last_activity_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list conversations")
	}
	if len(rows) == 0 {
		return []models.ConversationSummary{}, nil
	}

	var unreads []unreadRow
	err = r.DB.Table("messages").
		Select("messages.conversation_id, COUNT(*) AS count").
		Joins("JOIN conversation_participants p ON p.conversation_id = messages.conversation_id AND p.user_id = ?", userID).
		Where("messages.seq > p.last_read_seq AND messages.sender_id <> ? AND messages.deleted = ?", userID, false).
		Group("messages.conversation_id").
		Scan(&unreads).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not count unread messages")
	}
	unreadByConv := make(map[uuid.UUID]int64, len(unreads))
	for _, u := range unreads {
		unreadByConv[u.ConversationID] = u.Count
	}

	counterpartIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.RequesterID == userID {
			counterpartIDs = append(counterpartIDs, row.ProviderID)
		} else {
			counterpartIDs = append(counterpartIDs, row.RequesterID)
		}
	}
	var counterparts []models.User
	if err := r.DB.Where("id IN ?", counterpartIDs).Find(&counterparts).Error; err != nil {
		return nil, errors.Wrap(err, "could not load counterparts")
	}
	nameByID := make(map[uuid.UUID]string, len(counterparts))
	for _, u := range counterparts {
		nameByID[u.ID] = u.FullName
	}

	summaries := make([]models.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		counterpartID := row.ProviderID
		if row.ProviderID == userID {
			counterpartID = row.RequesterID
		}
		summaries = append(summaries, models.ConversationSummary{
			ID:              row.ID,
			Title:           row.Title,
			JobRef:          row.JobRef,
			CounterpartID:   counterpartID,
			CounterpartName: nameByID[counterpartID],
			LastMessage:     row.LastMessage,
			LastActivityAt:  row.LastActivityAt,
			UnreadCount:     unreadByConv[row.ID],
			State:           row.State,
		})
	}
	return summaries, nil
}

func (r *conversationRepo) FindParticipant(conversationID, userID uuid.UUID) (*models.ConversationParticipant, error) {
	var p models.ConversationParticipant
	err := r.DB.Where("conversation_id = ? AND user_id = ?", conversationID, userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *conversationRepo) SetParticipantState(conversationID, userID uuid.UUID, state string) error {
	res := r.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("state", state)
	if res.Error != nil {
		return errors.Wrap(res.Error, "could not update participant state")
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdvanceReadCursor moves the user's read cursor forward. The WHERE guard
// makes the move monotonic at the storage layer: a stale or backward
// request affects zero rows and reports moved=false.
func (r *conversationRepo) AdvanceReadCursor(conversationID, userID uuid.UUID, seq uint64, at time.Time) (bool, error) {
	res := r.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND last_read_seq < ?", conversationID, userID, seq).
		Updates(map[string]interface{}{
			"last_read_seq": seq,
			"last_read_at":  at,
		})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "could not advance read cursor")
	}
	return res.RowsAffected > 0, nil
}

// SetTyping is last-write-wins; readers apply the staleness TTL themselves.
func (r *conversationRepo) SetTyping(conversationID, userID uuid.UUID, isTyping bool, at time.Time) error {
	return r.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]interface{}{
			"is_typing":         isTyping,
			"typing_updated_at": at,
		}).Error
}

func (r *conversationRepo) UnreadCount(conversationID, userID uuid.UUID) (int64, error) {
	p, err := r.FindParticipant(conversationID, userID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND deleted = ? AND seq > ?",
			conversationID, userID, false, p.LastReadSeq).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "could not count unread messages")
	}
	return count, nil
}

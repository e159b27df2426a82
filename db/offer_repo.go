package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushrhq/messaging/models"
	"gorm.io/gorm"
)

// OfferRepository interface
type OfferRepository interface {
	GetByID(id uuid.UUID) (*models.Offer, error)
	Transition(id uuid.UUID, fromStatus string, updates map[string]interface{}) (bool, error)
	ExpireOpenBefore(now time.Time) (int64, error)
}

// offerRepo struct
type offerRepo struct {
	DB *gorm.DB
}

// NewOfferRepo creates a new instance of OfferRepository
func NewOfferRepo(db *GormDB) OfferRepository {
	return &offerRepo{db.DB}
}

func (r *offerRepo) GetByID(id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.DB.Where("id = ?", id).First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// Transition applies a state change as a conditional update: the row is
// touched only if its status still matches fromStatus. When two responses
// race, exactly one matches and wins; the loser sees moved=false and no
// state in the database ever reflects both. This is the storage-level
// guard the offer state machine relies on -- no application lock exists.
func (r *offerRepo) Transition(id uuid.UUID, fromStatus string, updates map[string]interface{}) (bool, error) {
	res := r.DB.Model(&models.Offer{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "could not transition offer")
	}
	return res.RowsAffected > 0, nil
}

// ExpireOpenBefore moves every still-open offer whose deadline has passed
// to expired. Driven by the external scheduler; uses the same conditional
// WHERE so it can never clobber a response that landed first.
func (r *offerRepo) ExpireOpenBefore(now time.Time) (int64, error) {
	res := r.DB.Model(&models.Offer{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at < ?",
			[]string{models.OfferPending, models.OfferCountered}, now).
		Update("status", models.OfferExpired)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "could not expire offers")
	}
	return res.RowsAffected, nil
}

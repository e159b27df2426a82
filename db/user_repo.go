package db

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushrhq/messaging/models"
	"gorm.io/gorm"
)

// UserRepository interface
type UserRepository interface {
	CreateUser(user *models.User) error
	FindUserByID(id uuid.UUID) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	UpdateDeviceToken(id uuid.UUID, token string) error
}

// userRepo struct
type userRepo struct {
	DB *gorm.DB
}

// NewUserRepo creates a new instance of UserRepository
func NewUserRepo(db *GormDB) UserRepository {
	return &userRepo{db.DB}
}

func (r *userRepo) CreateUser(user *models.User) error {
	if err := r.DB.Create(user).Error; err != nil {
		return errors.Wrap(err, "could not create user")
	}
	return nil
}

func (r *userRepo) FindUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UpdateDeviceToken(id uuid.UUID, token string) error {
	return r.DB.Model(&models.User{}).Where("id = ?", id).Update("device_token", token).Error
}

package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/group-chat-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateProfile is returned when creating a profile fails inside the signup transaction.
	ErrCreateProfile = errors.New("user repository: create profile failed")
	// ErrReassign is returned when handing a deleted user's rows to the sentinel fails.
	ErrReassign = errors.New("user repository: reassign to sentinel failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateWithProfile creates a user and their profile atomically.
func (r *GormUserRepository) CreateWithProfile(user *models.User, profile *models.Profile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateProfile, err)
		}

		user.Profile = profile
		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureSentinel returns the "deleted" account, creating it on first use.
func (r *GormUserRepository) EnsureSentinel() (*models.User, error) {
	var user models.User
	if err := r.db.Where(models.User{Email: models.SentinelEmail}).
		Attrs(models.User{PasswordHash: models.UnusablePasswordPrefix}).
		FirstOrCreate(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps LastLogin with the current time
func (r *GormUserRepository) UpdateLastLogin(user *models.User) error {
	now := time.Now()
	if err := r.db.Model(user).Update("last_login", now).Error; err != nil {
		return err
	}
	user.LastLogin = &now
	return nil
}

// DeleteReassigning moves authored groups and messages to the sentinel and
// deletes the user in one transaction.
func (r *GormUserRepository) DeleteReassigning(userID, sentinelID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Group{}).
			Where("creator_id = ?", userID).
			Update("creator_id", sentinelID).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrReassign, err)
		}

		if err := tx.Model(&models.Message{}).
			Where("user_id = ?", userID).
			Update("user_id", sentinelID).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrReassign, err)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Profile{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.User{}, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

package repository

import (
	"github.com/yukikurage/group-chat-api/internal/models"
	"gorm.io/gorm"
)

// GormProfileRepository is a GORM implementation of ProfileRepository
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByUserID finds the profile of a user
func (r *GormProfileRepository) FindByUserID(userID uint64) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByGroupID finds the profile of a group
func (r *GormProfileRepository) FindByGroupID(groupID uint64) (*models.GroupProfile, error) {
	var profile models.GroupProfile
	if err := r.db.Where("group_id = ?", groupID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile inserts or updates a user profile
func (r *GormProfileRepository) SaveProfile(profile *models.Profile) error {
	return r.db.Omit("User").Save(profile).Error
}

// SaveGroupProfile inserts or updates a group profile
func (r *GormProfileRepository) SaveGroupProfile(profile *models.GroupProfile) error {
	return r.db.Omit("Group").Save(profile).Error
}

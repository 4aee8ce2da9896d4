package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/group-chat-api/internal/models"
	"gorm.io/gorm"
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateGroup is returned when creating a group fails inside the create transaction.
	ErrCreateGroup = errors.New("group repository: create group failed")
	// ErrCreateGroupProfile is returned when creating a group profile fails inside the create transaction.
	ErrCreateGroupProfile = errors.New("group repository: create group profile failed")
	// ErrCreateGroupMember is returned when creating the creator's membership fails inside the create transaction.
	ErrCreateGroupMember = errors.New("group repository: create group member failed")
)

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

// CreateWithProfile creates a group, its profile and the creator's membership atomically.
func (r *GormGroupRepository) CreateWithProfile(group *models.Group, profile *models.GroupProfile, member *models.GroupMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Creator", "Members", "Messages", "Profile").Create(group).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateGroup, err)
		}

		profile.GroupID = group.ID
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateGroupProfile, err)
		}

		member.GroupID = group.ID
		if err := tx.Omit("Group", "User").Create(member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateGroupMember, err)
		}

		group.Profile = profile
		return nil
	})
}

// FindByID finds a group by ID
func (r *GormGroupRepository) FindByID(id uint64) (*models.Group, error) {
	var group models.Group
	if err := r.db.First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByName finds a group by name with optional preloading
func (r *GormGroupRepository) FindByName(name string, preload ...string) (*models.Group, error) {
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}

	var group models.Group
	if err := query.Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// Update updates a group's own columns
func (r *GormGroupRepository) Update(group *models.Group) error {
	return r.db.Omit("Creator", "Members", "Messages", "Profile").Save(group).Error
}

// Delete deletes a group and all related data in a transaction
func (r *GormGroupRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Delete all messages in the group
		if err := tx.Where("group_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}

		if err := tx.Where("group_id = ?", id).Delete(&models.GroupProfile{}).Error; err != nil {
			return err
		}

		// Delete all members
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Group{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddMember adds a user to a group
func (r *GormGroupRepository) AddMember(member *models.GroupMember) error {
	return r.db.Omit("Group", "User").Create(member).Error
}

// RemoveMember removes a user from a group
func (r *GormGroupRepository) RemoveMember(groupID, userID uint64) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

// FindMember finds a specific membership
func (r *GormGroupRepository) FindMember(groupID, userID uint64) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a group
func (r *GormGroupRepository) ListMembers(groupID uint64) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := r.db.Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListGroupsForUser lists the groups a user belongs to, ordered by name
func (r *GormGroupRepository) ListGroupsForUser(userID uint64) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.Preload("Profile").
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.name ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

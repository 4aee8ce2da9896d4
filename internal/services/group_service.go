package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/group-chat-api/internal/constants"
	"github.com/yukikurage/group-chat-api/internal/models"
	"github.com/yukikurage/group-chat-api/internal/repository"
	"github.com/yukikurage/group-chat-api/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrInvalidGroupName    = errors.New("group name must be 1-20 letters, numbers, hyphens or underscores")
	ErrGroupNameTaken      = errors.New("group name already exists")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrAlreadyGroupMember  = errors.New("user is already a member of this group")
	ErrGroupMemberNotFound = errors.New("user is not a member of this group")
	ErrNotGroupCreator     = errors.New("only the group creator can do this")
)

// GroupService provides business logic for group operations.
type GroupService struct {
	groupRepo repository.GroupRepository
}

// NewGroupService creates a new GroupService.
func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
	}
}

// CreateGroupInput represents parameters to create a new group.
type CreateGroupInput struct {
	Name        string
	Description *string
	CreatorID   uint64
}

// CreateGroup creates a group with its default profile and makes the
// creator its first member.
func (s *GroupService) CreateGroup(input CreateGroupInput) (*models.Group, error) {
	name := strings.TrimSpace(input.Name)
	if err := validation.ValidateSlug(name, constants.MaxGroupNameLength); err != nil {
		return nil, ErrInvalidGroupName
	}

	description, err := normalizeDescription(input.Description)
	if err != nil {
		return nil, err
	}

	if _, err := s.groupRepo.FindByName(name); err == nil {
		return nil, ErrGroupNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check group name: %w", err)
	}

	group := &models.Group{
		Name:        name,
		CreatorID:   input.CreatorID,
		Description: description,
	}
	profile := &models.GroupProfile{Image: constants.DefaultGroupImage}
	member := &models.GroupMember{
		UserID:   input.CreatorID,
		JoinedAt: time.Now(),
	}

	if err := s.groupRepo.CreateWithProfile(group, profile, member); err != nil {
		if errors.Is(err, repository.ErrCreateGroup) {
			return nil, fmt.Errorf("failed to create group: %w", err)
		}
		return nil, fmt.Errorf("failed to set up group: %w", err)
	}

	return group, nil
}

func normalizeDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > constants.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	return &trimmed, nil
}

// GetGroup returns a group with its creator, members and profile.
func (s *GroupService) GetGroup(name string) (*models.Group, error) {
	group, err := s.groupRepo.FindByName(name, "Creator", "Members.User", "Profile")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return group, nil
}

// FindGroup returns a group without relations.
func (s *GroupService) FindGroup(name string) (*models.Group, error) {
	group, err := s.groupRepo.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return group, nil
}

// ListGroupsForUser returns groups the user belongs to.
func (s *GroupService) ListGroupsForUser(userID uint64) ([]models.Group, error) {
	groups, err := s.groupRepo.ListGroupsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// GetMembership returns the membership of userID in groupID.
func (s *GroupService) GetMembership(groupID, userID uint64) (*models.GroupMember, error) {
	member, err := s.groupRepo.FindMember(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupMemberNotFound
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return member, nil
}

// JoinGroup adds a user to a group by name.
func (s *GroupService) JoinGroup(name string, userID uint64) (*models.Group, error) {
	group, err := s.FindGroup(name)
	if err != nil {
		return nil, err
	}

	if _, err := s.groupRepo.FindMember(group.ID, userID); err == nil {
		return nil, ErrAlreadyGroupMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.GroupMember{
		GroupID:  group.ID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	if err := s.groupRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to join group: %w", err)
	}
	return group, nil
}

// LeaveGroup removes a user from a group. Their messages stay in the group.
func (s *GroupService) LeaveGroup(groupID, userID uint64) error {
	if _, err := s.GetMembership(groupID, userID); err != nil {
		return err
	}
	if err := s.groupRepo.RemoveMember(groupID, userID); err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}
	return nil
}

// UpdateDescription changes a group's description. Only the creator may do so.
func (s *GroupService) UpdateDescription(group *models.Group, actorID uint64, description *string) (*models.Group, error) {
	if group.CreatorID != actorID {
		return nil, ErrNotGroupCreator
	}

	normalized, err := normalizeDescription(description)
	if err != nil {
		return nil, err
	}

	group.Description = normalized
	if err := s.groupRepo.Update(group); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return group, nil
}

// DeleteGroup deletes a group together with its messages. Only the creator may do so.
func (s *GroupService) DeleteGroup(group *models.Group, actorID uint64) error {
	if group.CreatorID != actorID {
		return ErrNotGroupCreator
	}
	if err := s.groupRepo.Delete(group.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

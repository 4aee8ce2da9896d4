package repository

import (
	"github.com/yukikurage/group-chat-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithProfile creates a user and their profile within a single transaction.
	CreateWithProfile(user *models.User, profile *models.Profile) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// EnsureSentinel returns the placeholder account, creating it if needed
	EnsureSentinel() (*models.User, error)

	// UpdateLastLogin stamps the user's last successful login
	UpdateLastLogin(user *models.User) error

	// DeleteReassigning hands the user's groups and messages to the sentinel
	// account and then deletes the user, profile and memberships.
	DeleteReassigning(userID, sentinelID uint64) error
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	// CreateWithProfile creates a group, its profile and the creator's
	// membership within a single transaction.
	CreateWithProfile(group *models.Group, profile *models.GroupProfile, member *models.GroupMember) error

	// FindByID finds a group by ID
	FindByID(id uint64) (*models.Group, error)

	// FindByName finds a group by its unique name with optional preloading
	FindByName(name string, preload ...string) (*models.Group, error)

	// Update updates a group
	Update(group *models.Group) error

	// Delete deletes a group and all of its messages, profile and memberships
	Delete(id uint64) error

	// AddMember adds a user to a group
	AddMember(member *models.GroupMember) error

	// RemoveMember removes a user from a group
	RemoveMember(groupID, userID uint64) error

	// FindMember finds a specific membership
	FindMember(groupID, userID uint64) (*models.GroupMember, error)

	// ListMembers lists all members of a group
	ListMembers(groupID uint64) ([]models.GroupMember, error)

	// ListGroupsForUser lists the groups a user belongs to
	ListGroupsForUser(userID uint64) ([]models.Group, error)
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	// Create creates a new message
	Create(message *models.Message) error

	// CountByGroup counts the messages posted to a group
	CountByGroup(groupID uint64) (int64, error)

	// ListWindow returns limit messages of a group starting at offset, in
	// ascending posting order.
	ListWindow(groupID uint64, offset, limit int) ([]models.Message, error)
}

// ProfileRepository defines the interface for user and group profile data access
type ProfileRepository interface {
	// FindByUserID finds the profile of a user
	FindByUserID(userID uint64) (*models.Profile, error)

	// FindByGroupID finds the profile of a group
	FindByGroupID(groupID uint64) (*models.GroupProfile, error)

	// SaveProfile inserts or updates a user profile
	SaveProfile(profile *models.Profile) error

	// SaveGroupProfile inserts or updates a group profile
	SaveGroupProfile(profile *models.GroupProfile) error
}

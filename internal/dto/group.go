package dto

import (
	"time"

	"github.com/yukikurage/group-chat-api/internal/models"
)

// GroupDTO represents a group in API responses
type GroupDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatorID   uint64    `json:"creator_id"`
	Image       string    `json:"image,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupMemberDTO represents a member in a group
type GroupMemberDTO struct {
	User     UserDTO   `json:"user"`
	JoinedAt time.Time `json:"joined_at"`
}

// GroupDetailDTO represents detailed group information
type GroupDetailDTO struct {
	GroupDTO
	Creator UserDTO          `json:"creator"`
	Members []GroupMemberDTO `json:"members"`
}

// GroupImageDTO is returned after a group image upload
type GroupImageDTO struct {
	Group    string `json:"group"`
	Image    string `json:"image"`
	ImageURL string `json:"image_url"`
}

// ToGroupDTO converts a group to DTO; the image is included when the
// profile was loaded.
func ToGroupDTO(group models.Group) GroupDTO {
	res := GroupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatorID:   group.CreatorID,
		CreatedAt:   group.CreatedAt,
	}
	if group.Profile != nil {
		res.Image = group.Profile.Image
		res.ImageURL = MediaURL(group.Profile.Image)
	}
	return res
}

// ToGroupDetailDTO converts a group with creator and members to DTO
func ToGroupDetailDTO(group models.Group) GroupDetailDTO {
	members := make([]GroupMemberDTO, len(group.Members))
	for i, member := range group.Members {
		members[i] = GroupMemberDTO{
			User:     ToAuthorDTO(member.User),
			JoinedAt: member.JoinedAt,
		}
	}

	return GroupDetailDTO{
		GroupDTO: ToGroupDTO(group),
		Creator:  ToAuthorDTO(group.Creator),
		Members:  members,
	}
}

// ToGroupImageDTO converts a group profile to DTO
func ToGroupImageDTO(group models.Group, profile models.GroupProfile) GroupImageDTO {
	return GroupImageDTO{
		Group:    group.Name,
		Image:    profile.Image,
		ImageURL: MediaURL(profile.Image),
	}
}

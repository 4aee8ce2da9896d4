package dto

import (
	"time"

	"github.com/yukikurage/group-chat-api/internal/models"
)

// MediaPrefix is the URL prefix under which stored images are served.
const MediaPrefix = "/media/"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64     `json:"id"`
	Email       string     `json:"email"`
	IsSuperuser bool       `json:"is_superuser,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// ProfileDTO represents a user profile in API responses
type ProfileDTO struct {
	User     UserDTO `json:"user"`
	Bio      *string `json:"bio"`
	Image    string  `json:"image"`
	ImageURL string  `json:"image_url"`
}

// ToUserDTO converts a user model to DTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		IsSuperuser: user.IsSuperuser,
		LastLogin:   user.LastLogin,
	}
}

// ToAuthorDTO is ToUserDTO without account details
func ToAuthorDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
	}
}

// ToProfileDTO converts a profile and its user to DTO
func ToProfileDTO(user models.User, profile models.Profile) ProfileDTO {
	return ProfileDTO{
		User:     ToUserDTO(user),
		Bio:      profile.Bio,
		Image:    profile.Image,
		ImageURL: MediaURL(profile.Image),
	}
}

// MediaURL returns the public URL of a stored image
func MediaURL(p string) string {
	return MediaPrefix + p
}

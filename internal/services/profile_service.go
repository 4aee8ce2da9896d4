package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/group-chat-api/internal/constants"
	"github.com/yukikurage/group-chat-api/internal/models"
	"github.com/yukikurage/group-chat-api/internal/repository"
	"github.com/yukikurage/group-chat-api/internal/storage"
	"github.com/yukikurage/group-chat-api/internal/thumbnail"
	"github.com/yukikurage/group-chat-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrBioTooLong      = errors.New("bio too long")
	ErrInvalidFilename = errors.New("invalid file name")
)

// ProfileService manages user and group profiles and their images.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	store       storage.Storage
	normalizer  *thumbnail.Normalizer
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profileRepo repository.ProfileRepository, store storage.Storage, normalizer *thumbnail.Normalizer) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		store:       store,
		normalizer:  normalizer,
	}
}

// GetProfile returns the profile of a user.
func (s *ProfileService) GetProfile(userID uint64) (*models.Profile, error) {
	profile, err := s.profileRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return profile, nil
}

// GetGroupProfile returns the profile of a group.
func (s *ProfileService) GetGroupProfile(groupID uint64) (*models.GroupProfile, error) {
	profile, err := s.profileRepo.FindByGroupID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find group profile: %w", err)
	}
	return profile, nil
}

// UpdateBio replaces the user's bio; nil or blank clears it.
func (s *ProfileService) UpdateBio(userID uint64, bio *string) (*models.Profile, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	profile.Bio = nil
	if bio != nil {
		trimmed := strings.TrimSpace(*bio)
		if utf8.RuneCountInString(trimmed) > constants.MaxDescriptionLength {
			return nil, ErrBioTooLong
		}
		if trimmed != "" {
			profile.Bio = &trimmed
		}
	}

	if err := s.profileRepo.SaveProfile(profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// UpdateProfileImage stores an uploaded image under the user's directory,
// saves the profile, drops the image it replaced and then normalizes the
// stored image. A
// *thumbnail.DecodeError is returned together with the already saved profile.
func (s *ProfileService) UpdateProfileImage(ctx context.Context, user *models.User, filename string, r io.Reader) (*models.Profile, error) {
	profile, err := s.GetProfile(user.ID)
	if err != nil {
		return nil, err
	}

	name := utils.SanitizeFilename(filename)
	if name == "" {
		return nil, ErrInvalidFilename
	}

	p, err := s.saveUpload(ctx, models.ProfileImagePath(user.Email, name), r)
	if err != nil {
		return nil, err
	}

	previous := profile.Image
	profile.Image = p
	if err := s.profileRepo.SaveProfile(profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.removeReplaced(ctx, previous, p)

	if _, err := s.normalizer.Normalize(ctx, p); err != nil {
		return profile, err
	}
	return profile, nil
}

// UpdateGroupImage is UpdateProfileImage for a group. Only the creator may
// change the group image.
func (s *ProfileService) UpdateGroupImage(ctx context.Context, group *models.Group, actorID uint64, filename string, r io.Reader) (*models.GroupProfile, error) {
	if group.CreatorID != actorID {
		return nil, ErrNotGroupCreator
	}

	profile, err := s.GetGroupProfile(group.ID)
	if err != nil {
		return nil, err
	}

	name := utils.SanitizeFilename(filename)
	if name == "" {
		return nil, ErrInvalidFilename
	}

	p, err := s.saveUpload(ctx, models.GroupImagePath(group.Name, name), r)
	if err != nil {
		return nil, err
	}

	previous := profile.Image
	profile.Image = p
	if err := s.profileRepo.SaveGroupProfile(profile); err != nil {
		return nil, fmt.Errorf("failed to update group profile: %w", err)
	}
	s.removeReplaced(ctx, previous, p)

	if _, err := s.normalizer.Normalize(ctx, p); err != nil {
		return profile, err
	}
	return profile, nil
}

// saveUpload writes r at the first free name derived from p.
func (s *ProfileService) saveUpload(ctx context.Context, p string, r io.Reader) (string, error) {
	p, err := utils.AvailableName(p, func(candidate string) (bool, error) {
		return s.store.Exists(ctx, candidate)
	})
	if err != nil {
		return "", fmt.Errorf("failed to pick image name: %w", err)
	}
	if err := storage.Save(ctx, s.store, p, r); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return p, nil
}

// removeReplaced deletes a previous upload once no profile points at it.
// Shared default images are never removed. Failures leave an orphaned blob.
func (s *ProfileService) removeReplaced(ctx context.Context, previous, current string) {
	if previous == "" || previous == current ||
		previous == constants.DefaultProfileImage || previous == constants.DefaultGroupImage {
		return
	}
	_ = s.store.Delete(ctx, previous)
}

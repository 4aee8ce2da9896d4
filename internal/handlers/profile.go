package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/group-chat-api/internal/dto"
	apierrors "github.com/yukikurage/group-chat-api/internal/errors"
	"github.com/yukikurage/group-chat-api/internal/logging"
	"github.com/yukikurage/group-chat-api/internal/middleware"
	"github.com/yukikurage/group-chat-api/internal/services"
	"github.com/yukikurage/group-chat-api/internal/thumbnail"
	"github.com/yukikurage/group-chat-api/internal/validation"
)

const imageFormField = "image"

type ProfileHandler struct {
	profileService *services.ProfileService
	authService    *services.AuthService
	maxUploadBytes int64
	logger         logrus.FieldLogger
}

func NewProfileHandler(profileService *services.ProfileService, authService *services.AuthService, maxUploadMB int, logger logrus.FieldLogger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		authService:    authService,
		maxUploadBytes: int64(maxUploadMB) << 20,
		logger:         logger,
	}
}

// GetProfile returns the current user's profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	profile, err := h.profileService.GetProfile(userID)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user, *profile))
}

// UpdateProfile changes the current user's bio
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProfileRequest struct {
		Bio *string `json:"bio" binding:"omitempty,max=300"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", validation.ToDetails(err))
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	profile, err := h.profileService.UpdateBio(userID, req.Bio)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user, *profile))
}

// UploadProfileImage replaces the current user's image with the multipart
// "image" field. Oversized images are stored as 300x300-bounded PNGs.
func (h *ProfileHandler) UploadProfileImage(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	fh, ok := h.formImage(c)
	if !ok {
		return
	}
	file, err := fh.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	profile, err := h.profileService.UpdateProfileImage(c.Request.Context(), user, fh.Filename, file)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user, *profile))
}

// UploadGroupImage replaces the group's image. Only the group creator may do so.
func (h *ProfileHandler) UploadGroupImage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	group, ok := middleware.GetGroup(c)
	if !ok {
		apierrors.InternalError(c, "Group context missing")
		return
	}

	fh, ok := h.formImage(c)
	if !ok {
		return
	}
	file, err := fh.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	profile, err := h.profileService.UpdateGroupImage(c.Request.Context(), group, userID, fh.Filename, file)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupImageDTO(*group, *profile))
}

// formImage extracts the uploaded image, enforcing the size limit.
func (h *ProfileHandler) formImage(c *gin.Context) (*multipart.FileHeader, bool) {
	if c.Request.ContentLength > h.maxUploadBytes {
		apierrors.PayloadTooLarge(c, fmt.Sprintf("Image must be at most %d bytes", h.maxUploadBytes))
		return nil, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fh, err := c.FormFile(imageFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(c, fmt.Sprintf("Image must be at most %d bytes", h.maxUploadBytes))
			return nil, false
		}
		apierrors.BadRequest(c, "An image file is required in the \"image\" field")
		return nil, false
	}
	return fh, true
}

func (h *ProfileHandler) respondProfileError(c *gin.Context, err error) {
	switch {
	case thumbnail.IsDecodeError(err):
		logging.LogError(h.logger, "uploaded image could not be decoded", err, nil)
		apierrors.UnprocessableImage(c, "")
	case errors.Is(err, services.ErrInvalidFilename),
		errors.Is(err, services.ErrBioTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotGroupCreator):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrProfileNotFound):
		apierrors.NotFound(c, "Profile not found")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		logging.LogError(h.logger, "profile request failed", err, nil)
		apierrors.InternalError(c, "")
	}
}

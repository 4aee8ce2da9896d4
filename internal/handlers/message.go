package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/group-chat-api/internal/constants"
	"github.com/yukikurage/group-chat-api/internal/dto"
	apierrors "github.com/yukikurage/group-chat-api/internal/errors"
	"github.com/yukikurage/group-chat-api/internal/logging"
	"github.com/yukikurage/group-chat-api/internal/middleware"
	"github.com/yukikurage/group-chat-api/internal/services"
	"github.com/yukikurage/group-chat-api/internal/utils"
	"github.com/yukikurage/group-chat-api/internal/validation"
)

type MessageHandler struct {
	messageService *services.MessageService
	authService    *services.AuthService
	aiService      *services.AIService
	logger         logrus.FieldLogger
}

// NewMessageHandler creates a MessageHandler. aiService may be nil, in which
// case the digest endpoint reports the feature as unavailable.
func NewMessageHandler(messageService *services.MessageService, authService *services.AuthService, aiService *services.AIService, logger logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		authService:    authService,
		aiService:      aiService,
		logger:         logger,
	}
}

// ListMessages returns one window of the group's history. ?page=0 is the
// newest 30 messages, ?page=1 the 30 before them, and so on.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	group, ok := middleware.GetGroup(c)
	if !ok {
		apierrors.InternalError(c, "Group context missing")
		return
	}

	page, ok := utils.GetPageParam(c)
	if !ok {
		apierrors.BadRequest(c, "page must be an integer")
		return
	}

	messages, err := h.messageService.Window(group, page)
	if err != nil {
		h.respondMessageError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageListResponse{
		Group:    group.Name,
		Page:     page,
		PageSize: constants.MessagePageSize,
		Messages: dto.ToMessageDTOs(messages),
	})
}

// PostMessage adds a message from the current user to the group
func (h *MessageHandler) PostMessage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	group, ok := middleware.GetGroup(c)
	if !ok {
		apierrors.InternalError(c, "Group context missing")
		return
	}

	type PostMessageRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", validation.ToDetails(err))
		return
	}

	message, err := h.messageService.PostMessage(group, userID, req.Text)
	if err != nil {
		h.respondMessageError(c, err)
		return
	}

	author, err := h.authService.GetUser(userID)
	if err != nil {
		h.respondMessageError(c, err)
		return
	}
	message.Author = *author

	c.JSON(http.StatusCreated, dto.ToMessageDTO(*message))
}

// Digest summarizes the latest window of messages with the AI service
func (h *MessageHandler) Digest(c *gin.Context) {
	group, ok := middleware.GetGroup(c)
	if !ok {
		apierrors.InternalError(c, "Group context missing")
		return
	}

	if h.aiService == nil {
		apierrors.ServiceUnavailable(c, "AI digest is not configured")
		return
	}

	messages, err := h.messageService.Window(group, 0)
	if err != nil {
		h.respondMessageError(c, err)
		return
	}

	digest, err := h.aiService.SummarizeMessages(c.Request.Context(), group, messages)
	if err != nil {
		logging.LogError(h.logger, "failed to summarize messages", err, logrus.Fields{"group": group.Name})
		apierrors.ServiceUnavailable(c, "Failed to generate digest")
		return
	}

	c.JSON(http.StatusOK, dto.DigestResponse{
		Group:        group.Name,
		MessageCount: len(messages),
		Digest:       digest,
	})
}

func (h *MessageHandler) respondMessageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidPage),
		errors.Is(err, services.ErrEmptyMessage):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrGroupNotFound):
		apierrors.NotFound(c, "Group not found")
	case errors.Is(err, services.ErrGroupMemberNotFound):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		logging.LogError(h.logger, "message request failed", err, nil)
		apierrors.InternalError(c, "")
	}
}

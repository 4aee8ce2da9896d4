package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/group-chat-api/internal/dto"
	apierrors "github.com/yukikurage/group-chat-api/internal/errors"
	"github.com/yukikurage/group-chat-api/internal/logging"
	"github.com/yukikurage/group-chat-api/internal/middleware"
	"github.com/yukikurage/group-chat-api/internal/services"
	"github.com/yukikurage/group-chat-api/internal/validation"
)

type GroupHandler struct {
	groupService *services.GroupService
	logger       logrus.FieldLogger
}

func NewGroupHandler(groupService *services.GroupService, logger logrus.FieldLogger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

// CreateGroup creates a new group owned by the current user
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateGroupRequest struct {
		Name        string  `json:"name" binding:"required,max=20,slug"`
		Description *string `json:"description" binding:"omitempty,max=300"`
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", validation.ToDetails(err))
		return
	}

	group, err := h.groupService.CreateGroup(services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   userID,
	})
	if err != nil {
		h.respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGroupDTO(*group))
}

// ListGroups returns all groups the user is a member of
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	groups, err := h.groupService.ListGroupsForUser(userID)
	if err != nil {
		h.respondGroupError(c, err)
		return
	}

	res := make([]dto.GroupDTO, len(groups))
	for i, g := range groups {
		res[i] = dto.ToGroupDTO(g)
	}
	c.JSON(http.StatusOK, res)
}

// GetGroup returns a group with its members
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupService.GetGroup(c.Param("name"))
	if err != nil {
		h.respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDetailDTO(*group))
}

// JoinGroup adds the current user to a group by name
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	group, err := h.groupService.JoinGroup(c.Param("name"), userID)
	if err != nil {
		h.respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group))
}

// LeaveGroup removes the current user from the group
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	group, ok := middleware.GetGroup(c)
	if !ok {
		apierrors.InternalError(c, "Group context missing")
		return
	}

	if err := h.groupService.LeaveGroup(group.ID, userID); err != nil {
		h.respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Left group successfully",
	})
}

// UpdateGroup changes the group description
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	group, ok := middleware.GetGroup(c)
	if !ok {
		apierrors.InternalError(c, "Group context missing")
		return
	}

	type UpdateGroupRequest struct {
		Description *string `json:"description" binding:"omitempty,max=300"`
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", validation.ToDetails(err))
		return
	}

	updated, err := h.groupService.UpdateDescription(group, userID, req.Description)
	if err != nil {
		h.respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*updated))
}

// DeleteGroup deletes the group and all of its messages
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	group, ok := middleware.GetGroup(c)
	if !ok {
		apierrors.InternalError(c, "Group context missing")
		return
	}

	if err := h.groupService.DeleteGroup(group, userID); err != nil {
		h.respondGroupError(c, err)
		return
	}

	logging.LogInfo(h.logger, "group deleted", logrus.Fields{"group": group.Name, "user_id": userID})
	c.Status(http.StatusNoContent)
}

func (h *GroupHandler) respondGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidGroupName),
		errors.Is(err, services.ErrDescriptionTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrGroupNameTaken),
		errors.Is(err, services.ErrAlreadyGroupMember):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrGroupNotFound):
		apierrors.NotFound(c, "Group not found")
	case errors.Is(err, services.ErrGroupMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotGroupCreator):
		apierrors.Forbidden(c, err.Error())
	default:
		logging.LogError(h.logger, "group request failed", err, nil)
		apierrors.InternalError(c, "")
	}
}

package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/group-chat-api/internal/constants"
	apierrors "github.com/yukikurage/group-chat-api/internal/errors"
	"github.com/yukikurage/group-chat-api/internal/models"
	"github.com/yukikurage/group-chat-api/internal/services"
)

// RequireGroupMember loads the group named by the :name parameter and checks
// that the current user belongs to it.
func RequireGroupMember(groupService *services.GroupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		group, err := groupService.FindGroup(c.Param("name"))
		if err != nil {
			if errors.Is(err, services.ErrGroupNotFound) {
				apierrors.NotFound(c, "Group not found")
				return
			}
			apierrors.InternalError(c, "Failed to load group")
			return
		}

		member, err := groupService.GetMembership(group.ID, userID)
		if err != nil {
			if errors.Is(err, services.ErrGroupMemberNotFound) {
				// 404 rather than 403 so non-members cannot discover group names
				apierrors.NotFound(c, "Group not found")
				return
			}
			apierrors.InternalError(c, "Failed to check membership")
			return
		}

		c.Set(constants.ContextKeyGroup, group)
		c.Set(constants.ContextKeyGroupMember, member)
		c.Next()
	}
}

// GetGroup returns the group stored by RequireGroupMember.
func GetGroup(c *gin.Context) (*models.Group, bool) {
	v, exists := c.Get(constants.ContextKeyGroup)
	if !exists {
		return nil, false
	}
	group, ok := v.(*models.Group)
	return group, ok
}

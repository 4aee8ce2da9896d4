package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/group-chat-api/internal/errors"
	"github.com/yukikurage/group-chat-api/internal/logging"
	"github.com/yukikurage/group-chat-api/internal/storage"
)

// MediaHandler serves stored images.
type MediaHandler struct {
	store  storage.Storage
	logger logrus.FieldLogger
}

func NewMediaHandler(store storage.Storage, logger logrus.FieldLogger) *MediaHandler {
	return &MediaHandler{store: store, logger: logger}
}

// Serve streams the blob named by the *path parameter.
func (h *MediaHandler) Serve(c *gin.Context) {
	p, err := storage.CleanPath(strings.TrimPrefix(c.Param("path"), "/"))
	if err != nil {
		apierrors.NotFound(c, "")
		return
	}

	data, err := storage.ReadAll(c.Request.Context(), h.store, p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			apierrors.NotFound(c, "")
			return
		}
		logging.LogError(h.logger, "failed to read media", err, logrus.Fields{"path": p})
		apierrors.InternalError(c, "")
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

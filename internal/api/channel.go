package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/internal/auth"
	"github.com/ShazeRx/pigeon-app/internal/service"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

// pathID reads a numeric path parameter. Non-numeric ids read as a
// missing resource, not a client error.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, &apperror.AppError{Err: apperror.ErrNotFound, Message: "Not found"})
		return 0, false
	}
	return id, true
}

// ChannelHandler exposes channel CRUD and membership endpoints
type ChannelHandler struct {
	channels *service.ChannelService
	logger   *zap.Logger
}

// NewChannelHandler creates a ChannelHandler
func NewChannelHandler(channelSvc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{
		channels: channelSvc,
		logger:   logging.GetLogger().With(zap.String("component", "channel-handler")),
	}
}

// List handles GET /api/channels/
func (h *ChannelHandler) List(c *gin.Context) {
	page, size := pageQuery(c, "channel_size", channelPageSize, channelPageMax)
	details, count, err := h.channels.List(c.Request.Context(), auth.CurrentUserID(c), (page-1)*size, size)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope(c.Request, count, page, size, channelViews(details)))
}

// Create handles POST /api/channels/
func (h *ChannelHandler) Create(c *gin.Context) {
	var in service.ChannelInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	detail, err := h.channels.Create(c.Request.Context(), auth.CurrentUserID(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, channelView(detail))
}

// Get handles GET /api/channels/:id/
func (h *ChannelHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.channels.Get(c.Request.Context(), id, auth.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, channelView(detail))
}

// Update handles PATCH /api/channels/:id/
func (h *ChannelHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.ChannelInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	detail, err := h.channels.Update(c.Request.Context(), id, auth.CurrentUserID(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, channelView(detail))
}

// Delete handles DELETE /api/channels/:id/
func (h *ChannelHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.channels.Delete(c.Request.Context(), id, auth.CurrentUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type joinRequest struct {
	Password string `json:"password"`
}

// Join handles POST /api/channels/:id/authenticate/
func (h *ChannelHandler) Join(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in joinRequest
	// An empty body is fine for public channels.
	_ = c.ShouldBindJSON(&in)

	if err := h.channels.Join(c.Request.Context(), id, auth.CurrentUserID(c), in.Password); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Authenticated"})
}

// Leave handles POST /api/channels/:id/unauthenticate/
func (h *ChannelHandler) Leave(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.channels.Leave(c.Request.Context(), id, auth.CurrentUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unauthenticated"})
}

// RegeneratePassword handles GET /api/channels/:id/generate_password/
func (h *ChannelHandler) RegeneratePassword(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	password, err := h.channels.RegeneratePassword(c.Request.Context(), id, auth.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"password": password})
}

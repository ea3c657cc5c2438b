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

// PostHandler exposes post CRUD and the like toggle
type PostHandler struct {
	posts  *service.PostService
	logger *zap.Logger
}

// NewPostHandler creates a PostHandler
func NewPostHandler(postSvc *service.PostService) *PostHandler {
	return &PostHandler{
		posts:  postSvc,
		logger: logging.GetLogger().With(zap.String("component", "post-handler")),
	}
}

// channelQuery reads the optional ?channel= scope
func channelQuery(c *gin.Context) (*int64, error) {
	raw := c.Query("channel")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperror.ValidationFailed("channel", "Invalid channel id")
	}
	return &id, nil
}

// List handles GET /api/posts/?channel=id
func (h *PostHandler) List(c *gin.Context) {
	channelID, err := channelQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	page, size := pageQuery(c, "post_size", postPageSize, postPageMax)
	details, count, err := h.posts.List(c.Request.Context(), auth.CurrentUserID(c), channelID, (page-1)*size, size)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope(c.Request, count, page, size, postViews(details)))
}

// Create handles POST /api/posts/?channel=id
func (h *PostHandler) Create(c *gin.Context) {
	channelID, err := channelQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var in service.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	detail, err := h.posts.Create(c.Request.Context(), auth.CurrentUserID(c), channelID, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, postView(detail))
}

// Get handles GET /api/posts/:id/
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.posts.Get(c.Request.Context(), id, auth.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, postView(detail))
}

// Update handles PATCH /api/posts/:id/
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	detail, err := h.posts.Update(c.Request.Context(), id, auth.CurrentUserID(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, postView(detail))
}

// Delete handles DELETE /api/posts/:id/. Answers 200, not 204.
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), id, auth.CurrentUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// ToggleLike handles POST /api/posts/:id/like/. Liking answers 200,
// unliking answers 204.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	liked, err := h.posts.ToggleLike(c.Request.Context(), id, auth.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if liked {
		c.JSON(http.StatusOK, gin.H{"message": "liked"})
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/internal/auth"
	"github.com/ShazeRx/pigeon-app/internal/service"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

// CommentHandler exposes per-post comment endpoints
type CommentHandler struct {
	comments *service.CommentService
	logger   *zap.Logger
}

// NewCommentHandler creates a CommentHandler
func NewCommentHandler(commentSvc *service.CommentService) *CommentHandler {
	return &CommentHandler{
		comments: commentSvc,
		logger:   logging.GetLogger().With(zap.String("component", "comment-handler")),
	}
}

// List handles GET /api/posts/:id/comments/
func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, size := pageQuery(c, "comment_size", commentPageSize, commentPageMax)
	details, count, err := h.comments.List(c.Request.Context(), postID, (page-1)*size, size)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope(c.Request, count, page, size, commentViews(details)))
}

// Create handles POST /api/posts/:id/comments/
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	detail, err := h.comments.Add(c.Request.Context(), postID, auth.CurrentUserID(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentView(detail))
}

// Update handles PATCH /api/posts/:id/comments/:cid/
func (h *CommentHandler) Update(c *gin.Context) {
	commentID, ok := pathID(c, "cid")
	if !ok {
		return
	}
	var in service.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	detail, err := h.comments.Update(c.Request.Context(), commentID, auth.CurrentUserID(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentView(detail))
}

// Delete handles DELETE /api/posts/:id/comments/:cid/
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := pathID(c, "cid")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), commentID, auth.CurrentUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

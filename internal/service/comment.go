package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/internal/models"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

// CommentInput is the write model for comment create/update
type CommentInput struct {
	Body string `json:"body"`
}

// CommentDetail pairs a comment with its author
type CommentDetail struct {
	Comment *models.Comment
	Author  *models.User
}

// CommentService implements flat per-post comment threads
type CommentService struct {
	comments CommentRepo
	posts    PostRepo
	users    UserRepo
	logger   *zap.Logger
}

func NewCommentService(comments CommentRepo, posts PostRepo, users UserRepo) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
		logger:   logging.GetLogger().With(zap.String("component", "comment-service")),
	}
}

// Add attaches a comment to an existing post
func (s *CommentService) Add(ctx context.Context, postID, authorID int64, in CommentInput) (*CommentDetail, error) {
	if in.Body == "" {
		return nil, apperror.ValidationFailed("body", "Body must not be empty")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.NotFound("Post", postID)
	}

	comment := &models.Comment{
		Body:      in.Body,
		PostID:    postID,
		UserID:    sql.NullInt64{Int64: authorID, Valid: true},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("Comment added",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("post_id", postID),
	)
	return s.detail(ctx, comment)
}

// List returns a page of comments on a post in creation order, oldest
// first, plus the total count.
func (s *CommentService) List(ctx context.Context, postID int64, offset, limit int) ([]*CommentDetail, int64, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	if post == nil {
		return nil, 0, apperror.NotFound("Post", postID)
	}

	comments, err := s.comments.ListByPost(ctx, postID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.comments.CountByPost(ctx, postID)
	if err != nil {
		return nil, 0, err
	}

	details := make([]*CommentDetail, 0, len(comments))
	for _, comment := range comments {
		d, err := s.detail(ctx, comment)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, d)
	}
	return details, total, nil
}

// Update edits a comment body. Author only; violations map to 400 like
// the original's serializer validation.
func (s *CommentService) Update(ctx context.Context, commentID, requesterID int64, in CommentInput) (*CommentDetail, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, apperror.NotFound("Comment", commentID)
	}
	if !comment.UserID.Valid || comment.UserID.Int64 != requesterID {
		return nil, apperror.ValidationFailed("", "Only the author can modify this comment")
	}

	if in.Body != "" {
		comment.Body = in.Body
	}
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.detail(ctx, comment)
}

// Delete removes a comment. Author only.
func (s *CommentService) Delete(ctx context.Context, commentID, requesterID int64) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperror.NotFound("Comment", commentID)
	}
	if !comment.UserID.Valid || comment.UserID.Int64 != requesterID {
		return apperror.ValidationFailed("", "Only the author can modify this comment")
	}
	return s.comments.Delete(ctx, commentID)
}

func (s *CommentService) detail(ctx context.Context, comment *models.Comment) (*CommentDetail, error) {
	var author *models.User
	if comment.UserID.Valid {
		var err error
		author, err = s.users.GetByID(ctx, comment.UserID.Int64)
		if err != nil {
			return nil, err
		}
	}
	return &CommentDetail{Comment: comment, Author: author}, nil
}

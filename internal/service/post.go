package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/internal/cache"
	"github.com/ShazeRx/pigeon-app/internal/models"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

const globalFeedTTL = 30 * time.Second

// PostInput is the write model for post create/update
type PostInput struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Tags   []string `json:"tags"`
	Images []string `json:"images"`
}

// PostDetail is the assembled read model for a post
type PostDetail struct {
	Post          *models.Post
	Author        *models.User
	Tags          []*models.Tag
	Images        []*models.PostImage
	CommentsCount int64
	LikesCount    int64
}

// feedPage is the cacheable shape of a global feed page
type feedPage struct {
	PostIDs []int64 `json:"post_ids"`
	Total   int64   `json:"total"`
}

// PostService implements post CRUD with the channel authorization model,
// like toggling and the cached global feed.
type PostService struct {
	posts    PostRepo
	channels ChannelRepo
	users    UserRepo
	comments CommentRepo
	likes    LikeRepo
	images   ImageRepo
	linker   *TagLinker
	access   *ChannelService
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewPostService creates a PostService. The cache may be nil (disabled).
func NewPostService(posts PostRepo, channels ChannelRepo, users UserRepo, comments CommentRepo, likes LikeRepo, images ImageRepo, linker *TagLinker, access *ChannelService, c *cache.Cache) *PostService {
	return &PostService{
		posts:    posts,
		channels: channels,
		users:    users,
		comments: comments,
		likes:    likes,
		images:   images,
		linker:   linker,
		access:   access,
		cache:    c,
		logger:   logging.GetLogger().With(zap.String("component", "post-service")),
	}
}

// canMutate checks the post mutation rule: for channel posts the
// requester must be the author and still a member, or the channel owner;
// for global posts, the author only. Violations map to 400 like the
// original's serializer validation.
func (s *PostService) canMutate(ctx context.Context, post *models.Post, requesterID int64) error {
	isAuthor := post.AuthorID.Valid && post.AuthorID.Int64 == requesterID

	if post.IsGlobal() {
		if !isAuthor {
			return apperror.ValidationFailed("", "Only the author can modify this post")
		}
		return nil
	}

	channel, err := s.channels.GetByID(ctx, post.ChannelID.Int64)
	if err != nil {
		return err
	}
	if channel == nil {
		return apperror.ValidationFailed("channel", fmt.Sprintf("Channel not found with id %d", post.ChannelID.Int64))
	}

	if channel.OwnerID.Valid && channel.OwnerID.Int64 == requesterID {
		return nil
	}
	if isAuthor {
		member, err := s.channels.IsMember(ctx, channel.ID, requesterID)
		if err != nil {
			return err
		}
		if member {
			return nil
		}
	}
	return apperror.ValidationFailed("", "Only the author or the channel owner can modify this post")
}

// Create publishes a post. Channel posts require the author to be a
// member or the channel owner; global posts require no channel check.
func (s *PostService) Create(ctx context.Context, authorID int64, channelID *int64, in PostInput) (*PostDetail, error) {
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "Title must not be empty")
	}
	if in.Body == "" {
		return nil, apperror.ValidationFailed("body", "Body must not be empty")
	}

	post := &models.Post{
		Title:     in.Title,
		Body:      in.Body,
		AuthorID:  sql.NullInt64{Int64: authorID, Valid: true},
		CreatedAt: time.Now().UTC(),
	}

	if channelID != nil {
		channel, err := s.channels.GetByID(ctx, *channelID)
		if err != nil {
			return nil, err
		}
		if channel == nil {
			return nil, apperror.ValidationFailed("channel", fmt.Sprintf("Channel not found with id %d", *channelID))
		}
		role, err := s.access.roleOf(ctx, channel, authorID)
		if err != nil {
			return nil, err
		}
		if role < models.RoleMember {
			return nil, apperror.ValidationFailed("channel", s.access.notPartOfChannel(ctx, authorID, channel.ID))
		}
		post.ChannelID = sql.NullInt64{Int64: channel.ID, Valid: true}
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	if _, err := s.linker.LinkPost(ctx, post.ID, in.Tags); err != nil {
		return nil, err
	}
	for _, url := range in.Images {
		img := &models.PostImage{URL: url, PostID: post.ID}
		if err := s.images.CreatePostImage(ctx, img); err != nil {
			return nil, err
		}
	}

	s.invalidateGlobalFeed()
	s.logger.Info("Post created",
		zap.Int64("post_id", post.ID),
		zap.Int64("author_id", authorID),
		zap.Bool("global", post.IsGlobal()),
	)
	return s.detail(ctx, post)
}

// Get returns a post detail. Channel posts are gated on channel access.
func (s *PostService) Get(ctx context.Context, postID, requesterID int64) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.NotFound("Post", postID)
	}

	if !post.IsGlobal() {
		channel, err := s.channels.GetByID(ctx, post.ChannelID.Int64)
		if err != nil {
			return nil, err
		}
		if channel != nil {
			hasAccess, err := s.access.HasAccess(ctx, channel, requesterID)
			if err != nil {
				return nil, err
			}
			if !hasAccess {
				return nil, apperror.Unauthorized(s.access.notPartOfChannel(ctx, requesterID, channel.ID))
			}
		}
	}

	return s.detail(ctx, post)
}

// Update overwrites post fields and replaces its tag set. No edit
// history is kept; created_at is immutable.
func (s *PostService) Update(ctx context.Context, postID, requesterID int64, in PostInput) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.NotFound("Post", postID)
	}
	if err := s.canMutate(ctx, post, requesterID); err != nil {
		return nil, err
	}

	if in.Title != "" {
		post.Title = in.Title
	}
	if in.Body != "" {
		post.Body = in.Body
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	if in.Tags != nil {
		if _, err := s.linker.RelinkPost(ctx, post.ID, in.Tags); err != nil {
			return nil, err
		}
	}

	s.invalidateGlobalFeed()
	return s.detail(ctx, post)
}

// Delete removes a post and cascades to comments, likes and images
func (s *PostService) Delete(ctx context.Context, postID, requesterID int64) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return apperror.NotFound("Post", postID)
	}
	if err := s.canMutate(ctx, post, requesterID); err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}

	s.invalidateGlobalFeed()
	s.logger.Info("Post deleted", zap.Int64("post_id", postID))
	return nil
}

// List returns a page of posts plus the total count. With a channel id
// the requester must have channel access; the global feed is open to any
// authenticated user and served from cache when possible.
func (s *PostService) List(ctx context.Context, requesterID int64, channelID *int64, offset, limit int) ([]*PostDetail, int64, error) {
	if channelID != nil {
		channel, err := s.channels.GetByID(ctx, *channelID)
		if err != nil {
			return nil, 0, err
		}
		if channel == nil {
			return nil, 0, apperror.NotFound("Channel", *channelID)
		}
		hasAccess, err := s.access.HasAccess(ctx, channel, requesterID)
		if err != nil {
			return nil, 0, err
		}
		if !hasAccess {
			return nil, 0, apperror.Forbidden(s.access.notPartOfChannel(ctx, requesterID, channel.ID))
		}

		posts, err := s.posts.ListByChannel(ctx, *channelID, offset, limit)
		if err != nil {
			return nil, 0, err
		}
		total, err := s.posts.CountByChannel(ctx, *channelID)
		if err != nil {
			return nil, 0, err
		}
		return s.details(ctx, posts, total)
	}

	if page, ok := s.cachedGlobalFeed(ctx, offset, limit); ok {
		return page.details, page.total, nil
	}

	posts, err := s.posts.ListGlobal(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.posts.CountGlobal(ctx)
	if err != nil {
		return nil, 0, err
	}
	s.storeGlobalFeed(posts, total, offset, limit)
	return s.details(ctx, posts, total)
}

// ToggleLike flips the (user, post) like state. Returns true when the
// call created a like, false when it removed one.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return false, err
	}
	if post == nil {
		return false, apperror.NotFound("Post", postID)
	}

	existing, err := s.likes.Get(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.likes.Delete(ctx, existing.ID); err != nil {
			return false, err
		}
		return false, nil
	}

	like := &models.Like{UserID: userID, PostID: postID}
	if err := s.likes.Create(ctx, like); err != nil {
		return false, err
	}
	return true, nil
}

type cachedFeed struct {
	details []*PostDetail
	total   int64
}

// cachedGlobalFeed tries to serve a global feed page from Redis. The
// cache stores post ids, not assembled details, so likes/comments stay
// fresh up to the TTL only within the id set.
func (s *PostService) cachedGlobalFeed(ctx context.Context, offset, limit int) (*cachedFeed, bool) {
	key := s.feedKey(offset, limit)
	raw, err := s.cache.Get(key)
	if err != nil {
		return nil, false
	}
	var page feedPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, false
	}

	details := make([]*PostDetail, 0, len(page.PostIDs))
	for _, id := range page.PostIDs {
		post, err := s.posts.GetByID(ctx, id)
		if err != nil || post == nil {
			return nil, false
		}
		d, err := s.detail(ctx, post)
		if err != nil {
			return nil, false
		}
		details = append(details, d)
	}
	return &cachedFeed{details: details, total: page.Total}, true
}

func (s *PostService) storeGlobalFeed(posts []*models.Post, total int64, offset, limit int) {
	page := feedPage{Total: total, PostIDs: make([]int64, 0, len(posts))}
	for _, post := range posts {
		page.PostIDs = append(page.PostIDs, post.ID)
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.cache.Set(s.feedKey(offset, limit), string(raw), globalFeedTTL); err != nil && err != cache.ErrCacheDisabled {
		s.logger.Warn("Failed to cache global feed", zap.Error(err))
	}
}

func (s *PostService) invalidateGlobalFeed() {
	if err := s.cache.DeletePattern("posts:global:*"); err != nil && err != cache.ErrCacheDisabled {
		s.logger.Warn("Failed to invalidate global feed cache", zap.Error(err))
	}
}

// feedKey hashes the page coordinates under the invalidation prefix
func (s *PostService) feedKey(offset, limit int) string {
	return "posts:global:" + cache.HashKey("posts", "global", strconv.Itoa(offset), strconv.Itoa(limit))
}

func (s *PostService) details(ctx context.Context, posts []*models.Post, total int64) ([]*PostDetail, int64, error) {
	details := make([]*PostDetail, 0, len(posts))
	for _, post := range posts {
		d, err := s.detail(ctx, post)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, d)
	}
	return details, total, nil
}

// detail assembles the read model for a post
func (s *PostService) detail(ctx context.Context, post *models.Post) (*PostDetail, error) {
	tags, err := s.linker.tags.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	images, err := s.images.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	commentsCount, err := s.comments.CountByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	likesCount, err := s.likes.CountByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	var author *models.User
	if post.AuthorID.Valid {
		author, err = s.users.GetByID(ctx, post.AuthorID.Int64)
		if err != nil {
			return nil, err
		}
	}

	return &PostDetail{
		Post:          post,
		Author:        author,
		Tags:          tags,
		Images:        images,
		CommentsCount: commentsCount,
		LikesCount:    likesCount,
	}, nil
}

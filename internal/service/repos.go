// Package service holds the pigeon business logic: registration and
// token flows, the channel access-control model, post/comment/like CRUD
// with embedded authorization, and tag reconciliation.
package service

import (
	"context"

	"github.com/ShazeRx/pigeon-app/internal/models"
)

// Per-entity repository contracts. Services receive these explicitly —
// there is no ambient database session. internal/db provides the GORM
// implementations; tests provide in-memory fakes.

// UserRepo provides user persistence
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// ChannelRepo provides channel and membership persistence
type ChannelRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	List(ctx context.Context, offset, limit int) ([]*models.Channel, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, channel *models.Channel) error
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, channelID, userID int64) error
	RemoveMember(ctx context.Context, channelID, userID int64) error
	IsMember(ctx context.Context, channelID, userID int64) (bool, error)
	CountMembers(ctx context.Context, channelID int64) (int64, error)
	PasswordInUse(ctx context.Context, password string, excludeID int64) (bool, error)
}

// PostRepo provides post persistence
type PostRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByChannel(ctx context.Context, channelID int64, offset, limit int) ([]*models.Post, error)
	ListGlobal(ctx context.Context, offset, limit int) ([]*models.Post, error)
	CountByChannel(ctx context.Context, channelID int64) (int64, error)
	CountGlobal(ctx context.Context) (int64, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) error
}

// CommentRepo provides comment persistence
type CommentRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByPost(ctx context.Context, postID int64, offset, limit int) ([]*models.Comment, error)
	CountByPost(ctx context.Context, postID int64) (int64, error)
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int64) error
}

// LikeRepo provides like persistence
type LikeRepo interface {
	Get(ctx context.Context, userID, postID int64) (*models.Like, error)
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, id int64) error
	CountByPost(ctx context.Context, postID int64) (int64, error)
}

// TagRepo provides tag persistence and link management
type TagRepo interface {
	GetByNames(ctx context.Context, names []string) ([]*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	LinkPost(ctx context.Context, tagID, postID int64) error
	UnlinkPost(ctx context.Context, tagID, postID int64) error
	ListByPost(ctx context.Context, postID int64) ([]*models.Tag, error)
	LinkChannel(ctx context.Context, tagID, channelID int64) error
	UnlinkChannel(ctx context.Context, tagID, channelID int64) error
	ListByChannel(ctx context.Context, channelID int64) ([]*models.Tag, error)
}

// ImageRepo provides image reference persistence
type ImageRepo interface {
	CreatePostImage(ctx context.Context, image *models.PostImage) error
	ListByPost(ctx context.Context, postID int64) ([]*models.PostImage, error)
	CreateChannelImage(ctx context.Context, image *models.ChannelImage) error
	ListByChannel(ctx context.Context, channelID int64) ([]*models.ChannelImage, error)
}

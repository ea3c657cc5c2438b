package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ShazeRx/pigeon-app/internal/models"
)

// TagRepository provides tag-related database operations
type TagRepository struct {
	*Repository
}

// NewTagRepository creates a new tag repository
func NewTagRepository(repo *Repository) *TagRepository {
	return &TagRepository{Repository: repo}
}

// GetByNames retrieves tags whose name is in the given set
func (r *TagRepository) GetByNames(ctx context.Context, names []string) ([]*models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var tags []*models.Tag
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Create creates a new tag
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// LinkPost links a tag to a post. Linking twice is a no-op.
func (r *TagRepository) LinkPost(ctx context.Context, tagID, postID int64) error {
	var existing models.TagPost
	err := r.db.WithContext(ctx).
		Where("tag_id = ? AND post_id = ?", tagID, postID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(&models.TagPost{TagID: tagID, PostID: postID}).Error
}

// UnlinkPost removes a tag-to-post link
func (r *TagRepository) UnlinkPost(ctx context.Context, tagID, postID int64) error {
	return r.db.WithContext(ctx).
		Where("tag_id = ? AND post_id = ?", tagID, postID).
		Delete(&models.TagPost{}).Error
}

// ListByPost retrieves the tags linked to a post
func (r *TagRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := r.db.WithContext(ctx).
		Joins("JOIN pigeon_tag_posts ON pigeon_tag_posts.tag_id = pigeon_tags.id").
		Where("pigeon_tag_posts.post_id = ?", postID).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// LinkChannel links a tag to a channel. Linking twice is a no-op.
func (r *TagRepository) LinkChannel(ctx context.Context, tagID, channelID int64) error {
	var existing models.TagChannel
	err := r.db.WithContext(ctx).
		Where("tag_id = ? AND channel_id = ?", tagID, channelID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(&models.TagChannel{TagID: tagID, ChannelID: channelID}).Error
}

// UnlinkChannel removes a tag-to-channel link
func (r *TagRepository) UnlinkChannel(ctx context.Context, tagID, channelID int64) error {
	return r.db.WithContext(ctx).
		Where("tag_id = ? AND channel_id = ?", tagID, channelID).
		Delete(&models.TagChannel{}).Error
}

// ListByChannel retrieves the tags linked to a channel
func (r *TagRepository) ListByChannel(ctx context.Context, channelID int64) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := r.db.WithContext(ctx).
		Joins("JOIN pigeon_tag_channels ON pigeon_tag_channels.tag_id = pigeon_tags.id").
		Where("pigeon_tag_channels.channel_id = ?", channelID).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// ImageRepository provides image-related database operations
type ImageRepository struct {
	*Repository
}

// NewImageRepository creates a new image repository
func NewImageRepository(repo *Repository) *ImageRepository {
	return &ImageRepository{Repository: repo}
}

// CreatePostImage attaches an image reference to a post
func (r *ImageRepository) CreatePostImage(ctx context.Context, image *models.PostImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// ListByPost retrieves image references attached to a post
func (r *ImageRepository) ListByPost(ctx context.Context, postID int64) ([]*models.PostImage, error) {
	var images []*models.PostImage
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// CreateChannelImage attaches an image reference to a channel
func (r *ImageRepository) CreateChannelImage(ctx context.Context, image *models.ChannelImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// ListByChannel retrieves image references attached to a channel
func (r *ImageRepository) ListByChannel(ctx context.Context, channelID int64) ([]*models.ChannelImage, error) {
	var images []*models.ChannelImage
	if err := r.db.WithContext(ctx).Where("channel_id = ?", channelID).Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

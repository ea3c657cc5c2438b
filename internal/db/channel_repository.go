package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ShazeRx/pigeon-app/internal/models"
)

// ChannelRepository provides channel-related database operations
type ChannelRepository struct {
	*Repository
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(repo *Repository) *ChannelRepository {
	return &ChannelRepository{Repository: repo}
}

// GetByID retrieves a channel by ID
func (r *ChannelRepository) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).First(&channel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// List retrieves channels ordered by id
func (r *ChannelRepository) List(ctx context.Context, offset, limit int) ([]*models.Channel, error) {
	var channels []*models.Channel
	if err := r.db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// Count returns the total number of channels
func (r *ChannelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Channel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create creates a new channel
func (r *ChannelRepository) Create(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

// Update updates a channel
func (r *ChannelRepository) Update(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Save(channel).Error
}

// Delete removes a channel together with its membership rows, images and
// tag links. Posts keep existing with a null channel reference.
func (r *ChannelRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", id).Delete(&models.ChannelAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_id = ?", id).Delete(&models.ChannelImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_id = ?", id).Delete(&models.TagChannel{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("channel_id = ?", id).
			Update("channel_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Channel{}, id).Error
	})
}

// AddMember adds a user to channel membership. Adding an existing member
// is a no-op.
func (r *ChannelRepository) AddMember(ctx context.Context, channelID, userID int64) error {
	var existing models.ChannelAccess
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	access := models.ChannelAccess{
		ChannelID: channelID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(&access).Error
}

// RemoveMember removes a user from channel membership. Removing a
// non-member is a no-op.
func (r *ChannelRepository) RemoveMember(ctx context.Context, channelID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&models.ChannelAccess{}).Error
}

// IsMember reports whether the user is in the channel's membership set
func (r *ChannelRepository) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ChannelAccess{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountMembers returns the channel's membership size
func (r *ChannelRepository) CountMembers(ctx context.Context, channelID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ChannelAccess{}).
		Where("channel_id = ?", channelID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// PasswordInUse reports whether any other channel currently stores the
// given password. Used by the regeneration loop to keep passwords unique.
func (r *ChannelRepository) PasswordInUse(ctx context.Context, password string, excludeID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Channel{}).
		Where("password = ? AND id <> ?", password, excludeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/internal/auth"
	"github.com/ShazeRx/pigeon-app/internal/models"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

const channelPasswordLength = 16

// ChannelInput is the write model for channel create/update
// ChannelInput is the write model for channel create/update. IsPrivate
// is a pointer so a partial update can leave the privacy flag alone.
type ChannelInput struct {
	Name      string   `json:"name"`
	IsPrivate *bool    `json:"is_private"`
	Password  string   `json:"password,omitempty"`
	Tags      []string `json:"tags"`
	Images    []string `json:"images"`
}

// ChannelDetail is the assembled read model for a channel
type ChannelDetail struct {
	Channel         *models.Channel
	Owner           *models.User
	HasAccess       bool
	NumberOfMembers int64
	NumberOfPosts   int64
	Tags            []*models.Tag
	Images          []*models.ChannelImage
}

// ChannelService implements channel CRUD and the membership access-control
// model.
type ChannelService struct {
	channels ChannelRepo
	users    UserRepo
	posts    PostRepo
	images   ImageRepo
	linker   *TagLinker
	logger   *zap.Logger
}

// NewChannelService creates a ChannelService
func NewChannelService(channels ChannelRepo, users UserRepo, posts PostRepo, images ImageRepo, linker *TagLinker) *ChannelService {
	return &ChannelService{
		channels: channels,
		users:    users,
		posts:    posts,
		images:   images,
		linker:   linker,
		logger:   logging.GetLogger().With(zap.String("component", "channel-service")),
	}
}

// roleOf resolves the caller's role for a channel: owner, member or guest
func (s *ChannelService) roleOf(ctx context.Context, channel *models.Channel, userID int64) (int16, error) {
	if userID == 0 {
		return models.RoleGuest, nil
	}
	if channel.OwnerID.Valid && channel.OwnerID.Int64 == userID {
		return models.RoleOwner, nil
	}
	member, err := s.channels.IsMember(ctx, channel.ID, userID)
	if err != nil {
		return models.RoleGuest, err
	}
	if member {
		return models.RoleMember, nil
	}
	return models.RoleGuest, nil
}

// requireRole fails with Forbidden unless the caller holds at least the
// given role. The uniform capability check replacing the original's
// scattered (and sometimes missing) ownership tests.
func (s *ChannelService) requireRole(ctx context.Context, channel *models.Channel, userID int64, minRole int16) error {
	role, err := s.roleOf(ctx, channel, userID)
	if err != nil {
		return err
	}
	if role < minRole {
		return apperror.Forbidden("You do not have permission to perform this action")
	}
	return nil
}

// HasAccess reports whether the user may read the channel and its posts.
// The owner always has access; an absent user never does.
func (s *ChannelService) HasAccess(ctx context.Context, channel *models.Channel, userID int64) (bool, error) {
	role, err := s.roleOf(ctx, channel, userID)
	if err != nil {
		return false, err
	}
	return role >= models.RoleMember, nil
}

// Create creates a channel. The owner is auto-joined to membership; a
// private channel without a supplied password gets a generated one.
func (s *ChannelService) Create(ctx context.Context, ownerID int64, in ChannelInput) (*ChannelDetail, error) {
	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "Name must not be empty")
	}

	isPrivate := in.IsPrivate != nil && *in.IsPrivate
	channel := &models.Channel{
		Name:      in.Name,
		IsPrivate: isPrivate,
		OwnerID:   sql.NullInt64{Int64: ownerID, Valid: true},
		CreatedAt: time.Now().UTC(),
	}
	if isPrivate {
		password := in.Password
		if password == "" {
			generated, err := auth.RandomPassword(channelPasswordLength)
			if err != nil {
				return nil, err
			}
			password = generated
		}
		channel.Password = sql.NullString{String: password, Valid: true}
	}

	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, err
	}
	if err := s.channels.AddMember(ctx, channel.ID, ownerID); err != nil {
		return nil, err
	}

	if _, err := s.linker.LinkChannel(ctx, channel.ID, in.Tags); err != nil {
		return nil, err
	}
	for _, url := range in.Images {
		img := &models.ChannelImage{URL: url, ChannelID: channel.ID}
		if err := s.images.CreateChannelImage(ctx, img); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Channel created",
		zap.Int64("channel_id", channel.ID),
		zap.Int64("owner_id", ownerID),
		zap.Bool("is_private", channel.IsPrivate),
	)
	return s.detail(ctx, channel, ownerID)
}

// Get returns the channel detail, gated on read access
func (s *ChannelService) Get(ctx context.Context, channelID, userID int64) (*ChannelDetail, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("Channel not found with id %d", channelID),
		}
	}

	hasAccess, err := s.HasAccess(ctx, channel, userID)
	if err != nil {
		return nil, err
	}
	if !hasAccess {
		return nil, apperror.Unauthorized(s.notPartOfChannel(ctx, userID, channelID))
	}

	return s.detail(ctx, channel, userID)
}

// List returns a page of channels ordered by id, plus the total count
func (s *ChannelService) List(ctx context.Context, userID int64, offset, limit int) ([]*ChannelDetail, int64, error) {
	channels, err := s.channels.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.channels.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	details := make([]*ChannelDetail, 0, len(channels))
	for _, channel := range channels {
		d, err := s.detail(ctx, channel, userID)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, d)
	}
	return details, total, nil
}

// Update modifies channel fields and relinks tags. Owner only.
func (s *ChannelService) Update(ctx context.Context, channelID, callerID int64, in ChannelInput) (*ChannelDetail, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("Channel not found with id %d", channelID),
		}
	}
	if err := s.requireRole(ctx, channel, callerID, models.RoleOwner); err != nil {
		return nil, err
	}

	if in.Name != "" {
		channel.Name = in.Name
	}
	if in.Password != "" {
		channel.Password = sql.NullString{String: in.Password, Valid: true}
	}
	// Partial update: the privacy flag only moves when the request
	// carries it, and only an explicit flip to public drops the password.
	if in.IsPrivate != nil {
		channel.IsPrivate = *in.IsPrivate
		if !channel.IsPrivate {
			channel.Password = sql.NullString{}
		}
	}

	if err := s.channels.Update(ctx, channel); err != nil {
		return nil, err
	}
	if in.Tags != nil {
		if _, err := s.linker.RelinkChannel(ctx, channel.ID, in.Tags); err != nil {
			return nil, err
		}
	}

	return s.detail(ctx, channel, callerID)
}

// Delete removes a channel and its dependents. Owner only.
func (s *ChannelService) Delete(ctx context.Context, channelID, callerID int64) error {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("Channel not found with id %d", channelID),
		}
	}
	if err := s.requireRole(ctx, channel, callerID, models.RoleOwner); err != nil {
		return err
	}

	if err := s.channels.Delete(ctx, channelID); err != nil {
		return err
	}
	s.logger.Info("Channel deleted", zap.Int64("channel_id", channelID))
	return nil
}

// Join adds the requester to channel membership. Non-private channels
// admit anyone; private channels require the exact stored password.
// A failed attempt leaves membership unchanged.
func (s *ChannelService) Join(ctx context.Context, channelID, userID int64, password string) error {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("Channel not found with id %d", channelID),
		}
	}

	if channel.IsPrivate {
		if !channel.Password.Valid || password != channel.Password.String {
			return apperror.Unauthorized("Unauthorized")
		}
	}

	return s.channels.AddMember(ctx, channelID, userID)
}

// Leave removes the requester from membership. Deliberately permissive:
// any authenticated caller may leave, and leaving a channel you are not
// in is a no-op.
func (s *ChannelService) Leave(ctx context.Context, channelID, userID int64) error {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("Channel not found with id %d", channelID),
		}
	}
	return s.channels.RemoveMember(ctx, channelID, userID)
}

// RegeneratePassword assigns the channel a fresh random password that no
// other channel currently uses, and returns it. Owner only. The retry
// loop terminates probabilistically; there is no iteration cap.
func (s *ChannelService) RegeneratePassword(ctx context.Context, channelID, callerID int64) (string, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return "", err
	}
	if channel == nil {
		return "", &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("Channel not found with id %d", channelID),
		}
	}
	if err := s.requireRole(ctx, channel, callerID, models.RoleOwner); err != nil {
		return "", err
	}

	var password string
	for {
		password, err = auth.RandomPassword(channelPasswordLength)
		if err != nil {
			return "", err
		}
		inUse, err := s.channels.PasswordInUse(ctx, password, channelID)
		if err != nil {
			return "", err
		}
		if !inUse {
			break
		}
	}

	channel.Password = sql.NullString{String: password, Valid: true}
	if err := s.channels.Update(ctx, channel); err != nil {
		return "", err
	}

	s.logger.Info("Channel password regenerated", zap.Int64("channel_id", channelID))
	return password, nil
}

// detail assembles the read model for a channel
func (s *ChannelService) detail(ctx context.Context, channel *models.Channel, userID int64) (*ChannelDetail, error) {
	hasAccess, err := s.HasAccess(ctx, channel, userID)
	if err != nil {
		return nil, err
	}
	members, err := s.channels.CountMembers(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.CountByChannel(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	tags, err := s.linker.tags.ListByChannel(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	images, err := s.images.ListByChannel(ctx, channel.ID)
	if err != nil {
		return nil, err
	}

	var owner *models.User
	if channel.OwnerID.Valid {
		owner, err = s.users.GetByID(ctx, channel.OwnerID.Int64)
		if err != nil {
			return nil, err
		}
	}

	return &ChannelDetail{
		Channel:         channel,
		Owner:           owner,
		HasAccess:       hasAccess,
		NumberOfMembers: members,
		NumberOfPosts:   posts,
		Tags:            tags,
		Images:          images,
	}, nil
}

// notPartOfChannel builds the original access-denied message, naming the
// requester when known
func (s *ChannelService) notPartOfChannel(ctx context.Context, userID, channelID int64) string {
	name := "anonymous"
	if userID != 0 {
		if user, err := s.users.GetByID(ctx, userID); err == nil && user != nil {
			name = user.Username
		}
	}
	return fmt.Sprintf("User %s not part of channel with id %d", name, channelID)
}

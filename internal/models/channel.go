package models

import (
	"database/sql"
	"time"
)

// Channel represents a community that posts can be published into.
// A private channel carries a password; non-private channels ignore it.
type Channel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string         `gorm:"type:varchar(100);not null;column:name"`
	Password  sql.NullString `gorm:"type:varchar(128);column:password"`
	IsPrivate bool           `gorm:"not null;column:is_private"`
	OwnerID   sql.NullInt64  `gorm:"column:owner_id"`
	CreatedAt time.Time      `gorm:"not null;column:created_at"`

	// Relationships
	Owner *User `gorm:"foreignKey:OwnerID;references:ID"`
}

// TableName specifies the table name for Channel
func (Channel) TableName() string {
	return "pigeon_channels"
}

// ChannelAccess represents a channel membership row
type ChannelAccess struct {
	ChannelID int64     `gorm:"primaryKey;column:channel_id"`
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Channel *Channel `gorm:"foreignKey:ChannelID;references:ID"`
	User    *User    `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for ChannelAccess
func (ChannelAccess) TableName() string {
	return "pigeon_channel_access"
}

// Channel role constants used by the capability checks
const (
	RoleGuest  int16 = 0 // No relationship to the channel
	RoleMember int16 = 2 // Listed in channel_access
	RoleOwner  int16 = 8 // Channel owner
)

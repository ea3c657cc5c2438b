package models

// PostImage references an externally stored image attached to a post.
// Rows are removed together with their post.
type PostImage struct {
	ID     int64  `gorm:"primaryKey;autoIncrement;column:id"`
	URL    string `gorm:"type:varchar(1024);not null;column:url"`
	PostID int64  `gorm:"not null;column:post_id"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for PostImage
func (PostImage) TableName() string {
	return "pigeon_post_images"
}

// ChannelImage references an externally stored image attached to a channel.
type ChannelImage struct {
	ID        int64  `gorm:"primaryKey;autoIncrement;column:id"`
	URL       string `gorm:"type:varchar(1024);not null;column:url"`
	ChannelID int64  `gorm:"not null;column:channel_id"`

	// Relationships
	Channel *Channel `gorm:"foreignKey:ChannelID;references:ID"`
}

// TableName specifies the table name for ChannelImage
func (ChannelImage) TableName() string {
	return "pigeon_channel_images"
}

package models

// Tag represents a label attachable to posts and channels. Tag names are
// deduplicated by the reconciliation logic, not by a storage constraint.
type Tag struct {
	ID   int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Name string `gorm:"type:varchar(100);not null;index:pigeon_tags_ix1;column:name"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "pigeon_tags"
}

// TagPost represents a tag-to-post mapping
type TagPost struct {
	TagID  int64 `gorm:"primaryKey;column:tag_id"`
	PostID int64 `gorm:"primaryKey;column:post_id"`
}

// TableName specifies the table name for TagPost
func (TagPost) TableName() string {
	return "pigeon_tag_posts"
}

// TagChannel represents a tag-to-channel mapping
type TagChannel struct {
	TagID     int64 `gorm:"primaryKey;column:tag_id"`
	ChannelID int64 `gorm:"primaryKey;column:channel_id"`
}

// TableName specifies the table name for TagChannel
func (TagChannel) TableName() string {
	return "pigeon_tag_channels"
}

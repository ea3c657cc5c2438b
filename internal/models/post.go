package models

import (
	"database/sql"
	"time"
)

// Post represents a blog post. A post with no channel is "global" and
// visible to every authenticated user.
type Post struct {
	ID        int64         `gorm:"primaryKey;autoIncrement;column:id"`
	Title     string        `gorm:"type:varchar(50);not null;column:title"`
	Body      string        `gorm:"type:text;not null;column:body"`
	AuthorID  sql.NullInt64 `gorm:"column:author_id"`
	ChannelID sql.NullInt64 `gorm:"column:channel_id"`
	CreatedAt time.Time     `gorm:"not null;column:created_at"`

	// Relationships
	Author  *User    `gorm:"foreignKey:AuthorID;references:ID"`
	Channel *Channel `gorm:"foreignKey:ChannelID;references:ID"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "pigeon_posts"
}

// IsGlobal reports whether the post belongs to no channel
func (p *Post) IsGlobal() bool {
	return !p.ChannelID.Valid
}

// Comment represents a comment on a post. Comments are removed together
// with their post.
type Comment struct {
	ID        int64         `gorm:"primaryKey;autoIncrement;column:id"`
	Body      string        `gorm:"type:text;not null;column:body"`
	PostID    int64         `gorm:"not null;column:post_id"`
	UserID    sql.NullInt64 `gorm:"column:user_id"`
	CreatedAt time.Time     `gorm:"not null;column:created_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID"`
	User *User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "pigeon_comments"
}

// Like represents a (user, post) like pair. The service enforces at most
// one row per pair through toggle semantics.
type Like struct {
	ID     int64 `gorm:"primaryKey;autoIncrement;column:id"`
	UserID int64 `gorm:"not null;column:user_id"`
	PostID int64 `gorm:"not null;column:post_id"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;references:ID"`
	Post *Post `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "pigeon_likes"
}

package api

import (
	"time"

	"github.com/ShazeRx/pigeon-app/internal/models"
	"github.com/ShazeRx/pigeon-app/internal/service"
)

// Explicit per-operation read models. Each view names exactly the
// fields the endpoint returns; the channel password is write-only and
// never appears here.

// UserView is the public shape of a user
type UserView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TokenView carries a refresh/access pair
type TokenView struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// TagView is the public shape of a tag
type TagView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ChannelView is the public shape of a channel
type ChannelView struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	IsPrivate       bool      `json:"is_private"`
	Owner           *UserView `json:"owner"`
	HasAccess       bool      `json:"has_access"`
	NumberOfMembers int64     `json:"number_of_members"`
	NumberOfPosts   int64     `json:"number_of_posts"`
	Tags            []TagView `json:"tags"`
	Images          []string  `json:"images"`
	CreatedAt       time.Time `json:"created_at"`
}

// PostView is the public shape of a channel-scoped or global post
type PostView struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Author        *UserView `json:"author"`
	Channel       *int64    `json:"channel"`
	Tags          []TagView `json:"tags"`
	Images        []string  `json:"images"`
	CommentsCount int64     `json:"comments_count"`
	Likes         int64     `json:"likes"`
	CreatedAt     time.Time `json:"created_at"`
}

// CommentView is the public shape of a comment
type CommentView struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Author    *UserView `json:"author"`
	Post      int64     `json:"post"`
	CreatedAt time.Time `json:"created_at"`
}

func userView(u *models.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func tagViews(tags []*models.Tag) []TagView {
	out := make([]TagView, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagView{ID: tag.ID, Name: tag.Name})
	}
	return out
}

func channelView(d *service.ChannelDetail) ChannelView {
	images := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, img.URL)
	}
	return ChannelView{
		ID:              d.Channel.ID,
		Name:            d.Channel.Name,
		IsPrivate:       d.Channel.IsPrivate,
		Owner:           userView(d.Owner),
		HasAccess:       d.HasAccess,
		NumberOfMembers: d.NumberOfMembers,
		NumberOfPosts:   d.NumberOfPosts,
		Tags:            tagViews(d.Tags),
		Images:          images,
		CreatedAt:       d.Channel.CreatedAt,
	}
}

func channelViews(details []*service.ChannelDetail) []ChannelView {
	out := make([]ChannelView, 0, len(details))
	for _, d := range details {
		out = append(out, channelView(d))
	}
	return out
}

func postView(d *service.PostDetail) PostView {
	images := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, img.URL)
	}
	view := PostView{
		ID:            d.Post.ID,
		Title:         d.Post.Title,
		Body:          d.Post.Body,
		Author:        userView(d.Author),
		Tags:          tagViews(d.Tags),
		Images:        images,
		CommentsCount: d.CommentsCount,
		Likes:         d.LikesCount,
		CreatedAt:     d.Post.CreatedAt,
	}
	if d.Post.ChannelID.Valid {
		id := d.Post.ChannelID.Int64
		view.Channel = &id
	}
	return view
}

func postViews(details []*service.PostDetail) []PostView {
	out := make([]PostView, 0, len(details))
	for _, d := range details {
		out = append(out, postView(d))
	}
	return out
}

func commentView(d *service.CommentDetail) CommentView {
	return CommentView{
		ID:        d.Comment.ID,
		Body:      d.Comment.Body,
		Author:    userView(d.Author),
		Post:      d.Comment.PostID,
		CreatedAt: d.Comment.CreatedAt,
	}
}

func commentViews(details []*service.CommentDetail) []CommentView {
	out := make([]CommentView, 0, len(details))
	for _, d := range details {
		out = append(out, commentView(d))
	}
	return out
}

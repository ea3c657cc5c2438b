package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ShazeRx/pigeon-app/internal/auth"
	"github.com/ShazeRx/pigeon-app/internal/models"
	"github.com/ShazeRx/pigeon-app/pkg/config"
)

// memDB is the shared in-memory backing store for the fake repositories
type memDB struct {
	mu     sync.Mutex
	nextID int64

	users         map[int64]*models.User
	channels      map[int64]*models.Channel
	members       map[int64]map[int64]bool
	posts         map[int64]*models.Post
	comments      map[int64]*models.Comment
	likes         map[int64]*models.Like
	tags          []*models.Tag
	tagPosts      map[int64]map[int64]bool
	tagChannels   map[int64]map[int64]bool
	postImages    []*models.PostImage
	channelImages []*models.ChannelImage
}

func newMemDB() *memDB {
	return &memDB{
		users:       make(map[int64]*models.User),
		channels:    make(map[int64]*models.Channel),
		members:     make(map[int64]map[int64]bool),
		posts:       make(map[int64]*models.Post),
		comments:    make(map[int64]*models.Comment),
		likes:       make(map[int64]*models.Like),
		tagPosts:    make(map[int64]map[int64]bool),
		tagChannels: make(map[int64]map[int64]bool),
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

type fakeUserRepo struct{ db *memDB }

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.users[id], nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user.ID = r.db.id()
	r.db.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.users[user.ID] = user
	return nil
}

type fakeChannelRepo struct{ db *memDB }

func (r *fakeChannelRepo) GetByID(_ context.Context, id int64) (*models.Channel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.channels[id], nil
}

func (r *fakeChannelRepo) List(_ context.Context, offset, limit int) ([]*models.Channel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := make([]*models.Channel, 0, len(r.db.channels))
	for _, c := range r.db.channels {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), nil
}

func (r *fakeChannelRepo) Count(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.channels)), nil
}

func (r *fakeChannelRepo) Create(_ context.Context, channel *models.Channel) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	channel.ID = r.db.id()
	r.db.channels[channel.ID] = channel
	return nil
}

func (r *fakeChannelRepo) Update(_ context.Context, channel *models.Channel) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.channels[channel.ID] = channel
	return nil
}

func (r *fakeChannelRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.channels, id)
	delete(r.db.members, id)
	delete(r.db.tagChannels, id)
	kept := r.db.channelImages[:0]
	for _, img := range r.db.channelImages {
		if img.ChannelID != id {
			kept = append(kept, img)
		}
	}
	r.db.channelImages = kept
	for _, p := range r.db.posts {
		if p.ChannelID.Valid && p.ChannelID.Int64 == id {
			p.ChannelID = sql.NullInt64{}
		}
	}
	return nil
}

func (r *fakeChannelRepo) AddMember(_ context.Context, channelID, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.members[channelID] == nil {
		r.db.members[channelID] = make(map[int64]bool)
	}
	r.db.members[channelID][userID] = true
	return nil
}

func (r *fakeChannelRepo) RemoveMember(_ context.Context, channelID, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.members[channelID], userID)
	return nil
}

func (r *fakeChannelRepo) IsMember(_ context.Context, channelID, userID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.members[channelID][userID], nil
}

func (r *fakeChannelRepo) CountMembers(_ context.Context, channelID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.members[channelID])), nil
}

func (r *fakeChannelRepo) PasswordInUse(_ context.Context, password string, excludeID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.channels {
		if c.ID != excludeID && c.Password.Valid && c.Password.String == password {
			return true, nil
		}
	}
	return false, nil
}

type fakePostRepo struct{ db *memDB }

func (r *fakePostRepo) GetByID(_ context.Context, id int64) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.posts[id], nil
}

func (r *fakePostRepo) list(match func(*models.Post) bool) []*models.Post {
	all := make([]*models.Post, 0, len(r.db.posts))
	for _, p := range r.db.posts {
		if match(p) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (r *fakePostRepo) ListByChannel(_ context.Context, channelID int64, offset, limit int) ([]*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := r.list(func(p *models.Post) bool { return p.ChannelID.Valid && p.ChannelID.Int64 == channelID })
	return page(all, offset, limit), nil
}

func (r *fakePostRepo) ListGlobal(_ context.Context, offset, limit int) ([]*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := r.list(func(p *models.Post) bool { return p.IsGlobal() })
	return page(all, offset, limit), nil
}

func (r *fakePostRepo) CountByChannel(_ context.Context, channelID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.list(func(p *models.Post) bool { return p.ChannelID.Valid && p.ChannelID.Int64 == channelID }))), nil
}

func (r *fakePostRepo) CountGlobal(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.list(func(p *models.Post) bool { return p.IsGlobal() }))), nil
}

func (r *fakePostRepo) Create(_ context.Context, post *models.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	post.ID = r.db.id()
	r.db.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) Update(_ context.Context, post *models.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.posts, id)
	delete(r.db.tagPosts, id)
	for cid, c := range r.db.comments {
		if c.PostID == id {
			delete(r.db.comments, cid)
		}
	}
	for lid, l := range r.db.likes {
		if l.PostID == id {
			delete(r.db.likes, lid)
		}
	}
	kept := r.db.postImages[:0]
	for _, img := range r.db.postImages {
		if img.PostID != id {
			kept = append(kept, img)
		}
	}
	r.db.postImages = kept
	return nil
}

type fakeCommentRepo struct{ db *memDB }

func (r *fakeCommentRepo) GetByID(_ context.Context, id int64) (*models.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.comments[id], nil
}

func (r *fakeCommentRepo) ListByPost(_ context.Context, postID int64, offset, limit int) ([]*models.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := make([]*models.Comment, 0)
	for _, c := range r.db.comments {
		if c.PostID == postID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), nil
}

func (r *fakeCommentRepo) CountByPost(_ context.Context, postID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, c := range r.db.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *models.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	comment.ID = r.db.id()
	r.db.comments[comment.ID] = comment
	return nil
}

func (r *fakeCommentRepo) Update(_ context.Context, comment *models.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.comments[comment.ID] = comment
	return nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.comments, id)
	return nil
}

type fakeLikeRepo struct{ db *memDB }

func (r *fakeLikeRepo) Get(_ context.Context, userID, postID int64) (*models.Like, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.likes {
		if l.UserID == userID && l.PostID == postID {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeLikeRepo) Create(_ context.Context, like *models.Like) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	like.ID = r.db.id()
	r.db.likes[like.ID] = like
	return nil
}

func (r *fakeLikeRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.likes, id)
	return nil
}

func (r *fakeLikeRepo) CountByPost(_ context.Context, postID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, l := range r.db.likes {
		if l.PostID == postID {
			n++
		}
	}
	return n, nil
}

type fakeTagRepo struct{ db *memDB }

func (r *fakeTagRepo) GetByNames(_ context.Context, names []string) ([]*models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	out := make([]*models.Tag, 0)
	for _, t := range r.db.tags {
		if wanted[t.Name] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTagRepo) Create(_ context.Context, tag *models.Tag) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	tag.ID = r.db.id()
	r.db.tags = append(r.db.tags, tag)
	return nil
}

func (r *fakeTagRepo) LinkPost(_ context.Context, tagID, postID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.tagPosts[postID] == nil {
		r.db.tagPosts[postID] = make(map[int64]bool)
	}
	r.db.tagPosts[postID][tagID] = true
	return nil
}

func (r *fakeTagRepo) UnlinkPost(_ context.Context, tagID, postID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tagPosts[postID], tagID)
	return nil
}

func (r *fakeTagRepo) ListByPost(_ context.Context, postID int64) ([]*models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.linked(r.db.tagPosts[postID]), nil
}

func (r *fakeTagRepo) LinkChannel(_ context.Context, tagID, channelID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.tagChannels[channelID] == nil {
		r.db.tagChannels[channelID] = make(map[int64]bool)
	}
	r.db.tagChannels[channelID][tagID] = true
	return nil
}

func (r *fakeTagRepo) UnlinkChannel(_ context.Context, tagID, channelID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tagChannels[channelID], tagID)
	return nil
}

func (r *fakeTagRepo) ListByChannel(_ context.Context, channelID int64) ([]*models.Tag, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.linked(r.db.tagChannels[channelID]), nil
}

func (r *fakeTagRepo) linked(ids map[int64]bool) []*models.Tag {
	out := make([]*models.Tag, 0, len(ids))
	for _, t := range r.db.tags {
		if ids[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

type fakeImageRepo struct{ db *memDB }

func (r *fakeImageRepo) CreatePostImage(_ context.Context, image *models.PostImage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	image.ID = r.db.id()
	r.db.postImages = append(r.db.postImages, image)
	return nil
}

func (r *fakeImageRepo) ListByPost(_ context.Context, postID int64) ([]*models.PostImage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.PostImage, 0)
	for _, img := range r.db.postImages {
		if img.PostID == postID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) CreateChannelImage(_ context.Context, image *models.ChannelImage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	image.ID = r.db.id()
	r.db.channelImages = append(r.db.channelImages, image)
	return nil
}

func (r *fakeImageRepo) ListByChannel(_ context.Context, channelID int64) ([]*models.ChannelImage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.ChannelImage, 0)
	for _, img := range r.db.channelImages {
		if img.ChannelID == channelID {
			out = append(out, img)
		}
	}
	return out, nil
}

func boolPtr(b bool) *bool { return &b }

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (s *fakeSender) Send(to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// env wires all services over a shared memDB for tests
type env struct {
	db       *memDB
	users    *fakeUserRepo
	sender   *fakeSender
	tokens   *auth.TokenService
	auth     *AuthService
	channels *ChannelService
	posts    *PostService
	comments *CommentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newMemDB()
	users := &fakeUserRepo{db: db}
	channels := &fakeChannelRepo{db: db}
	posts := &fakePostRepo{db: db}
	comments := &fakeCommentRepo{db: db}
	likes := &fakeLikeRepo{db: db}
	tags := &fakeTagRepo{db: db}
	images := &fakeImageRepo{db: db}
	linker := NewTagLinker(tags)

	tokens := auth.NewTokenService(&config.AuthConfig{
		Secret:        "test-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		ActivationTTL: time.Hour,
	})
	passwords := auth.NewPasswordServiceWithCost(4)
	sender := &fakeSender{}

	channelSvc := NewChannelService(channels, users, posts, images, linker)
	return &env{
		db:       db,
		users:    users,
		sender:   sender,
		tokens:   tokens,
		auth:     NewAuthService(users, tokens, passwords, sender, "http://localhost:8000"),
		channels: channelSvc,
		posts:    NewPostService(posts, channels, users, comments, likes, images, linker, channelSvc, nil),
		comments: NewCommentService(comments, posts, users),
	}
}

func (e *env) user(t *testing.T, username string, active bool) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		IsActive: active,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

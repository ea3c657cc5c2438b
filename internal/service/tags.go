package service

import (
	"context"

	"github.com/ShazeRx/pigeon-app/internal/models"
)

// TagLinker reconciles requested tag names against existing tag rows and
// maintains the links to posts and channels. Name matching is
// exact-string: no trimming, no case folding. There is no uniqueness
// constraint on tag names, so reconciliation is best-effort — concurrent
// requests may create duplicate-named rows, and the first match wins on
// the next lookup.
type TagLinker struct {
	tags TagRepo
}

// NewTagLinker creates a TagLinker
func NewTagLinker(tags TagRepo) *TagLinker {
	return &TagLinker{tags: tags}
}

// reconcile maps distinct requested names onto existing-or-new tag rows
func (l *TagLinker) reconcile(ctx context.Context, names []string) ([]*models.Tag, error) {
	distinct := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		distinct = append(distinct, name)
	}
	if len(distinct) == 0 {
		return nil, nil
	}

	existing, err := l.tags.GetByNames(ctx, distinct)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.Tag, len(existing))
	for _, tag := range existing {
		if _, ok := byName[tag.Name]; !ok {
			byName[tag.Name] = tag
		}
	}

	out := make([]*models.Tag, 0, len(distinct))
	for _, name := range distinct {
		tag, ok := byName[name]
		if !ok {
			tag = &models.Tag{Name: name}
			if err := l.tags.Create(ctx, tag); err != nil {
				return nil, err
			}
		}
		out = append(out, tag)
	}
	return out, nil
}

// LinkPost reconciles names and links the resulting tags to the post
func (l *TagLinker) LinkPost(ctx context.Context, postID int64, names []string) ([]*models.Tag, error) {
	tags, err := l.reconcile(ctx, names)
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if err := l.tags.LinkPost(ctx, tag.ID, postID); err != nil {
			return nil, err
		}
	}
	return tags, nil
}

// RelinkPost replaces the post's tag set: tags absent from names are
// unlinked (tag rows are never reclaimed), missing names are reconciled
// and linked.
func (l *TagLinker) RelinkPost(ctx context.Context, postID int64, names []string) ([]*models.Tag, error) {
	requested := make(map[string]bool, len(names))
	for _, name := range names {
		requested[name] = true
	}

	current, err := l.tags.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	for _, tag := range current {
		if !requested[tag.Name] {
			if err := l.tags.UnlinkPost(ctx, tag.ID, postID); err != nil {
				return nil, err
			}
		}
	}

	return l.LinkPost(ctx, postID, names)
}

// LinkChannel reconciles names and links the resulting tags to the channel
func (l *TagLinker) LinkChannel(ctx context.Context, channelID int64, names []string) ([]*models.Tag, error) {
	tags, err := l.reconcile(ctx, names)
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if err := l.tags.LinkChannel(ctx, tag.ID, channelID); err != nil {
			return nil, err
		}
	}
	return tags, nil
}

// RelinkChannel replaces the channel's tag set, mirroring RelinkPost
func (l *TagLinker) RelinkChannel(ctx context.Context, channelID int64, names []string) ([]*models.Tag, error) {
	requested := make(map[string]bool, len(names))
	for _, name := range names {
		requested[name] = true
	}

	current, err := l.tags.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	for _, tag := range current {
		if !requested[tag.Name] {
			if err := l.tags.UnlinkChannel(ctx, tag.ID, channelID); err != nil {
				return nil, err
			}
		}
	}

	return l.LinkChannel(ctx, channelID, names)
}

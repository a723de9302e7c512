// Package forum stores a local feed of posts with comments and like
// counters. The same store backs the forum and the guinea-gram feed, each
// under its own key.
package forum

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// Store is one feed persisted as a JSON list under key.
type Store struct {
	kv  types.KVStore
	key string
	log logger.Logger
	now func() time.Time
	mu  sync.Mutex
}

type Option func(*Store)

func WithLogger(l logger.Logger) Option { return func(s *Store) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New returns the feed stored under key, types.KeyForumPosts or
// types.KeyGuineaGram.
func New(store types.KVStore, key string, opts ...Option) *Store {
	s := &Store{kv: store, key: key, log: logger.Nop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(logger.Fields{"store": key})
	return s
}

func (s *Store) load(ctx context.Context) ([]types.ForumPost, error) {
	var posts []types.ForumPost
	_, err := kv.GetJSON(ctx, s.kv, s.key, &posts)
	if errors.Is(err, types.ErrInvalidData) {
		s.log.Warn("unreadable feed, treating as empty", logger.Fields{"err": err})
		return nil, nil
	}
	return posts, err
}

func (s *Store) save(ctx context.Context, posts []types.ForumPost) error {
	return kv.SetJSON(ctx, s.kv, s.key, posts)
}

// List returns every post, newest first.
func (s *Store) List(ctx context.Context) ([]types.ForumPost, error) {
	posts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Date.After(posts[j].Date) })
	return posts, nil
}

// ListByTag returns posts carrying tag, compared case-insensitively.
func (s *Store) ListByTag(ctx context.Context, tag string) ([]types.ForumPost, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	var out []types.ForumPost
	for _, p := range posts {
		if slices.ContainsFunc(p.Tags, func(t string) bool { return strings.ToLower(t) == tag }) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (types.ForumPost, error) {
	posts, err := s.load(ctx)
	if err != nil {
		return types.ForumPost{}, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return types.ForumPost{}, fmt.Errorf("post %q: %w", id, types.ErrNotFound)
}

// Create stores a new post. ID, Date, Likes and Comments are assigned here.
func (s *Store) Create(ctx context.Context, post types.ForumPost) (types.ForumPost, error) {
	post.Title = strings.TrimSpace(post.Title)
	post.Content = strings.TrimSpace(post.Content)
	if post.Title == "" || post.Content == "" {
		return types.ForumPost{}, types.ErrEmptyPost
	}
	id, err := uuid.NewV7()
	if err != nil {
		return types.ForumPost{}, fmt.Errorf("generating post id: %w", err)
	}
	post.ID = id.String()
	post.Date = s.now().UTC()
	post.Likes = 0
	post.Comments = []types.ForumComment{}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	posts, err := s.load(ctx)
	if err != nil {
		return types.ForumPost{}, err
	}
	if err := s.save(ctx, append(posts, post)); err != nil {
		return types.ForumPost{}, err
	}
	return post, nil
}

// Delete removes the post with id. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(posts), func(p types.ForumPost) bool { return p.ID == id })
	if len(kept) == len(posts) {
		return nil
	}
	return s.save(ctx, kept)
}

// Like increments the post's counter. Likes are not tracked per user.
func (s *Store) Like(ctx context.Context, id string) (types.ForumPost, error) {
	return s.update(ctx, id, func(p *types.ForumPost) error {
		p.Likes++
		return nil
	})
}

// Comment appends a comment to the post.
func (s *Store) Comment(ctx context.Context, postID, authorID, content string) (types.ForumComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.ForumComment{}, types.ErrEmptyComment
	}
	id, err := uuid.NewV7()
	if err != nil {
		return types.ForumComment{}, fmt.Errorf("generating comment id: %w", err)
	}
	c := types.ForumComment{ID: id.String(), AuthorID: authorID, Content: content, Date: s.now().UTC()}
	_, err = s.update(ctx, postID, func(p *types.ForumPost) error {
		p.Comments = append(p.Comments, c)
		return nil
	})
	if err != nil {
		return types.ForumComment{}, err
	}
	return c, nil
}

// LikeComment increments a comment's counter.
func (s *Store) LikeComment(ctx context.Context, postID, commentID string) (types.ForumComment, error) {
	var liked types.ForumComment
	_, err := s.update(ctx, postID, func(p *types.ForumPost) error {
		for i := range p.Comments {
			if p.Comments[i].ID == commentID {
				p.Comments[i].Likes++
				liked = p.Comments[i]
				return nil
			}
		}
		return fmt.Errorf("comment %q: %w", commentID, types.ErrNotFound)
	})
	return liked, err
}

func (s *Store) update(ctx context.Context, id string, fn func(*types.ForumPost) error) (types.ForumPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts, err := s.load(ctx)
	if err != nil {
		return types.ForumPost{}, err
	}
	for i := range posts {
		if posts[i].ID != id {
			continue
		}
		if err := fn(&posts[i]); err != nil {
			return types.ForumPost{}, err
		}
		if err := s.save(ctx, posts); err != nil {
			return types.ForumPost{}, err
		}
		return posts[i], nil
	}
	return types.ForumPost{}, fmt.Errorf("post %q: %w", id, types.ErrNotFound)
}

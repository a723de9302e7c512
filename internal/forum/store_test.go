package forum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// tick returns a clock that advances one minute per call.
func tick() func() time.Time {
	t := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestCreateListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), types.KeyForumPosts, WithClock(tick()))

	first, err := s.Create(ctx, types.ForumPost{AuthorID: "u1", Title: "Hay brands", Content: "Which hay?", Tags: []string{"Diet"}})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Empty(t, first.Comments)

	second, err := s.Create(ctx, types.ForumPost{AuthorID: "u2", Title: "Popcorning!", Content: "Video inside"})
	require.NoError(t, err)

	posts, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	tagged, err := s.ListByTag(ctx, "diet")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, first.ID, tagged[0].ID)

	_, err = s.Create(ctx, types.ForumPost{Title: "  ", Content: "x"})
	assert.ErrorIs(t, err, types.ErrEmptyPost)
}

func TestLikesAndComments(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), types.KeyGuineaGram, WithClock(tick()))

	post, err := s.Create(ctx, types.ForumPost{AuthorID: "u1", Title: "Nap", Content: "zzz"})
	require.NoError(t, err)

	_, err = s.Like(ctx, post.ID)
	require.NoError(t, err)
	liked, err := s.Like(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, liked.Likes, "same user may like repeatedly")

	c, err := s.Comment(ctx, post.ID, "u2", "so cute")
	require.NoError(t, err)
	_, err = s.Comment(ctx, post.ID, "u2", " ")
	assert.ErrorIs(t, err, types.ErrEmptyComment)

	lc, err := s.LikeComment(ctx, post.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, lc.Likes)

	_, err = s.LikeComment(ctx, post.ID, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = s.Like(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := s.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Likes)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "so cute", got.Comments[0].Content)
	assert.Equal(t, 1, got.Comments[0].Likes)
}

func TestDeleteAndSeparateFeeds(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	forum := New(mem, types.KeyForumPosts)
	gram := New(mem, types.KeyGuineaGram)

	post, err := forum.Create(ctx, types.ForumPost{Title: "Hello", Content: "First post"})
	require.NoError(t, err)

	posts, err := gram.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts, "feeds do not share storage")

	require.NoError(t, forum.Delete(ctx, post.ID))
	require.NoError(t, forum.Delete(ctx, post.ID))
	_, err = forum.Get(ctx, post.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

func TestGetMissingReturnsNilNil(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user, err := s.GetUser(ctx, models.NewUserID())
	require.NoError(t, err)
	assert.Nil(t, user)

	post, err := s.GetPost(ctx, models.NewPostID())
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestListPostsEmptyIsNotNil(t *testing.T) {
	s := NewMemoryStore()

	posts, err := s.ListPosts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	post := &models.Post{Title: "t", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, s.CreatePost(ctx, post))

	assert.False(t, post.ID.IsZero())
	assert.False(t, post.CreatedAt.IsZero())
	assert.False(t, post.UpdatedAt.IsZero())
}

func TestCallersDoNotShareMemoryWithStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	post := &models.Post{Title: "original", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, s.CreatePost(ctx, post))

	// Mutating the caller's copy must not leak into the store.
	post.Title = "mutated"

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)

	// And mutating a read result must not either.
	got.Title = "mutated again"
	again, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
}

func TestAuthorStrippedOnWrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	post := &models.Post{
		Title:    "t",
		Content:  "c",
		AuthorID: models.NewUserID(),
		Author:   &models.AuthorInfo{Name: "should not persist"},
	}
	require.NoError(t, s.CreatePost(ctx, post))

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Author, "the author join is derived at read time, never stored")
}

func TestSoftDeleteHidesButTracks(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	post := &models.Post{Title: "t", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, s.CreatePost(ctx, post))
	require.NoError(t, s.DeletePost(ctx, post.ID))

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	// The deletion still registers as a modification so catch-up sync can
	// propagate it.
	ids, err := s.ListModifiedPostIDs(ctx, start, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Contains(t, ids, post.ID)
}

func TestListPostsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	old := &models.Post{Title: "old", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, s.CreatePost(ctx, old))
	time.Sleep(time.Millisecond)
	recent := &models.Post{Title: "recent", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, s.CreatePost(ctx, recent))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "recent", posts[0].Title)
}

func TestListByAuthorFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	alice := models.NewUserID()
	bob := models.NewUserID()

	older := &models.Post{Title: "older", Content: "c", AuthorID: alice}
	require.NoError(t, s.CreatePost(ctx, older))
	time.Sleep(time.Millisecond)
	newer := &models.Post{Title: "newer", Content: "c", AuthorID: alice}
	require.NoError(t, s.CreatePost(ctx, newer))
	deleted := &models.Post{Title: "deleted", Content: "c", AuthorID: alice}
	require.NoError(t, s.CreatePost(ctx, deleted))
	require.NoError(t, s.DeletePost(ctx, deleted.ID))
	other := &models.Post{Title: "other", Content: "c", AuthorID: bob}
	require.NoError(t, s.CreatePost(ctx, other))

	posts, err := s.ListPostsByAuthor(ctx, alice)
	require.NoError(t, err)
	require.Len(t, posts, 2, "other authors and deleted posts are excluded")
	assert.Equal(t, "newer", posts[0].Title)
	assert.Equal(t, "older", posts[1].Title)

	first := &models.Comment{PostID: older.ID, AuthorID: alice, Content: "first"}
	require.NoError(t, s.CreateComment(ctx, first))
	time.Sleep(time.Millisecond)
	second := &models.Comment{PostID: older.ID, AuthorID: alice, Content: "second"}
	require.NoError(t, s.CreateComment(ctx, second))
	theirs := &models.Comment{PostID: older.ID, AuthorID: bob, Content: "theirs"}
	require.NoError(t, s.CreateComment(ctx, theirs))

	comments, err := s.ListCommentsByAuthor(ctx, alice)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content, "comments are oldest first")
	assert.Equal(t, "second", comments[1].Content)

	none, err := s.ListCommentsByAuthor(ctx, models.NewUserID())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMagicLinkConsumedOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	link := &models.MagicLink{Email: "alice@example.com", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateMagicLink(ctx, link))
	require.False(t, link.ID.IsZero())

	got, err := s.ConsumeMagicLink(ctx, link.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Email)

	again, err := s.ConsumeMagicLink(ctx, link.ID)
	require.NoError(t, err)
	assert.Nil(t, again, "a consumed link is gone")
}

func TestDeleteExpiredMagicLinks(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	live := &models.MagicLink{Email: "a@example.com", ExpiresAt: time.Now().Add(time.Hour)}
	stale := &models.MagicLink{Email: "b@example.com", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, s.CreateMagicLink(ctx, live))
	require.NoError(t, s.CreateMagicLink(ctx, stale))

	require.NoError(t, s.DeleteExpiredMagicLinks(ctx))

	gone, err := s.ConsumeMagicLink(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := s.ConsumeMagicLink(ctx, live.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestSessionLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	live := &models.Session{UserID: models.NewUserID(), Token: "live", ExpiresAt: time.Now().Add(time.Hour)}
	stale := &models.Session{UserID: models.NewUserID(), Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, s.CreateSession(ctx, live))
	require.NoError(t, s.CreateSession(ctx, stale))

	got, err := s.GetSessionByToken(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, live.UserID, got.UserID)

	require.NoError(t, s.DeleteExpiredSessions(ctx))
	gone, err := s.GetSessionByToken(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := s.GetSessionByToken(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

package cqrs_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tes-sudo/Vesteria/pkg/models"
	"github.com/Tes-sudo/Vesteria/pkg/store"
	"github.com/Tes-sudo/Vesteria/pkg/store/cqrs"
	"github.com/Tes-sudo/Vesteria/pkg/store/memory"
)

func newPair(t *testing.T, mode cqrs.MigrationMode) (*cqrs.CQRSStore, store.Store, store.Store) {
	t.Helper()
	primary := memory.NewMemoryStore()
	secondary := memory.NewMemoryStore()
	return cqrs.NewCQRSStore(primary, secondary, mode, zerolog.Nop()), primary, secondary
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"single", "read_only", "switching", "reversed"} {
		mode, err := cqrs.ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(mode))
	}

	_, err := cqrs.ParseMode("dual_write")
	assert.Error(t, err)
}

func TestSingleModeRoutesToPrimary(t *testing.T) {
	cs, primary, secondary := newPair(t, cqrs.ModeSingle)
	ctx := context.Background()

	post := &models.Post{Title: "t", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, cs.CreatePost(ctx, post))

	fromPrimary, err := primary.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, fromPrimary)

	fromSecondary, err := secondary.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, fromSecondary, "single mode never touches the secondary")

	got, err := cs.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

func TestReadOnlyModeBlocksWrites(t *testing.T) {
	cs, _, _ := newPair(t, cqrs.ModeReadOnly)
	ctx := context.Background()

	err := cs.CreatePost(ctx, &models.Post{Title: "t", Content: "c"})
	assert.Error(t, err)

	err = cs.CreateSession(ctx, &models.Session{Token: "x", UserID: models.NewUserID()})
	assert.Error(t, err, "session writes freeze with everything else")

	_, err = cs.ConsumeMagicLink(ctx, models.NewMagicLinkID())
	assert.Error(t, err, "consuming a link is a write, so sign-ins pause too")

	// Reads keep flowing.
	posts, err := cs.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSwitchingModeReadsSecondaryWritesPrimary(t *testing.T) {
	cs, primary, secondary := newPair(t, cqrs.ModeSwitching)
	ctx := context.Background()

	onPrimary := &models.Post{Title: "primary", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, primary.CreatePost(ctx, onPrimary))
	onSecondary := &models.Post{Title: "secondary", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, secondary.CreatePost(ctx, onSecondary))

	got, err := cs.GetPost(ctx, onSecondary.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "switching mode reads from the secondary")

	got, err = cs.GetPost(ctx, onPrimary.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	written := &models.Post{Title: "written", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, cs.CreatePost(ctx, written))
	fromPrimary, err := primary.GetPost(ctx, written.ID)
	require.NoError(t, err)
	assert.NotNil(t, fromPrimary, "switching mode still writes to the primary")
}

func TestReversedModeServesSecondary(t *testing.T) {
	cs, primary, secondary := newPair(t, cqrs.ModeReversed)
	ctx := context.Background()

	post := &models.Post{Title: "t", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, cs.CreatePost(ctx, post))

	fromSecondary, err := secondary.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, fromSecondary)

	fromPrimary, err := primary.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, fromPrimary, "reversed mode leaves the primary untouched")
}

func TestSetModeTransitions(t *testing.T) {
	cs, _, _ := newPair(t, cqrs.ModeSingle)

	require.NoError(t, cs.SetMode(cqrs.ModeReadOnly))
	assert.Equal(t, cqrs.ModeReadOnly, cs.GetMode())

	err := cs.SetMode(cqrs.ModeReversed)
	assert.Error(t, err, "read_only can only move to switching or single")
	assert.Equal(t, cqrs.ModeReadOnly, cs.GetMode())

	require.NoError(t, cs.SetMode(cqrs.ModeSwitching))
	require.NoError(t, cs.SetMode(cqrs.ModeReversed))
}

func TestSwapStores(t *testing.T) {
	cs, _, secondary := newPair(t, cqrs.ModeSingle)
	ctx := context.Background()

	post := &models.Post{Title: "t", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, secondary.CreatePost(ctx, post))

	cs.SwapStores()

	got, err := cs.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "after the swap the old secondary serves single-mode reads")
}

func TestSyncMissedUpdates(t *testing.T) {
	cs, primary, secondary := newPair(t, cqrs.ModeSingle)
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	user := &models.User{Email: "alice@example.com", Name: "Alice"}
	require.NoError(t, primary.CreateUser(ctx, user))
	post := &models.Post{Title: "t", Content: "c", AuthorID: user.ID}
	require.NoError(t, primary.CreatePost(ctx, post))
	comment := &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "hi"}
	require.NoError(t, primary.CreateComment(ctx, comment))

	require.NoError(t, cs.SyncMissedUpdates(ctx, start, time.Now().Add(time.Minute)))

	gotUser, err := secondary.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, gotUser)
	assert.Equal(t, "alice@example.com", gotUser.Email)

	gotPost, err := secondary.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, gotPost)
	assert.Equal(t, post.Title, gotPost.Title)

	gotComment, err := secondary.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	require.NotNil(t, gotComment)
}

func TestSyncIsIdempotent(t *testing.T) {
	cs, primary, secondary := newPair(t, cqrs.ModeSingle)
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	post := &models.Post{Title: "t", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, primary.CreatePost(ctx, post))

	until := time.Now().Add(time.Minute)
	require.NoError(t, cs.SyncMissedUpdates(ctx, start, until))
	require.NoError(t, cs.SyncMissedUpdates(ctx, start, until))

	posts, err := secondary.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1, "re-running the same window must not duplicate records")
}

func TestSyncPropagatesUpdatesAndDeletes(t *testing.T) {
	cs, primary, secondary := newPair(t, cqrs.ModeSingle)
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	kept := &models.Post{Title: "kept", Content: "v1", AuthorID: models.NewUserID()}
	dropped := &models.Post{Title: "dropped", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, primary.CreatePost(ctx, kept))
	require.NoError(t, primary.CreatePost(ctx, dropped))
	require.NoError(t, cs.SyncMissedUpdates(ctx, start, time.Now().Add(time.Minute)))

	kept.Content = "v2"
	require.NoError(t, primary.UpdatePost(ctx, kept))
	require.NoError(t, primary.DeletePost(ctx, dropped.ID))

	require.NoError(t, cs.SyncMissedUpdates(ctx, start, time.Now().Add(time.Minute)))

	gotKept, err := secondary.GetPost(ctx, kept.ID)
	require.NoError(t, err)
	require.NotNil(t, gotKept)
	assert.Equal(t, "v2", gotKept.Content)

	gotDropped, err := secondary.GetPost(ctx, dropped.ID)
	require.NoError(t, err)
	assert.Nil(t, gotDropped, "a delete on the source propagates to the destination")
}

func TestReverseSyncMissedUpdates(t *testing.T) {
	cs, primary, secondary := newPair(t, cqrs.ModeSingle)
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	post := &models.Post{Title: "from secondary", Content: "c", AuthorID: models.NewUserID()}
	require.NoError(t, secondary.CreatePost(ctx, post))

	require.NoError(t, cs.ReverseSyncMissedUpdates(ctx, start, time.Now().Add(time.Minute)))

	got, err := primary.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "from secondary", got.Title)
}

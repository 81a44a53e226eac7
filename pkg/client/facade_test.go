package client

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// fakeBackend records calls and serves canned posts.
type fakeBackend struct {
	posts    []*models.Post
	user     *models.User
	getCalls int
}

func (f *fakeBackend) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return f.posts, nil
}

func (f *fakeBackend) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	f.getCalls++
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("Post not found: %w", models.ErrNotFound)
}

func (f *fakeBackend) CreatePost(ctx context.Context, title, content string) (*models.Post, error) {
	post := &models.Post{ID: models.NewPostID(), Title: title, Content: content}
	f.posts = append([]*models.Post{post}, f.posts...)
	return post, nil
}

func (f *fakeBackend) UpdatePost(ctx context.Context, id models.PostID, title, content *string) (*models.Post, error) {
	for _, p := range f.posts {
		if p.ID == id {
			if title != nil {
				p.Title = *title
			}
			if content != nil {
				p.Content = *content
			}
			return p, nil
		}
	}
	return nil, fmt.Errorf("Post not found: %w", models.ErrNotFound)
}

func (f *fakeBackend) DeletePost(ctx context.Context, id models.PostID) error {
	for i, p := range f.posts {
		if p.ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("Post not found: %w", models.ErrNotFound)
}

func (f *fakeBackend) RequestMagicLink(ctx context.Context, email string) error { return nil }
func (f *fakeBackend) SignOut(ctx context.Context) error                       { return nil }

func (f *fakeBackend) Viewer(ctx context.Context) (*models.User, error) {
	if f.user == nil {
		return nil, fmt.Errorf("Not authenticated: %w", models.ErrNotAuthenticated)
	}
	return f.user, nil
}

func TestFacadeGetPostNilIDSkipsQuery(t *testing.T) {
	backend := &fakeBackend{}
	facade := NewFacadeWithBackend(backend)

	result := facade.GetPost(context.Background(), nil)

	assert.True(t, result.Loading, "nil id is the not-yet-known state")
	assert.Nil(t, result.Data)
	assert.NoError(t, result.Err)
	assert.Zero(t, backend.getCalls, "nil id must not reach the backend")
}

func TestFacadeGetPostNotFound(t *testing.T) {
	facade := NewFacadeWithBackend(&fakeBackend{})
	missing := models.NewPostID()

	result := facade.GetPost(context.Background(), &missing)

	assert.False(t, result.Loading)
	assert.Nil(t, result.Data)
	assert.ErrorIs(t, result.Err, models.ErrNotFound)
}

func TestFacadeListPostsAdapts(t *testing.T) {
	backend := &fakeBackend{posts: []*models.Post{
		{ID: models.NewPostID(), Title: "second", Content: "b", AuthorID: models.NewUserID()},
		{ID: models.NewPostID(), Title: "first", Content: "a", AuthorID: models.NewUserID()},
	}}
	facade := NewFacadeWithBackend(backend)

	result := facade.ListPosts(context.Background())

	require.NoError(t, result.Err)
	require.Len(t, result.Data, 2)
	assert.Equal(t, "second", result.Data[0].Title)
	assert.Equal(t, "b", result.Data[0].Body)
	assert.Equal(t, result.Data[0].Post.ID, result.Data[0].Id)
}

func TestFacadeCreateUpdateDelete(t *testing.T) {
	backend := &fakeBackend{}
	facade := NewFacadeWithBackend(backend)
	ctx := context.Background()

	id, err := facade.CreatePost(ctx, "title", "content")
	require.NoError(t, err)
	assert.False(t, id.IsZero())

	newTitle := "renamed"
	require.NoError(t, facade.UpdatePost(ctx, id, &newTitle, nil))

	got := facade.GetPost(ctx, &id)
	require.NoError(t, got.Err)
	assert.Equal(t, "renamed", got.Data.Title)
	assert.Equal(t, "content", got.Data.Body, "nil content field leaves the body untouched")

	require.NoError(t, facade.DeletePost(ctx, id))
	assert.ErrorIs(t, facade.DeletePost(ctx, id), models.ErrNotFound)
}

func TestFacadeViewerStates(t *testing.T) {
	backend := &fakeBackend{}
	facade := NewFacadeWithBackend(backend)
	ctx := context.Background()

	result := facade.Viewer(ctx)
	assert.Nil(t, result.Data)
	assert.False(t, result.Loading)
	assert.ErrorIs(t, result.Err, models.ErrNotAuthenticated)

	backend.user = &models.User{ID: models.NewUserID(), Email: "a@example.com"}
	result = facade.Viewer(ctx)
	require.NoError(t, result.Err)
	assert.Equal(t, "a@example.com", result.Data.Email)
}

func TestFacadeBackendSelection(t *testing.T) {
	t.Setenv("VESTERIA_USE_REACTIVE", "false")
	facade, api := NewFacade("http://localhost:0")
	require.NotNil(t, api)
	_, isLegacy := facade.backend.(*Client)
	assert.True(t, isLegacy, "false flag selects the legacy client")

	t.Setenv("VESTERIA_USE_REACTIVE", "true")
	facade, _ = NewFacade("http://localhost:0")
	_, isReactive := facade.backend.(*reactiveBackend)
	assert.True(t, isReactive, "true flag selects the reactive client")
}

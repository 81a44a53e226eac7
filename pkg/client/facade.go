package client

import (
	"context"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// Result carries the three-state outcome of a facade query: a value, the
// still-loading state, or an error. Loading means no value has been
// delivered yet and is never an error. For get-by-id queries a nil Data with
// Loading false and a not-found Err is the resolved-but-absent state,
// distinct from loading.
type Result[T any] struct {
	Data    T
	Loading bool
	Err     error
}

func loading[T any]() Result[T] {
	return Result[T]{Loading: true}
}

func resolved[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

func failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Backend is the strategy the facade is built on. Both the legacy
// request/response client and the reactive subscription client satisfy it;
// tests substitute fakes.
type Backend interface {
	ListPosts(ctx context.Context) ([]*models.Post, error)
	GetPost(ctx context.Context, id models.PostID) (*models.Post, error)
	CreatePost(ctx context.Context, title, content string) (*models.Post, error)
	UpdatePost(ctx context.Context, id models.PostID, title, content *string) (*models.Post, error)
	DeletePost(ctx context.Context, id models.PostID) error
	RequestMagicLink(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	Viewer(ctx context.Context) (*models.User, error)
}

// Facade presents the post API in the shape the original screens were
// written against, regardless of which backend serves it. The backend is
// chosen exactly once, at construction; callers hold a facade, never a
// client.
type Facade struct {
	backend Backend
}

// NewFacade builds a facade for the server at baseURL, selecting the backend
// with [UseReactive]. The returned API client is shared with the backend so
// a Verify call authenticates both.
func NewFacade(baseURL string) (*Facade, *Client) {
	api := NewClient(baseURL)
	var backend Backend = api
	if UseReactive() {
		backend = &reactiveBackend{rc: NewReactiveClient(api)}
	}
	return &Facade{backend: backend}, api
}

// NewFacadeWithBackend builds a facade over an explicit backend.
func NewFacadeWithBackend(backend Backend) *Facade {
	return &Facade{backend: backend}
}

// ListPosts returns every post, newest first, in the legacy shape.
func (f *Facade) ListPosts(ctx context.Context) Result[[]*models.LegacyPost] {
	posts, err := f.backend.ListPosts(ctx)
	if err != nil {
		return failed[[]*models.LegacyPost](err)
	}
	return resolved(ToLegacyList(posts))
}

// GetPost returns one post in the legacy shape. A nil id is the
// not-yet-known state: the query is skipped entirely, no request is made,
// and the loading envelope comes back. A missing id resolves to a nil post
// with a not-found error.
func (f *Facade) GetPost(ctx context.Context, id *models.PostID) Result[*models.LegacyPost] {
	if id == nil {
		return loading[*models.LegacyPost]()
	}

	post, err := f.backend.GetPost(ctx, *id)
	if err != nil {
		return failed[*models.LegacyPost](err)
	}
	return resolved(ToLegacy(post))
}

// CreatePost creates a post and returns its new identifier.
func (f *Facade) CreatePost(ctx context.Context, title, content string) (models.PostID, error) {
	post, err := f.backend.CreatePost(ctx, title, content)
	if err != nil {
		return models.PostID{}, err
	}
	return post.ID, nil
}

// UpdatePost applies a partial patch; nil fields are left unchanged.
func (f *Facade) UpdatePost(ctx context.Context, id models.PostID, title, content *string) error {
	_, err := f.backend.UpdatePost(ctx, id, title, content)
	return err
}

// DeletePost deletes a post.
func (f *Facade) DeletePost(ctx context.Context, id models.PostID) error {
	return f.backend.DeletePost(ctx, id)
}

// SignIn requests a magic link for the email address. It resolves as soon as
// the mail is sent; completing sign-in happens out of band when the link is
// clicked.
func (f *Facade) SignIn(ctx context.Context, email string) error {
	return f.backend.RequestMagicLink(ctx, email)
}

// SignOut ends the current session.
func (f *Facade) SignOut(ctx context.Context) error {
	return f.backend.SignOut(ctx)
}

// Viewer returns the signed-in user. Unauthenticated resolves to a nil user
// with an error satisfying errors.Is(err, models.ErrNotAuthenticated), never
// a crash.
func (f *Facade) Viewer(ctx context.Context) Result[*models.User] {
	user, err := f.backend.Viewer(ctx)
	if err != nil {
		return failed[*models.User](err)
	}
	return resolved(user)
}

// reactiveBackend serves reads from the live subscription feed and routes
// mutations through the shared API client. Each read opens a short-lived
// subscription and takes its first snapshot, so reads observe exactly what a
// long-lived subscriber would.
type reactiveBackend struct {
	rc *ReactiveClient
}

func (b *reactiveBackend) ListPosts(ctx context.Context) ([]*models.Post, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := b.rc.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	select {
	case posts, ok := <-ch:
		if !ok {
			return nil, ctx.Err()
		}
		return posts, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *reactiveBackend) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	return b.rc.api.GetPost(ctx, id)
}

func (b *reactiveBackend) CreatePost(ctx context.Context, title, content string) (*models.Post, error) {
	return b.rc.api.CreatePost(ctx, title, content)
}

func (b *reactiveBackend) UpdatePost(ctx context.Context, id models.PostID, title, content *string) (*models.Post, error) {
	return b.rc.api.UpdatePost(ctx, id, title, content)
}

func (b *reactiveBackend) DeletePost(ctx context.Context, id models.PostID) error {
	return b.rc.api.DeletePost(ctx, id)
}

func (b *reactiveBackend) RequestMagicLink(ctx context.Context, email string) error {
	return b.rc.api.RequestMagicLink(ctx, email)
}

func (b *reactiveBackend) SignOut(ctx context.Context) error {
	return b.rc.api.SignOut(ctx)
}

func (b *reactiveBackend) Viewer(ctx context.Context) (*models.User, error) {
	return b.rc.api.Viewer(ctx)
}

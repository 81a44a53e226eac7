package vesteria

import (
	"context"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tes-sudo/Vesteria/pkg/client"
	"github.com/Tes-sudo/Vesteria/pkg/models"
	"github.com/Tes-sudo/Vesteria/pkg/store/memory"
)

// captureMailer keeps the last message so tests can pull the magic link out
// of it.
type captureMailer struct {
	mu       sync.Mutex
	lastTo   string
	lastHTML string
}

func (m *captureMailer) Send(ctx context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = to
	m.lastHTML = html
	return nil
}

var tokenPattern = regexp.MustCompile(`token=([A-Za-z0-9._~%-]+)`)

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	match := tokenPattern.FindStringSubmatch(m.lastHTML)
	require.NotNil(t, match, "magic link mail should contain a token")
	return match[1]
}

func newTestServer(t *testing.T) (*httptest.Server, *captureMailer) {
	t.Helper()
	mailer := &captureMailer{}
	app := NewWithStore(&Config{
		AuthSecret: "test-secret",
		BaseURL:    "http://vesteria.test",
		ServerPort: "0",
	}, memory.NewMemoryStore(), mailer)

	server := httptest.NewServer(app.Router())
	t.Cleanup(server.Close)
	t.Cleanup(func() { app.Close() })
	return server, mailer
}

// signIn runs the whole magic-link flow for an email and returns an
// authenticated client.
func signIn(t *testing.T, server *httptest.Server, mailer *captureMailer, email string) *client.Client {
	t.Helper()
	ctx := context.Background()

	c := client.NewClient(server.URL)
	require.NoError(t, c.RequestMagicLink(ctx, email))

	resp, err := c.Verify(ctx, mailer.lastToken(t))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, email, resp.User.Email)
	return c
}

func TestMagicLinkSignIn(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	c := signIn(t, server, mailer, "alice@example.com")
	assert.Equal(t, "alice@example.com", mailer.lastTo)

	user, err := c.Viewer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotNil(t, user.EmailVerified, "following the link verifies the email")

	// A second request for the same address reuses the account.
	c2 := signIn(t, server, mailer, "alice@example.com")
	user2, err := c2.Viewer(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, user2.ID)
}

func TestMagicLinkSingleUse(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	c := client.NewClient(server.URL)
	require.NoError(t, c.RequestMagicLink(ctx, "alice@example.com"))
	token := mailer.lastToken(t)

	_, err := c.Verify(ctx, token)
	require.NoError(t, err)

	// The same emailed link, replayed after the legitimate sign-in.
	replayer := client.NewClient(server.URL)
	_, err = replayer.Verify(ctx, token)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated, "a consumed link must not mint another session")

	// A fresh request issues a fresh link that works once again.
	require.NoError(t, c.RequestMagicLink(ctx, "alice@example.com"))
	_, err = replayer.Verify(ctx, mailer.lastToken(t))
	assert.NoError(t, err)
}

func TestViewerUnauthenticated(t *testing.T) {
	server, _ := newTestServer(t)

	c := client.NewClient(server.URL)
	_, err := c.Viewer(context.Background())
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestSignOutInvalidatesSession(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	c := signIn(t, server, mailer, "alice@example.com")
	token := c.AuthToken()
	require.NoError(t, c.SignOut(ctx))

	c.SetAuthToken(token)
	_, err := c.Viewer(ctx)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated, "a signed-out token must not authenticate")
}

func TestCreateAndListPosts(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	c := signIn(t, server, mailer, "alice@example.com")

	first, err := c.CreatePost(ctx, "First", "hello")
	require.NoError(t, err)
	require.False(t, first.ID.IsZero(), "server assigns the identifier")
	require.False(t, first.CreatedAt.IsZero())

	time.Sleep(5 * time.Millisecond)
	second, err := c.CreatePost(ctx, "Second", "world")
	require.NoError(t, err)

	posts, err := c.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID, "newest post comes first")
	assert.Equal(t, first.ID, posts[1].ID)

	// The account has no name yet, so the joined author falls back.
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "Anonymous", posts[0].Author.Name)
}

func TestCreatePostRequiresTitleAndContent(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	c := signIn(t, server, mailer, "alice@example.com")

	_, err := c.CreatePost(ctx, "", "content without a title")
	assert.Error(t, err)

	_, err = c.CreatePost(ctx, "title without content", "")
	assert.Error(t, err)

	posts, err := c.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts, "rejected posts must not be stored")
}

func TestListPostsByAuthor(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	alice := signIn(t, server, mailer, "alice@example.com")
	bob := signIn(t, server, mailer, "bob@example.com")

	first, err := alice.CreatePost(ctx, "First", "a")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := alice.CreatePost(ctx, "Second", "b")
	require.NoError(t, err)
	_, err = bob.CreatePost(ctx, "Other", "c")
	require.NoError(t, err)

	viewer, err := alice.Viewer(ctx)
	require.NoError(t, err)

	posts, err := alice.ListPostsByAuthor(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2, "only the author's posts are listed")
	assert.Equal(t, second.ID, posts[0].ID, "newest post comes first")
	assert.Equal(t, first.ID, posts[1].ID)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, viewer.ID, posts[0].Author.ID)

	_, err = alice.ListPostsByAuthor(ctx, models.NewUserID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListCommentsByAuthor(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	alice := signIn(t, server, mailer, "alice@example.com")
	bob := signIn(t, server, mailer, "bob@example.com")

	post, err := alice.CreatePost(ctx, "Discuss", "please comment")
	require.NoError(t, err)

	mine, err := alice.CreateComment(ctx, post.ID, "mine")
	require.NoError(t, err)
	_, err = bob.CreateComment(ctx, post.ID, "not mine")
	require.NoError(t, err)

	viewer, err := alice.Viewer(ctx)
	require.NoError(t, err)

	comments, err := alice.ListCommentsByAuthor(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, mine.ID, comments[0].ID)

	_, err = alice.ListCommentsByAuthor(ctx, models.NewUserID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	server, _ := newTestServer(t)

	c := client.NewClient(server.URL)
	_, err := c.CreatePost(context.Background(), "nope", "nope")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestGetPostNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	c := client.NewClient(server.URL)
	_, err := c.GetPost(context.Background(), models.NewPostID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdatePostGuards(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	alice := signIn(t, server, mailer, "alice@example.com")
	post, err := alice.CreatePost(ctx, "Mine", "original")
	require.NoError(t, err)

	title := "hijacked"

	// No session at all.
	anon := client.NewClient(server.URL)
	_, err = anon.UpdatePost(ctx, post.ID, &title, nil)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	// Authenticated but not the author.
	bob := signIn(t, server, mailer, "bob@example.com")
	_, err = bob.UpdatePost(ctx, post.ID, &title, nil)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)

	// Missing target.
	_, err = bob.UpdatePost(ctx, models.NewPostID(), &title, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// The failed attempts changed nothing.
	got, err := alice.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
	assert.Equal(t, "original", got.Content)
}

func TestUpdatePostPartialPatch(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	c := signIn(t, server, mailer, "alice@example.com")
	post, err := c.CreatePost(ctx, "Title", "Content")
	require.NoError(t, err)

	title := "New title"
	updated, err := c.UpdatePost(ctx, post.ID, &title, nil)
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "Content", updated.Content, "omitted field keeps its value")

	content := "New content"
	updated, err = c.UpdatePost(ctx, post.ID, nil, &content)
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "New content", updated.Content)
}

func TestDeletePostTwice(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	c := signIn(t, server, mailer, "alice@example.com")
	post, err := c.CreatePost(ctx, "Short lived", "bye")
	require.NoError(t, err)

	require.NoError(t, c.DeletePost(ctx, post.ID))

	err = c.DeletePost(ctx, post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound, "deleting an already-deleted post resolves to not found")

	_, err = c.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestComments(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx := context.Background()

	alice := signIn(t, server, mailer, "alice@example.com")
	bob := signIn(t, server, mailer, "bob@example.com")

	post, err := alice.CreatePost(ctx, "Discuss", "please comment")
	require.NoError(t, err)

	c1, err := alice.CreateComment(ctx, post.ID, "first!")
	require.NoError(t, err)
	_, err = bob.CreateComment(ctx, post.ID, "second")
	require.NoError(t, err)

	comments, err := alice.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first!", comments[0].Content, "comments are oldest first")

	// Only the comment's author may delete it.
	err = bob.DeleteComment(ctx, c1.ID)
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
	require.NoError(t, alice.DeleteComment(ctx, c1.ID))

	comments, err = alice.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestCommentOnMissingPost(t *testing.T) {
	server, mailer := newTestServer(t)

	c := signIn(t, server, mailer, "alice@example.com")
	_, err := c.CreateComment(context.Background(), models.NewPostID(), "into the void")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestModeEndpointsSingleBackend(t *testing.T) {
	server, _ := newTestServer(t)

	c := client.NewClient(server.URL)
	_, err := c.GetMode(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound, "mode endpoints only exist in the dual-backend configuration")
}

func TestSubscribeReceivesMutations(t *testing.T) {
	server, mailer := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := signIn(t, server, mailer, "alice@example.com")
	seed, err := c.CreatePost(ctx, "Seed", "already there")
	require.NoError(t, err)

	rc := client.NewReactiveClient(c)
	updates, err := rc.Subscribe(ctx)
	require.NoError(t, err)

	// Initial delivery carries the current state.
	initial := <-updates
	require.Len(t, initial, 1)
	assert.Equal(t, seed.ID, initial[0].ID)

	created, err := c.CreatePost(ctx, "Live", "pushed")
	require.NoError(t, err)

	next := <-updates
	require.Len(t, next, 2)
	assert.Equal(t, created.ID, next[0].ID, "new post arrives at the head")

	require.NoError(t, c.DeletePost(ctx, created.ID))
	afterDelete := <-updates
	require.Len(t, afterDelete, 1)
	assert.Equal(t, seed.ID, afterDelete[0].ID)
}

// Package surrealdb provides the SurrealDB implementation of the
// [github.com/Tes-sudo/Vesteria/pkg/store.Store] interface using native
// SurrealQL.
//
// This is the backend the application is migrating to. Records are stored as
// documents addressed by RecordIDs, and authorship is kept twice: as a field
// (author_id, for WHERE queries and for parity with the relational schema)
// and as a graph edge (RELATE user->authored->post) so author-scoped listings
// can use graph traversal.
//
// # CBOR marshaling
//
// SurrealDB speaks CBOR internally, so the connection is configured with the
// surrealcbor codec. The typed IDs in
// [github.com/Tes-sudo/Vesteria/pkg/models] implement MarshalCBOR/
// UnmarshalCBOR with RecordID tag 8, which means models marshal directly to
// SurrealDB records with no intermediate translation types: foreign-key
// fields become RecordIDs automatically, and time.Time round-trips through
// SurrealDB's native datetime. Default Go JSON marshaling does not produce
// these formats; the codec is not optional.
//
// All queries are parameterized. Not-found surfaces as (nil, nil) per the
// store contract.
package surrealdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/Tes-sudo/Vesteria/pkg/models"
	"github.com/Tes-sudo/Vesteria/pkg/store"
)

// SurrealStore implements the Store interface backed by SurrealDB.
type SurrealStore struct {
	db       *surrealdb.DB
	ns       string
	database string
}

// NewSurrealStore connects to SurrealDB over a websocket, configures the
// surrealcbor codec, authenticates when credentials are provided, and selects
// the namespace and database.
func NewSurrealStore(wsURL, namespace, database, username, password string) (store.Store, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// The codec must handle both directions; without it time.Time and
	// RecordID values are rejected by the server.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealStore{
		db:       db,
		ns:       namespace,
		database: database,
	}, nil
}

// Migrate is a no-op. SurrealDB creates tables implicitly when data is first
// inserted, so there is no schema to set up. Explicit DEFINE TABLE/FIELD
// statements could be added here for validation and indexing, but the
// schemaless default keeps both backends migratable with one command.
func (s *SurrealStore) Migrate(ctx context.Context) error {
	return nil
}

// Close closes the database connection.
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// handleNotFound maps SurrealDB's empty-result errors to nil so callers get
// the (nil, nil) absence contract.
func handleNotFound(err error) error {
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
			strings.Contains(errStr, "cannot unmarshal array into Go value") {
			return nil
		}
	}
	return err
}

// User operations

func (s *SurrealStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.User](ctx, s.db, "users", user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	rid := id.RecordID()
	user, err := surrealdb.Select[models.User](ctx, s.db, rid)
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *SurrealStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT * FROM users WHERE email = $email"
	params := map[string]any{
		"email": email,
	}
	result, err := surrealdb.Query[[]models.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		return &(*result)[0].Result[0], nil
	}
	return nil, nil
}

func (s *SurrealStore) UpdateUser(ctx context.Context, user *models.User) error {
	rid := user.ID.RecordID()
	user.UpdatedAt = time.Now()

	_, err := surrealdb.Update[models.User](ctx, s.db, rid, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteUser(ctx context.Context, id models.UserID) error {
	rid := id.RecordID()
	_, err := surrealdb.Delete[models.User](ctx, s.db, rid)
	return err
}

// Post operations

func (s *SurrealStore) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID.IsZero() {
		post.ID = models.NewPostID()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = time.Now()
	}

	// Author is a read-time join, never stored.
	stored := *post
	stored.Author = nil

	_, err := surrealdb.Create[models.Post](ctx, s.db, "posts", &stored)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	// Authorship as a graph edge enables traversal listings.
	relateQuery := "RELATE $user->authored->$post"
	params := map[string]any{
		"user": post.AuthorID.RecordID(),
		"post": post.ID.RecordID(),
	}
	if _, err := surrealdb.Query[any](ctx, s.db, relateQuery, params); err != nil {
		return fmt.Errorf("failed to create authorship relationship: %w", err)
	}

	return nil
}

func (s *SurrealStore) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	rid := id.RecordID()
	post, err := surrealdb.Select[models.Post](ctx, s.db, rid)
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func (s *SurrealStore) UpdatePost(ctx context.Context, post *models.Post) error {
	rid := post.ID.RecordID()
	post.UpdatedAt = time.Now()

	stored := *post
	stored.Author = nil

	_, err := surrealdb.Update[models.Post](ctx, s.db, rid, &stored)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeletePost(ctx context.Context, id models.PostID) error {
	rid := id.RecordID()
	_, err := surrealdb.Delete[models.Post](ctx, s.db, rid)
	return err
}

func (s *SurrealStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	query := "SELECT * FROM posts ORDER BY created_at DESC"
	result, err := surrealdb.Query[[]models.Post](ctx, s.db, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]*models.Post, 0)
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			posts = append(posts, &(*result)[0].Result[i])
		}
	}
	return posts, nil
}

func (s *SurrealStore) ListPostsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Post, error) {
	// Graph traversal from the author; .* retrieves full post records,
	// not just their IDs.
	query := "SELECT ->authored->posts.* AS posts FROM $user"
	params := map[string]any{
		"user": authorID.RecordID(),
	}

	type Result struct {
		Posts []*models.Post `json:"posts"`
	}
	result, err := surrealdb.Query[[]Result](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}

	posts := make([]*models.Post, 0)
	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		posts = append(posts, (*result)[0].Result[0].Posts...)
	}
	return posts, nil
}

// Comment operations

func (s *SurrealStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID.IsZero() {
		comment.ID = models.NewCommentID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.Comment](ctx, s.db, "comments", comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	relateQuery := "RELATE $post->has->$comment"
	params := map[string]any{
		"post":    comment.PostID.RecordID(),
		"comment": comment.ID.RecordID(),
	}
	if _, err := surrealdb.Query[any](ctx, s.db, relateQuery, params); err != nil {
		return fmt.Errorf("failed to create post relationship: %w", err)
	}

	relateQuery2 := "RELATE $user->wrote->$comment"
	params2 := map[string]any{
		"user":    comment.AuthorID.RecordID(),
		"comment": comment.ID.RecordID(),
	}
	if _, err := surrealdb.Query[any](ctx, s.db, relateQuery2, params2); err != nil {
		return fmt.Errorf("failed to create author relationship: %w", err)
	}

	return nil
}

func (s *SurrealStore) GetComment(ctx context.Context, id models.CommentID) (*models.Comment, error) {
	rid := id.RecordID()
	comment, err := surrealdb.Select[models.Comment](ctx, s.db, rid)
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}

func (s *SurrealStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	rid := comment.ID.RecordID()
	comment.UpdatedAt = time.Now()

	_, err := surrealdb.Update[models.Comment](ctx, s.db, rid, comment)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

func (s *SurrealStore) DeleteComment(ctx context.Context, id models.CommentID) error {
	rid := id.RecordID()
	_, err := surrealdb.Delete[models.Comment](ctx, s.db, rid)
	return err
}

func (s *SurrealStore) ListCommentsByPost(ctx context.Context, postID models.PostID) ([]*models.Comment, error) {
	query := "SELECT * FROM comments WHERE post_id = $post ORDER BY created_at ASC"
	params := map[string]any{
		"post": postID.RecordID(),
	}
	result, err := surrealdb.Query[[]models.Comment](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by post: %w", err)
	}

	comments := make([]*models.Comment, 0)
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			comments = append(comments, &(*result)[0].Result[i])
		}
	}
	return comments, nil
}

func (s *SurrealStore) ListCommentsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Comment, error) {
	query := "SELECT * FROM comments WHERE author_id = $author ORDER BY created_at ASC"
	params := map[string]any{
		"author": authorID.RecordID(),
	}
	result, err := surrealdb.Query[[]models.Comment](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by author: %w", err)
	}

	comments := make([]*models.Comment, 0)
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			comments = append(comments, &(*result)[0].Result[i])
		}
	}
	return comments, nil
}

// Magic-link operations

func (s *SurrealStore) CreateMagicLink(ctx context.Context, link *models.MagicLink) error {
	if link.ID.IsZero() {
		link.ID = models.NewMagicLinkID()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	if link.UpdatedAt.IsZero() {
		link.UpdatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.MagicLink](ctx, s.db, "magic_links", link)
	if err != nil {
		return fmt.Errorf("failed to create magic link: %w", err)
	}
	return nil
}

func (s *SurrealStore) ConsumeMagicLink(ctx context.Context, id models.MagicLinkID) (*models.MagicLink, error) {
	// RETURN BEFORE makes the lookup and removal a single statement, so a
	// token exchanges exactly once even under concurrent verification.
	query := "DELETE $link RETURN BEFORE"
	params := map[string]any{
		"link": id.RecordID(),
	}
	result, err := surrealdb.Query[[]models.MagicLink](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to consume magic link: %w", err)
	}

	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		return &(*result)[0].Result[0], nil
	}
	return nil, nil
}

func (s *SurrealStore) DeleteExpiredMagicLinks(ctx context.Context) error {
	query := "DELETE FROM magic_links WHERE expires_at < $now"
	params := map[string]any{
		"now": time.Now(),
	}
	_, err := surrealdb.Query[any](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to delete expired magic links: %w", err)
	}
	return nil
}

// Session operations

func (s *SurrealStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID.IsZero() {
		session.ID = models.NewSessionID()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.Session](ctx, s.db, "sessions", session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	query := "SELECT * FROM sessions WHERE token = $token"
	params := map[string]any{
		"token": token,
	}
	result, err := surrealdb.Query[[]models.Session](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}

	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		return &(*result)[0].Result[0], nil
	}
	return nil, nil
}

func (s *SurrealStore) DeleteSession(ctx context.Context, id models.SessionID) error {
	rid := id.RecordID()
	_, err := surrealdb.Delete[models.Session](ctx, s.db, rid)
	return err
}

func (s *SurrealStore) DeleteExpiredSessions(ctx context.Context) error {
	query := "DELETE FROM sessions WHERE expires_at < $now"
	params := map[string]any{
		"now": time.Now(),
	}
	_, err := surrealdb.Query[any](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}

// Modified-ID listings

func (s *SurrealStore) ListModifiedUserIDs(ctx context.Context, since, until time.Time) ([]models.UserID, error) {
	query := "SELECT id FROM users WHERE updated_at >= $since AND updated_at < $until"
	params := map[string]any{
		"since": since,
		"until": until,
	}
	type row struct {
		ID models.UserID `json:"id"`
	}
	result, err := surrealdb.Query[[]row](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list modified users: %w", err)
	}

	ids := make([]models.UserID, 0)
	if result != nil && len(*result) > 0 {
		for _, r := range (*result)[0].Result {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (s *SurrealStore) ListModifiedPostIDs(ctx context.Context, since, until time.Time) ([]models.PostID, error) {
	query := "SELECT id FROM posts WHERE updated_at >= $since AND updated_at < $until"
	params := map[string]any{
		"since": since,
		"until": until,
	}
	type row struct {
		ID models.PostID `json:"id"`
	}
	result, err := surrealdb.Query[[]row](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list modified posts: %w", err)
	}

	ids := make([]models.PostID, 0)
	if result != nil && len(*result) > 0 {
		for _, r := range (*result)[0].Result {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (s *SurrealStore) ListModifiedCommentIDs(ctx context.Context, since, until time.Time) ([]models.CommentID, error) {
	query := "SELECT id FROM comments WHERE updated_at >= $since AND updated_at < $until"
	params := map[string]any{
		"since": since,
		"until": until,
	}
	type row struct {
		ID models.CommentID `json:"id"`
	}
	result, err := surrealdb.Query[[]row](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list modified comments: %w", err)
	}

	ids := make([]models.CommentID, 0)
	if result != nil && len(*result) > 0 {
		for _, r := range (*result)[0].Result {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

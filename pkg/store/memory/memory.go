// Package memory provides an in-memory Store implementation.
//
// It backs unit tests and local development where neither PostgreSQL nor
// SurrealDB is available, and honors the same contract as the real backends:
// (nil, nil) for missing records, empty slices from listings, full-record
// updates, reverse-chronological post ordering, soft deletes that still show
// up in the modified-ID listings. Records are copied on the way in and out so
// callers never share memory with the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Tes-sudo/Vesteria/pkg/models"
	"github.com/Tes-sudo/Vesteria/pkg/store"
)

// MemoryStore is a map-backed Store guarded by a single RWMutex. It is safe
// for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[models.UserID]*models.User
	posts      map[models.PostID]*models.Post
	comments   map[models.CommentID]*models.Comment
	magicLinks map[models.MagicLinkID]*models.MagicLink
	sessions   map[models.SessionID]*models.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() store.Store {
	return &MemoryStore{
		users:      make(map[models.UserID]*models.User),
		posts:      make(map[models.PostID]*models.Post),
		comments:   make(map[models.CommentID]*models.Comment),
		magicLinks: make(map[models.MagicLinkID]*models.MagicLink),
		sessions:   make(map[models.SessionID]*models.Session),
	}
}

// Migrate is a no-op; there is no schema to create.
func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

// Close is a no-op; there is no connection to release.
func (s *MemoryStore) Close() error { return nil }

func touch(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}

// User operations

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	touch(&user.CreatedAt, &user.UpdatedAt)
	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt.Valid {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email && !u.DeletedAt.Valid {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.UpdatedAt = time.Now()
	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id models.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		u.UpdatedAt = time.Now()
	}
	return nil
}

// Post operations

func (s *MemoryStore) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = models.NewPostID()
	}
	touch(&post.CreatedAt, &post.UpdatedAt)
	p := *post
	p.Author = nil
	s.posts[p.ID] = &p
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok || p.DeletedAt.Valid {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (s *MemoryStore) UpdatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post.UpdatedAt = time.Now()
	p := *post
	p.Author = nil
	s.posts[p.ID] = &p
	return nil
}

func (s *MemoryStore) DeletePost(ctx context.Context, id models.PostID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.DeletedAt.Valid {
			continue
		}
		out := *p
		posts = append(posts, &out)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *MemoryStore) ListPostsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts := make([]*models.Post, 0)
	for _, p := range s.posts {
		if p.AuthorID == authorID && !p.DeletedAt.Valid {
			out := *p
			posts = append(posts, &out)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// Comment operations

func (s *MemoryStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment.ID.IsZero() {
		comment.ID = models.NewCommentID()
	}
	touch(&comment.CreatedAt, &comment.UpdatedAt)
	c := *comment
	s.comments[c.ID] = &c
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, id models.CommentID) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok || c.DeletedAt.Valid {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.UpdatedAt = time.Now()
	c := *comment
	s.comments[c.ID] = &c
	return nil
}

func (s *MemoryStore) DeleteComment(ctx context.Context, id models.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.comments[id]; ok {
		c.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStore) ListCommentsByPost(ctx context.Context, postID models.PostID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID && !c.DeletedAt.Valid {
			out := *c
			comments = append(comments, &out)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *MemoryStore) ListCommentsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if c.AuthorID == authorID && !c.DeletedAt.Valid {
			out := *c
			comments = append(comments, &out)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// Magic-link operations

func (s *MemoryStore) CreateMagicLink(ctx context.Context, link *models.MagicLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if link.ID.IsZero() {
		link.ID = models.NewMagicLinkID()
	}
	touch(&link.CreatedAt, &link.UpdatedAt)
	l := *link
	s.magicLinks[l.ID] = &l
	return nil
}

func (s *MemoryStore) ConsumeMagicLink(ctx context.Context, id models.MagicLinkID) (*models.MagicLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.magicLinks[id]
	if !ok {
		return nil, nil
	}
	delete(s.magicLinks, id)
	out := *l
	return &out, nil
}

func (s *MemoryStore) DeleteExpiredMagicLinks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.magicLinks {
		if l.Expired() {
			delete(s.magicLinks, id)
		}
	}
	return nil
}

// Session operations

func (s *MemoryStore) CreateSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ID.IsZero() {
		session.ID = models.NewSessionID()
	}
	touch(&session.CreatedAt, &session.UpdatedAt)
	sess := *session
	s.sessions[sess.ID] = &sess
	return nil
}

func (s *MemoryStore) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.Token == token {
			out := *sess
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, id models.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) DeleteExpiredSessions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.Expired() {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Modified-ID listings

func (s *MemoryStore) ListModifiedUserIDs(ctx context.Context, since, until time.Time) ([]models.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]models.UserID, 0)
	for id, u := range s.users {
		if modifiedWithin(u.CreatedAt, u.UpdatedAt, since, until) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) ListModifiedPostIDs(ctx context.Context, since, until time.Time) ([]models.PostID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]models.PostID, 0)
	for id, p := range s.posts {
		if modifiedWithin(p.CreatedAt, p.UpdatedAt, since, until) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) ListModifiedCommentIDs(ctx context.Context, since, until time.Time) ([]models.CommentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]models.CommentID, 0)
	for id, c := range s.comments {
		if modifiedWithin(c.CreatedAt, c.UpdatedAt, since, until) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func modifiedWithin(created, updated time.Time, since, until time.Time) bool {
	latest := updated
	if created.After(latest) {
		latest = created
	}
	return !latest.Before(since) && latest.Before(until)
}

// Package postgres provides the PostgreSQL implementation of the
// [github.com/Tes-sudo/Vesteria/pkg/store.Store] interface using GORM.
//
// This is the legacy backend of the migration: a strict relational schema
// with foreign keys, indexes on author and creation time, and soft deletes
// via gorm.DeletedAt. GORM's AutoMigrate owns DDL, so Migrate is safe to run
// on every deploy.
//
// Not-found handling follows the store contract: gorm.ErrRecordNotFound is
// translated into (nil, nil) rather than surfaced to callers.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Tes-sudo/Vesteria/pkg/models"
	"github.com/Tes-sudo/Vesteria/pkg/store"
)

// PostgresStore implements the Store interface backed by PostgreSQL.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to PostgreSQL using the given DSN.
func NewPostgresStore(dsn string) (store.Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates or updates the schema for all application models.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.MagicLink{},
		&models.Session{},
	)
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// User operations

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *PostgresStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id models.UserID) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

// Post operations

func (s *PostgresStore) CreatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

func (s *PostgresStore) GetPost(ctx context.Context, id models.PostID) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostgresStore) UpdatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Save(post).Error
}

func (s *PostgresStore) DeletePost(ctx context.Context, id models.PostID) error {
	return s.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id).Error
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostgresStore) ListPostsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Comment operations

func (s *PostgresStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}

func (s *PostgresStore) GetComment(ctx context.Context, id models.CommentID) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (s *PostgresStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return s.db.WithContext(ctx).Save(comment).Error
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id models.CommentID) error {
	return s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id).Error
}

func (s *PostgresStore) ListCommentsByPost(ctx context.Context, postID models.PostID) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *PostgresStore) ListCommentsByAuthor(ctx context.Context, authorID models.UserID) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Magic-link operations

func (s *PostgresStore) CreateMagicLink(ctx context.Context, link *models.MagicLink) error {
	return s.db.WithContext(ctx).Create(link).Error
}

// ConsumeMagicLink removes the pending link inside a transaction so a token
// can only ever be exchanged once.
func (s *PostgresStore) ConsumeMagicLink(ctx context.Context, id models.MagicLinkID) (*models.MagicLink, error) {
	var link models.MagicLink
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&link, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.MagicLink{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (s *PostgresStore) DeleteExpiredMagicLinks(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Delete(&models.MagicLink{}, "expires_at < ?", time.Now()).Error
}

// Session operations

func (s *PostgresStore) CreateSession(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *PostgresStore) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id models.SessionID) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error
}

func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Delete(&models.Session{}, "expires_at < ?", time.Now()).Error
}

// Modified-ID listings
//
// Unscoped queries include soft-deleted rows so catch-up sync can propagate
// deletions between backends. Soft deletes only stamp deleted_at, so the
// window predicate checks both columns.

const modifiedWindow = "(updated_at >= ? AND updated_at < ?) OR (deleted_at >= ? AND deleted_at < ?)"

func (s *PostgresStore) ListModifiedUserIDs(ctx context.Context, since, until time.Time) ([]models.UserID, error) {
	ids := make([]models.UserID, 0)
	err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where(modifiedWindow, since, until, since, until).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *PostgresStore) ListModifiedPostIDs(ctx context.Context, since, until time.Time) ([]models.PostID, error) {
	ids := make([]models.PostID, 0)
	err := s.db.WithContext(ctx).Unscoped().Model(&models.Post{}).
		Where(modifiedWindow, since, until, since, until).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *PostgresStore) ListModifiedCommentIDs(ctx context.Context, since, until time.Time) ([]models.CommentID, error) {
	ids := make([]models.CommentID, 0)
	err := s.db.WithContext(ctx).Unscoped().Model(&models.Comment{}).
		Where(modifiedWindow, since, until, since, until).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

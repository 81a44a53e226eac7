package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account identified by its email address. Accounts are
// created implicitly the first time an address requests a magic link, so the
// only required field is Email. EmailVerified is set when a magic link for
// the address is followed.
type User struct {
	ID            UserID         `gorm:"type:uuid;primary_key" json:"id"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Name          string         `json:"name,omitempty"`
	Image         string         `json:"image,omitempty"`
	EmailVerified *time.Time     `json:"email_verified,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUserID()
	}
	return nil
}

// DisplayName returns the user's name, falling back to "Anonymous" when the
// account has no name. Read paths join this value into posts so consumers
// never have to special-case unnamed authors.
func (u *User) DisplayName() string {
	if u.Name == "" {
		return "Anonymous"
	}
	return u.Name
}

// AuthorInfo is the denormalized author snapshot joined into a post at read
// time. It is derived, never stored.
type AuthorInfo struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Post represents a text post in its canonical shape. Title and Content are
// required and non-empty; AuthorID is the creating user and is the only
// identity allowed to update or delete the record. Timestamps are assigned
// server side.
//
// Author is populated by read paths that join the users table; it is omitted
// from writes and never persisted with the post.
type Post struct {
	ID        PostID         `gorm:"type:uuid;primary_key" json:"id"`
	Title     string         `gorm:"not null" json:"title"`
	Content   string         `gorm:"not null" json:"content"`
	AuthorID  UserID         `gorm:"type:uuid;not null;index" json:"author_id"`
	Author    *AuthorInfo    `gorm:"-" json:"author,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID.IsZero() {
		p.ID = NewPostID()
	}
	return nil
}

// LegacyPost is the backward-compatible post shape consumed by call sites
// that predate the canonical model. It embeds the canonical fields and adds
// three aliases: Id mirrors ID, Body mirrors Content, UserId mirrors
// AuthorID. The aliases exist only on adapter output and are never mutated
// independently of their canonical counterparts.
type LegacyPost struct {
	Post
	Id     PostID `json:"_id"`
	Body   string `json:"body"`
	UserId UserID `json:"userId"`
}

// Comment represents a reply attached to a post.
type Comment struct {
	ID        CommentID      `gorm:"type:uuid;primary_key" json:"id"`
	PostID    PostID         `gorm:"type:uuid;not null;index" json:"post_id"`
	AuthorID  UserID         `gorm:"type:uuid;not null;index" json:"author_id"`
	Content   string         `gorm:"not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewCommentID()
	}
	return nil
}

// MagicLink represents a pending magic-link sign-in. One record is created
// when the link is mailed and removed the first time it is verified, which is
// what makes an emailed link single-use: a replayed token finds no record and
// is rejected even though its signature is still valid. The ID doubles as the
// token's jti claim.
type MagicLink struct {
	ID        MagicLinkID `gorm:"type:uuid;primary_key" json:"id"`
	Email     string      `gorm:"not null;index" json:"email"`
	ExpiresAt time.Time   `gorm:"index" json:"expires_at"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (m *MagicLink) BeforeCreate(tx *gorm.DB) error {
	if m.ID.IsZero() {
		m.ID = NewMagicLinkID()
	}
	return nil
}

// Expired reports whether the link is past its expiry.
func (m *MagicLink) Expired() bool {
	return time.Now().After(m.ExpiresAt)
}

// Session represents an authenticated login. The Token is the opaque bearer
// credential handed to the client after a magic link is followed; everything
// else is server state. Sessions live in the store rather than in process
// memory so they survive restarts and exist in whichever backend is active
// during a migration window.
type Session struct {
	ID        SessionID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    UserID    `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID.IsZero() {
		s.ID = NewSessionID()
	}
	return nil
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

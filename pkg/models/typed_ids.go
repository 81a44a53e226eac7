package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Typed identifiers wrap uuid.UUID so a PostID can never be passed where a
// UserID is expected. Each type carries every codec the dual-store design
// needs: JSON strings for the REST API, CBOR RecordIDs (tag 8) for SurrealDB,
// and driver.Valuer/sql.Scanner plus a GormDataType for PostgreSQL.

// UserID is a typed ID for users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func NewUserIDFromUUID(id uuid.UUID) UserID {
	return UserID{uuid: id}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UserID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "users",
		ID:    u.uuid.String(),
	}
}

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	u.uuid = id
	return nil
}

func (u UserID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"users", u.uuid.String()},
	})
}

func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "users", &u.uuid)
}

func (u UserID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UserID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UserID) GormDataType() string { return "uuid" }

// PostID is a typed ID for posts
type PostID struct {
	uuid uuid.UUID
}

func NewPostID() PostID {
	return PostID{uuid: uuid.New()}
}

func NewPostIDFromUUID(id uuid.UUID) PostID {
	return PostID{uuid: id}
}

func ParsePostID(s string) (PostID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PostID{}, fmt.Errorf("invalid post ID: %w", err)
	}
	return PostID{uuid: id}, nil
}

func (p PostID) UUID() uuid.UUID { return p.uuid }
func (p PostID) String() string  { return p.uuid.String() }
func (p PostID) IsZero() bool    { return p.uuid == uuid.Nil }

func (p PostID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "posts",
		ID:    p.uuid.String(),
	}
}

func (p PostID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *PostID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	p.uuid = id
	return nil
}

func (p PostID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"posts", p.uuid.String()},
	})
}

func (p *PostID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "posts", &p.uuid)
}

func (p PostID) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.uuid.String(), nil
}

func (p *PostID) Scan(value any) error {
	return scanUUID(value, &p.uuid)
}

func (PostID) GormDataType() string { return "uuid" }

// CommentID is a typed ID for comments
type CommentID struct {
	uuid uuid.UUID
}

func NewCommentID() CommentID {
	return CommentID{uuid: uuid.New()}
}

func NewCommentIDFromUUID(id uuid.UUID) CommentID {
	return CommentID{uuid: id}
}

func ParseCommentID(s string) (CommentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CommentID{}, fmt.Errorf("invalid comment ID: %w", err)
	}
	return CommentID{uuid: id}, nil
}

func (c CommentID) UUID() uuid.UUID { return c.uuid }
func (c CommentID) String() string  { return c.uuid.String() }
func (c CommentID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CommentID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "comments",
		ID:    c.uuid.String(),
	}
}

func (c CommentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CommentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c CommentID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"comments", c.uuid.String()},
	})
}

func (c *CommentID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "comments", &c.uuid)
}

func (c CommentID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CommentID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CommentID) GormDataType() string { return "uuid" }

// SessionID is a typed ID for sessions
type SessionID struct {
	uuid uuid.UUID
}

func NewSessionID() SessionID {
	return SessionID{uuid: uuid.New()}
}

func NewSessionIDFromUUID(id uuid.UUID) SessionID {
	return SessionID{uuid: id}
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("invalid session ID: %w", err)
	}
	return SessionID{uuid: id}, nil
}

func (s SessionID) UUID() uuid.UUID { return s.uuid }
func (s SessionID) String() string  { return s.uuid.String() }
func (s SessionID) IsZero() bool    { return s.uuid == uuid.Nil }

func (s SessionID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "sessions",
		ID:    s.uuid.String(),
	}
}

func (s SessionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.uuid.String())
}

func (s *SessionID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return err
	}
	s.uuid = id
	return nil
}

func (s SessionID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"sessions", s.uuid.String()},
	})
}

func (s *SessionID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "sessions", &s.uuid)
}

func (s SessionID) Value() (driver.Value, error) {
	if s.IsZero() {
		return nil, nil
	}
	return s.uuid.String(), nil
}

func (s *SessionID) Scan(value any) error {
	return scanUUID(value, &s.uuid)
}

func (SessionID) GormDataType() string { return "uuid" }

// MagicLinkID is a typed ID for pending magic-link sign-ins
type MagicLinkID struct {
	uuid uuid.UUID
}

func NewMagicLinkID() MagicLinkID {
	return MagicLinkID{uuid: uuid.New()}
}

func NewMagicLinkIDFromUUID(id uuid.UUID) MagicLinkID {
	return MagicLinkID{uuid: id}
}

func ParseMagicLinkID(s string) (MagicLinkID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MagicLinkID{}, fmt.Errorf("invalid magic link ID: %w", err)
	}
	return MagicLinkID{uuid: id}, nil
}

func (m MagicLinkID) UUID() uuid.UUID { return m.uuid }
func (m MagicLinkID) String() string  { return m.uuid.String() }
func (m MagicLinkID) IsZero() bool    { return m.uuid == uuid.Nil }

func (m MagicLinkID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "magic_links",
		ID:    m.uuid.String(),
	}
}

func (m MagicLinkID) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.uuid.String())
}

func (m *MagicLinkID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	m.uuid = id
	return nil
}

func (m MagicLinkID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"magic_links", m.uuid.String()},
	})
}

func (m *MagicLinkID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "magic_links", &m.uuid)
}

func (m MagicLinkID) Value() (driver.Value, error) {
	if m.IsZero() {
		return nil, nil
	}
	return m.uuid.String(), nil
}

func (m *MagicLinkID) Scan(value any) error {
	return scanUUID(value, &m.uuid)
}

func (MagicLinkID) GormDataType() string { return "uuid" }

// Helper functions

// scanUUID is a helper for implementing sql.Scanner interface for PostgreSQL/GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID is a helper for unmarshaling SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol.
// The RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	// SurrealDB uses tag 8 for RecordID
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}

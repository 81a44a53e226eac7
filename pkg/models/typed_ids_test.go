package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostIDParseRoundTrip(t *testing.T) {
	id := NewPostID()

	parsed, err := ParsePostID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParsePostID("not-a-uuid")
	assert.Error(t, err)
}

func TestPostIDJSON(t *testing.T) {
	id := NewPostID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(data))

	var decoded PostID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestIDZeroValue(t *testing.T) {
	var id UserID
	assert.True(t, id.IsZero())
	assert.False(t, NewUserID().IsZero())
}

func TestIDTypesAreDistinct(t *testing.T) {
	// The typed wrappers only ever compare within their own table; the
	// SurrealDB record IDs they render to carry the table name.
	post := NewPostID()
	assert.Equal(t, "posts", post.RecordID().Table)

	user := NewUserID()
	assert.Equal(t, "users", user.RecordID().Table)
}

func TestUserDisplayNameFallback(t *testing.T) {
	u := &User{Email: "x@example.com"}
	assert.Equal(t, "Anonymous", u.DisplayName())

	u.Name = "Xavier"
	assert.Equal(t, "Xavier", u.DisplayName())
}

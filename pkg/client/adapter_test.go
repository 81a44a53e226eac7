package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tes-sudo/Vesteria/pkg/models"
)

func TestToLegacyAliases(t *testing.T) {
	post := &models.Post{
		ID:       models.NewPostID(),
		Title:    "Hello",
		Content:  "First post",
		AuthorID: models.NewUserID(),
	}

	legacy := ToLegacy(post)
	require.NotNil(t, legacy)

	assert.Equal(t, post.ID, legacy.Id)
	assert.Equal(t, post.Content, legacy.Body)
	assert.Equal(t, post.AuthorID, legacy.UserId)

	// Canonical fields survive alongside the aliases.
	assert.Equal(t, post.ID, legacy.Post.ID)
	assert.Equal(t, post.Title, legacy.Title)
	assert.Equal(t, post.Content, legacy.Post.Content)
}

func TestToLegacyNilPassthrough(t *testing.T) {
	assert.Nil(t, ToLegacy(nil))
	assert.Nil(t, ToLegacyList(nil))
}

func TestToLegacyIdempotent(t *testing.T) {
	post := &models.Post{
		ID:       models.NewPostID(),
		Title:    "Once",
		Content:  "Twice",
		AuthorID: models.NewUserID(),
	}

	once := ToLegacy(post)
	twice := ToLegacy(&once.Post)
	assert.Equal(t, once, twice)
}

func TestToLegacyListPreservesOrder(t *testing.T) {
	posts := []*models.Post{
		{ID: models.NewPostID(), Title: "newest"},
		{ID: models.NewPostID(), Title: "older"},
		nil,
	}

	legacy := ToLegacyList(posts)
	require.Len(t, legacy, 3)
	assert.Equal(t, "newest", legacy[0].Title)
	assert.Equal(t, "older", legacy[1].Title)
	assert.Nil(t, legacy[2])
}

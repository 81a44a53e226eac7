package client

import "github.com/Tes-sudo/Vesteria/pkg/models"

// ToLegacy renders a post in the field naming the original frontend was
// written against. It is pure and total: nil passes through unchanged, and
// applying it to an already-adapted post is a no-op because the aliases are
// plain copies of the canonical fields.
func ToLegacy(post *models.Post) *models.LegacyPost {
	if post == nil {
		return nil
	}
	return &models.LegacyPost{
		Post:   *post,
		Id:     post.ID,
		Body:   post.Content,
		UserId: post.AuthorID,
	}
}

// ToLegacyList adapts a whole list, preserving order. Nil elements stay nil.
func ToLegacyList(posts []*models.Post) []*models.LegacyPost {
	if posts == nil {
		return nil
	}
	legacy := make([]*models.LegacyPost, len(posts))
	for i, post := range posts {
		legacy[i] = ToLegacy(post)
	}
	return legacy
}

package auth

import "github.com/dmitrijs2005/gopherblog/internal/server/models"

// IsOwner reports whether id is the recorded author of post. Missing identity,
// missing post or a post without an author all mean "not the owner".
func IsOwner(id *Identity, post *models.Post) bool {
	if id == nil || post == nil {
		return false
	}
	if id.UserID == "" || post.AuthorID == "" {
		return false
	}
	return id.UserID == post.AuthorID
}

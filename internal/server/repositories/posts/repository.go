package posts

import (
	"context"

	"github.com/dmitrijs2005/gopherblog/internal/server/models"
)

// Repository is the post store. Lookups by an unknown or malformed id report
// common.ErrorNotFound. Reads populate Post.Author.
type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id string, fields models.PostFields, cover string) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]*models.Post, error)
}

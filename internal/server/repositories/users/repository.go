package users

import (
	"context"

	"github.com/dmitrijs2005/gopherblog/internal/server/models"
)

// Repository is the credential store. Create reports common.ErrDuplicateUsername
// when the username is taken; GetUserByLogin reports common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

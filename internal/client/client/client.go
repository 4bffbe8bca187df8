package client

import (
	"context"

	"github.com/dmitrijs2005/gopherblog/internal/client/models"
)

// NewPost is what the CLI sends to create a post. CoverPath is optional.
type NewPost struct {
	Title     string
	Summary   string
	Content   string
	CoverPath string
}

type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.Identity, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.Identity, error)
	ListPosts(ctx context.Context) ([]*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, p NewPost) (*models.Post, error)
	DeletePost(ctx context.Context, id string) (*models.Post, error)
	LoggedIn() bool
}

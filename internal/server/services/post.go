package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/dbx"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/server/auth"
	"github.com/dmitrijs2005/gopherblog/internal/server/models"
	"github.com/dmitrijs2005/gopherblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopherblog/internal/server/storage"
)

// ListLimit caps the number of posts returned by List.
const ListLimit = 20

// PostService runs post operations. Mutations check existence before
// ownership and run inside one transaction with the row locked.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     storage.Storage
	logger      logging.Logger
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, st storage.Storage, logger logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		storage:     st,
		logger:      logger,
	}
}

func validateFields(f models.PostFields) error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	return nil
}

// Create stores the cover (if any) and then the post authored by id.
func (s *PostService) Create(ctx context.Context, id *auth.Identity, fields models.PostFields, cover *storage.Upload) (*models.Post, error) {
	if id == nil {
		return nil, common.ErrMissingCredential
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	ref, err := s.saveCover(ctx, cover)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Posts(s.db)
	post, err := repo.Create(ctx, &models.Post{
		Title:    fields.Title,
		Summary:  fields.Summary,
		Content:  fields.Content,
		Cover:    ref,
		AuthorID: id.UserID,
	})
	if err != nil {
		s.removeCover(ctx, ref)
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	post.Author = &models.PostAuthor{ID: id.UserID, UserName: id.UserName}

	s.logger.Info(ctx, "post created", "post_id", post.ID, "user_id", id.UserID)
	return post, nil
}

// Update replaces the editable fields of post postID. The cover is replaced
// only when a new one is uploaded, and it is stored only once ownership is
// established; the old object is removed afterwards.
func (s *PostService) Update(ctx context.Context, id *auth.Identity, postID string, fields models.PostFields, cover *storage.Upload) (*models.Post, error) {
	if id == nil {
		return nil, common.ErrMissingCredential
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	var newRef string
	var before, after *models.Post
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)

		p, err := repo.FindByIDForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		if !auth.IsOwner(id, p) {
			return common.ErrNotOwner
		}

		newRef, err = s.saveCover(ctx, cover)
		if err != nil {
			return err
		}

		ref := p.Cover
		if newRef != "" {
			ref = newRef
		}
		after, err = repo.Update(ctx, postID, fields, ref)
		if err != nil {
			return err
		}
		before = p
		return nil
	})
	if err != nil {
		s.removeCover(ctx, newRef)
		return nil, err
	}

	if newRef != "" && before.Cover != newRef {
		s.removeCover(ctx, before.Cover)
	}

	s.logger.Info(ctx, "post updated", "post_id", postID, "user_id", id.UserID)
	return after, nil
}

// Delete removes post postID and returns it as it was.
func (s *PostService) Delete(ctx context.Context, id *auth.Identity, postID string) (*models.Post, error) {
	if id == nil {
		return nil, common.ErrMissingCredential
	}

	var deleted *models.Post
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)

		p, err := repo.FindByIDForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		if !auth.IsOwner(id, p) {
			return common.ErrNotOwner
		}
		if err := repo.Delete(ctx, postID); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.removeCover(ctx, deleted.Cover)

	s.logger.Info(ctx, "post deleted", "post_id", postID, "user_id", id.UserID)
	return deleted, nil
}

func (s *PostService) Get(ctx context.Context, postID string) (*models.Post, error) {
	return s.repomanager.Posts(s.db).FindByID(ctx, postID)
}

// List returns the newest posts, at most ListLimit.
func (s *PostService) List(ctx context.Context) ([]*models.Post, error) {
	return s.repomanager.Posts(s.db).List(ctx, ListLimit)
}

func (s *PostService) saveCover(ctx context.Context, cover *storage.Upload) (string, error) {
	if cover == nil {
		return "", nil
	}
	ref, err := s.storage.Save(ctx, cover)
	if err != nil {
		return "", fmt.Errorf("error storing cover: %w", err)
	}
	return ref, nil
}

// removeCover deletes a stored cover, logging failures. It runs even if ctx
// has been canceled.
func (s *PostService) removeCover(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.storage.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.logger.Warn(ctx, "cover cleanup failed", "ref", ref, "error", err)
	}
}

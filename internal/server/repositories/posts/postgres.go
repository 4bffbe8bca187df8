// Package posts provides the PostgreSQL-backed post store.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/dbx"
	"github.com/dmitrijs2005/gopherblog/internal/server/models"
	"github.com/google/uuid"
)

const selectPost = `SELECT p.id, p.title, p.summary, p.content, p.cover, p.author_id, u.username, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	p := &models.Post{Author: &models.PostAuthor{}}
	err := row.Scan(&p.ID, &p.Title, &p.Summary, &p.Content, &p.Cover,
		&p.AuthorID, &p.Author.UserName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Author.ID = p.AuthorID
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (title, summary, content, cover, author_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Summary, post.Content, post.Cover, post.AuthorID).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	return r.findOne(ctx, selectPost+`WHERE p.id = $1`, id)
}

func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Post, error) {
	return r.findOne(ctx, selectPost+`WHERE p.id = $1 FOR UPDATE OF p`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query, id string) (*models.Post, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Update overwrites the editable fields and the cover reference. The author
// is never touched.
func (r *PostgresRepository) Update(ctx context.Context, id string, fields models.PostFields, cover string) (*models.Post, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`WITH p AS (
			UPDATE posts SET title = $2, summary = $3, content = $4, cover = $5, updated_at = now()
			WHERE id = $1
			RETURNING id, title, summary, content, cover, author_id, created_at, updated_at
		)
		SELECT p.id, p.title, p.summary, p.content, p.cover, p.author_id, u.username, p.created_at, p.updated_at
		FROM p JOIN users u ON u.id = p.author_id
		`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, id, fields.Title, fields.Summary, fields.Content, cover))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// List returns up to limit posts, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, selectPost+`ORDER BY p.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select posts: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/dbx"
	"github.com/dmitrijs2005/gopherblog/internal/server/models"
	"github.com/dmitrijs2005/gopherblog/internal/server/repositories/posts"
	"github.com/dmitrijs2005/gopherblog/internal/server/repositories/users"
	"github.com/dmitrijs2005/gopherblog/internal/server/storage"
	"github.com/google/uuid"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// fakeUsersRepo keeps users in memory and enforces unique usernames.
type fakeUsersRepo struct {
	mu      sync.Mutex
	byName  map[string]*models.User
	getErr  error
	creates int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrDuplicateUsername
	}
	f.creates++
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.byName[u.UserName] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

// fakePostsRepo keeps posts in memory. It does not issue SQL, so the
// transaction boundaries are observed through sqlmock Begin/Commit/Rollback.
type fakePostsRepo struct {
	mu        sync.Mutex
	posts     map[string]*models.Post
	names     map[string]string
	clock     time.Time
	createErr error
	updateErr error
	deleteErr error
	lockCalls int
}

func newFakePostsRepo() *fakePostsRepo {
	return &fakePostsRepo{
		posts: map[string]*models.Post{},
		names: map[string]string{},
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakePostsRepo) withAuthor(p *models.Post) *models.Post {
	out := *p
	out.Author = &models.PostAuthor{ID: p.AuthorID, UserName: f.names[p.AuthorID]}
	return &out
}

func (f *fakePostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.clock = f.clock.Add(time.Minute)
	cp := *p
	cp.ID = uuid.NewString()
	cp.CreatedAt, cp.UpdatedAt = f.clock, f.clock
	f.posts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePostsRepo) FindByID(ctx context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f.withAuthor(p), nil
}

func (f *fakePostsRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	f.lockCalls++
	f.mu.Unlock()
	return f.FindByID(ctx, id)
}

func (f *fakePostsRepo) Update(ctx context.Context, id string, fields models.PostFields, cover string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.clock = f.clock.Add(time.Second)
	p.Title, p.Summary, p.Content, p.Cover = fields.Title, fields.Summary, fields.Content, cover
	p.UpdatedAt = f.clock
	return f.withAuthor(p), nil
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostsRepo) List(ctx context.Context, limit int) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, f.withAuthor(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakePostsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Posts(db dbx.DBTX) posts.Repository          { return m.p }

// fakeStorage records saved and deleted references.
type fakeStorage struct {
	mu      sync.Mutex
	n       int
	saved   []string
	deleted []string
	saveErr error
	delErr  error
	objects map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]bool{}}
}

func (f *fakeStorage) Save(ctx context.Context, u *storage.Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.n++
	ref := "uploads/cover" + string(rune('0'+f.n)) + u.Ext
	f.saved = append(f.saved, ref)
	f.objects[ref] = true
	return ref, nil
}

func (f *fakeStorage) Delete(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, ref)
	return nil
}

var errBoom = errors.New("boom")

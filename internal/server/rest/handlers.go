package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/server/auth"
	"github.com/dmitrijs2005/gopherblog/internal/server/models"
	"github.com/dmitrijs2005/gopherblog/internal/server/services"
	"github.com/dmitrijs2005/gopherblog/internal/server/storage"
	"github.com/gin-gonic/gin"
)

// UserService is satisfied by *services.UserService.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Profile(id *auth.Identity) (*auth.Identity, error)
}

// PostService is satisfied by *services.PostService.
type PostService interface {
	Create(ctx context.Context, id *auth.Identity, fields models.PostFields, cover *storage.Upload) (*models.Post, error)
	Update(ctx context.Context, id *auth.Identity, postID string, fields models.PostFields, cover *storage.Upload) (*models.Post, error)
	Delete(ctx context.Context, id *auth.Identity, postID string) (*models.Post, error)
	Get(ctx context.Context, postID string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
}

// multipartOverhead is allowed on top of MaxUploadSize for the text fields.
const multipartOverhead = 1 << 20

type Handlers struct {
	users         UserService
	posts         PostService
	maxUploadSize int64
}

func NewHandlers(us UserService, ps PostService, maxUploadSize int64) *Handlers {
	return &Handlers{users: us, posts: ps, maxUploadSize: maxUploadSize}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func bindCredentials(c *gin.Context) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: send username and password as JSON", common.ErrorValidation))
		return nil, false
	}
	return &req, true
}

// Register handles POST /register.
func (h *Handlers) Register(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Login handles POST /login.
func (h *Handlers) Login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}
	res, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Profile handles GET /profile.
func (h *Handlers) Profile(c *gin.Context) {
	id, err := h.users.Profile(identityFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, id)
}

// Logout handles POST /logout. Tokens are stateless, so the client just
// forgets its token.
func (h *Handlers) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, "Logged out")
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, "Systems up & running")
}

// readPostForm extracts the text fields and the optional "file" part.
func (h *Handlers) readPostForm(c *gin.Context) (models.PostFields, *storage.Upload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return models.PostFields{}, nil, fmt.Errorf("%w: request exceeds %d bytes", common.ErrorValidation, tooBig.Limit)
		}
		return models.PostFields{}, nil, fmt.Errorf("%w: malformed form: %v", common.ErrorValidation, err)
	}

	fields := models.PostFields{
		Title:   c.PostForm("title"),
		Summary: c.PostForm("summary"),
		Content: c.PostForm("content"),
	}

	if fh == nil {
		return fields, nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return models.PostFields{}, nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	upload, err := storage.NewUpload(fh.Filename, f, h.maxUploadSize)
	if err != nil {
		return models.PostFields{}, nil, err
	}
	return fields, upload, nil
}

// CreatePost handles POST /post.
func (h *Handlers) CreatePost(c *gin.Context) {
	fields, cover, err := h.readPostForm(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	p, err := h.posts.Create(c.Request.Context(), identityFrom(c), fields, cover)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdatePost handles PUT /post (id in the form) and PUT /post/:id.
func (h *Handlers) UpdatePost(c *gin.Context) {
	fields, cover, err := h.readPostForm(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	postID := c.Param("id")
	if postID == "" {
		postID = c.PostForm("id")
	}
	if postID == "" {
		abortWithError(c, fmt.Errorf("%w: post id is required", common.ErrorValidation))
		return
	}

	p, err := h.posts.Update(c.Request.Context(), identityFrom(c), postID, fields, cover)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePost handles DELETE /post/:id and returns the deleted post.
func (h *Handlers) DeletePost(c *gin.Context) {
	p, err := h.posts.Delete(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPost handles GET /post/:id.
func (h *Handlers) GetPost(c *gin.Context) {
	p, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListPosts handles GET /post.
func (h *Handlers) ListPosts(c *gin.Context) {
	ps, err := h.posts.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

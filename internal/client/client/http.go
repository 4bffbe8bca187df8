package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gopherblog/internal/client/models"
	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/google/uuid"
)

// maxResponseSize caps how much of a response body is decoded.
const maxResponseSize = 8 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client

	// session state is read by the online watcher while the REPL logs in and out.
	mu       sync.RWMutex
	token    string
	identity *models.Identity
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates baseURL and returns a client whose calls are
// bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: expected http(s)://host[:port]", baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) LoggedIn() bool { return c.bearerToken() != "" }

// Identity returns the user of the current session, or nil.
func (c *HTTPClient) Identity() *models.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

func (c *HTTPClient) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) setSession(token string, id *models.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.identity = id
}

func (c *HTTPClient) clearSession() {
	c.setSession("", nil)
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := c.bearerToken(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out (when out is non-nil).
// A rejected token ends the local session.
func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseSize)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var er struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		if err := json.NewDecoder(body).Decode(&er); err == nil {
			apiErr.Code = er.Code
			apiErr.Message = er.Error
		}
		if errors.Is(apiErr, common.ErrTokenExpired) || errors.Is(apiErr, common.ErrInvalidToken) {
			c.clearSession()
		}
		if resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusGatewayTimeout {
			return fmt.Errorf("%w: %v", ErrUnavailable, apiErr)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *HTTPClient) requireSession() error {
	if !c.LoggedIn() {
		return ErrUnauthorized
	}
	return nil
}

func validPostID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("%w: %q is not a post id", common.ErrorValidation, id)
	}
	return nil
}

// Ping checks that the API answers its health route.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodPost, "/register", credentials{username, password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.Identity, error) {
	var s models.Session
	if err := c.doJSON(ctx, http.MethodPost, "/login", credentials{username, password}, &s); err != nil {
		return nil, err
	}
	if s.Token == "" {
		return nil, fmt.Errorf("login response carries no token")
	}
	id := s.Identity
	c.setSession(s.Token, &id)
	return &id, nil
}

// Logout tells the server and forgets the token even if that call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	defer c.clearSession()
	return c.doJSON(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.Identity, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var id models.Identity
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *HTTPClient) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	if err := c.doJSON(ctx, http.MethodGet, "/post", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if err := validPostID(id); err != nil {
		return nil, err
	}
	var p models.Post
	if err := c.doJSON(ctx, http.MethodGet, "/post/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if err := validPostID(id); err != nil {
		return nil, err
	}
	var p models.Post
	if err := c.doJSON(ctx, http.MethodDelete, "/post/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePost sends the post as multipart/form-data with the cover, if any,
// in the "file" part.
func (c *HTTPClient) CreatePost(ctx context.Context, np NewPost) (*models.Post, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	body, contentType, err := encodePostForm(np)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/post", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var p models.Post
	if err := c.do(req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func encodePostForm(np NewPost) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range []struct{ name, value string }{
		{"title", np.Title},
		{"summary", np.Summary},
		{"content", np.Content},
	} {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if np.CoverPath != "" {
		f, err := os.Open(np.CoverPath)
		if err != nil {
			return nil, "", fmt.Errorf("open cover: %w", err)
		}
		defer f.Close()

		part, err := mw.CreateFormFile("file", filepath.Base(np.CoverPath))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("read cover: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

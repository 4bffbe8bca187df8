package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/server/auth"
	"github.com/dmitrijs2005/gopherblog/internal/server/models"
	"github.com/dmitrijs2005/gopherblog/internal/server/services"
	"github.com/dmitrijs2005/gopherblog/internal/server/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice   = auth.Identity{UserID: "11111111-1111-4111-8111-111111111111", UserName: "alice"}
	pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
)

type stubUsers struct {
	register func(ctx context.Context, u, p string) (*models.User, error)
	login    func(ctx context.Context, u, p string) (*services.LoginResult, error)
}

func (s *stubUsers) Register(ctx context.Context, u, p string) (*models.User, error) {
	return s.register(ctx, u, p)
}

func (s *stubUsers) Login(ctx context.Context, u, p string) (*services.LoginResult, error) {
	return s.login(ctx, u, p)
}

func (s *stubUsers) Profile(id *auth.Identity) (*auth.Identity, error) {
	if id == nil {
		return nil, common.ErrMissingCredential
	}
	return id, nil
}

type stubPosts struct {
	calls  int
	gotID  string
	gotFld models.PostFields
	gotCov *storage.Upload
	gotWho *auth.Identity
	post   *models.Post
	list   []*models.Post
	err    error
	block  bool
}

func (s *stubPosts) record(ctx context.Context, who *auth.Identity, id string, f models.PostFields, cov *storage.Upload) (*models.Post, error) {
	s.calls++
	s.gotWho, s.gotID, s.gotFld, s.gotCov = who, id, f, cov
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.post, s.err
}

func (s *stubPosts) Create(ctx context.Context, who *auth.Identity, f models.PostFields, cov *storage.Upload) (*models.Post, error) {
	return s.record(ctx, who, "", f, cov)
}

func (s *stubPosts) Update(ctx context.Context, who *auth.Identity, id string, f models.PostFields, cov *storage.Upload) (*models.Post, error) {
	return s.record(ctx, who, id, f, cov)
}

func (s *stubPosts) Delete(ctx context.Context, who *auth.Identity, id string) (*models.Post, error) {
	return s.record(ctx, who, id, models.PostFields{}, nil)
}

func (s *stubPosts) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.record(ctx, nil, id, models.PostFields{}, nil)
}

func (s *stubPosts) List(ctx context.Context) ([]*models.Post, error) {
	s.calls++
	return s.list, s.err
}

type linkerStub struct{}

func (linkerStub) Save(context.Context, *storage.Upload) (string, error) { return "", nil }
func (linkerStub) Delete(context.Context, string) error                  { return nil }
func (linkerStub) URL(_ context.Context, ref string) (string, error) {
	if strings.Contains(ref, "missing") {
		return "", common.ErrorValidation
	}
	return "https://s3.example/" + ref + "?sig=1", nil
}

type env struct {
	router *gin.Engine
	users  *stubUsers
	posts  *stubPosts
	tokens *auth.TokenService
}

func newEnv(t *testing.T, st storage.Storage, timeout time.Duration) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokenService([]byte("test-secret"), 24*time.Hour)
	require.NoError(t, err)

	users := &stubUsers{
		register: func(ctx context.Context, u, p string) (*models.User, error) {
			return &models.User{ID: "u1", UserName: u, PasswordHash: "secret-hash"}, nil
		},
		login: func(ctx context.Context, u, p string) (*services.LoginResult, error) {
			return &services.LoginResult{UserID: "u1", UserName: u, Token: "tok"}, nil
		},
	}
	posts := &stubPosts{post: &models.Post{ID: "p1", Title: "T", AuthorID: alice.UserID}}

	if st == nil {
		st, err = storage.NewLocalStorage(t.TempDir())
		require.NoError(t, err)
	}

	h := NewHandlers(users, posts, 1<<10)
	r := NewRouter(h, auth.NewGate(tokens), st, logging.Nop{}, RouterConfig{
		AllowedOrigins: []string{"http://localhost:5173"},
		RequestTimeout: timeout,
	})
	return &env{router: r, users: users, posts: posts, tokens: tokens}
}

func (e *env) bearer(t *testing.T) string {
	t.Helper()
	tok, err := e.tokens.Issue(alice)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartReq(t *testing.T, method, target string, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealthAndLogout(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	w := e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"Systems up & running"`, w.Body.String())

	w = e.do(httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"Logged out"`, w.Body.String())
}

func TestRegister(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	w := e.do(jsonReq(http.MethodPost, "/register", `{"username":"alice","password":"pw1"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.NotContains(t, w.Body.String(), "secret-hash")

	e.users.register = func(ctx context.Context, u, p string) (*models.User, error) {
		return nil, common.ErrDuplicateUsername
	}
	w = e.do(jsonReq(http.MethodPost, "/register", `{"username":"alice","password":"pw1"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_USERNAME", decodeError(t, w).Code)

	w = e.do(jsonReq(http.MethodPost, "/register", `{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Code)
}

func TestLogin(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	w := e.do(jsonReq(http.MethodPost, "/login", `{"username":"alice","password":"pw1"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","username":"alice","token":"tok"}`, w.Body.String())

	e.users.login = func(ctx context.Context, u, p string) (*services.LoginResult, error) {
		return nil, common.ErrInvalidCredentials
	}
	w = e.do(jsonReq(http.MethodPost, "/login", `{"username":"alice","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "INVALID_CREDENTIALS", body.Code)
	assert.Equal(t, "invalid username or password", body.Error)
}

func TestProfile_GateOutcomes(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	expired, err := auth.GenerateToken(alice, []byte("test-secret"), time.Now().Add(-48*time.Hour), 24*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{name: "no header", header: "", status: http.StatusUnauthorized, code: "MISSING_CREDENTIAL"},
		{name: "scheme only", header: "Bearer", status: http.StatusUnauthorized, code: "MISSING_CREDENTIAL"},
		{name: "garbage token", header: "Bearer abc", status: http.StatusForbidden, code: "INVALID_TOKEN"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusForbidden, code: "INVALID_TOKEN"},
		{name: "expired", header: "Bearer " + expired, status: http.StatusForbidden, code: "TOKEN_EXPIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := e.do(req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", e.bearer(t))
	w := e.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+alice.UserID+`","username":"alice"}`, w.Body.String())
}

func TestCreatePost_WithCover(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	req := multipartReq(t, http.MethodPost, "/post", map[string]string{"title": "T", "summary": "S", "content": "C"}, "cover.png", pngData)
	req.Header.Set("Authorization", e.bearer(t))
	w := e.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.PostFields{Title: "T", Summary: "S", Content: "C"}, e.posts.gotFld)
	require.NotNil(t, e.posts.gotCov)
	assert.Equal(t, "image/png", e.posts.gotCov.MIME)
	assert.Equal(t, ".png", e.posts.gotCov.Ext)
	assert.Equal(t, alice, *e.posts.gotWho)
}

func TestCreatePost_CoverNamedAsHTML(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	req := multipartReq(t, http.MethodPost, "/post", map[string]string{"title": "T"}, "evil.html", pngData)
	req.Header.Set("Authorization", e.bearer(t))
	w := e.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, e.posts.gotCov)
	assert.Equal(t, ".png", e.posts.gotCov.Ext)
}

func TestCreatePost_WithoutCover(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	req := multipartReq(t, http.MethodPost, "/post", map[string]string{"title": "T"}, "", nil)
	req.Header.Set("Authorization", e.bearer(t))
	w := e.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, e.posts.gotCov)
}

func TestCreatePost_Rejections(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	req := multipartReq(t, http.MethodPost, "/post", map[string]string{"title": "T"}, "cover.png", pngData)
	w := e.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = multipartReq(t, http.MethodPost, "/post", map[string]string{"title": "T"}, "notes.txt", []byte("plain text here"))
	req.Header.Set("Authorization", e.bearer(t))
	w = e.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA", decodeError(t, w).Code)

	big := append(append([]byte{}, pngData...), make([]byte, 2<<10)...)
	req = multipartReq(t, http.MethodPost, "/post", map[string]string{"title": "T"}, "big.png", big)
	req.Header.Set("Authorization", e.bearer(t))
	w = e.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Code)

	assert.Zero(t, e.posts.calls, "service never reached")
}

func TestUpdatePost_IDSources(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	req := multipartReq(t, http.MethodPut, "/post", map[string]string{"id": "p-form", "title": "T2"}, "", nil)
	req.Header.Set("Authorization", e.bearer(t))
	w := e.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "p-form", e.posts.gotID)

	req = multipartReq(t, http.MethodPut, "/post/p-path", map[string]string{"title": "T2"}, "", nil)
	req.Header.Set("Authorization", e.bearer(t))
	w = e.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "p-path", e.posts.gotID)

	req = multipartReq(t, http.MethodPut, "/post", map[string]string{"title": "T2"}, "", nil)
	req.Header.Set("Authorization", e.bearer(t))
	w = e.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePost_URLEncodedForm(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	req := httptest.NewRequest(http.MethodPut, "/post/p1", strings.NewReader("title=T3&summary=S3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", e.bearer(t))
	w := e.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "T3", e.posts.gotFld.Title)
	assert.Nil(t, e.posts.gotCov)
}

func TestMutations_ErrorMapping(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	e.posts.err = common.ErrNotOwner
	e.posts.post = nil
	req := httptest.NewRequest(http.MethodDelete, "/post/p1", nil)
	req.Header.Set("Authorization", e.bearer(t))
	w := e.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, ErrorResponse{Code: "NOT_OWNER", Error: "you are not the author"}, decodeError(t, w))

	e.posts.err = common.ErrorNotFound
	req = httptest.NewRequest(http.MethodDelete, "/post/p1", nil)
	req.Header.Set("Authorization", e.bearer(t))
	w = e.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReads_NoAuthNeeded(t *testing.T) {
	e := newEnv(t, nil, time.Second)
	e.posts.list = []*models.Post{{ID: "p2"}, {ID: "p1"}}

	w := e.do(httptest.NewRequest(http.MethodGet, "/post", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = e.do(httptest.NewRequest(http.MethodGet, "/post/p1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", e.posts.gotID)

	e.posts.err = errors.New("pq: relation \"posts\" does not exist")
	w = e.do(httptest.NewRequest(http.MethodGet, "/post/p1", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestRequestTimeout(t *testing.T) {
	e := newEnv(t, nil, 20*time.Millisecond)
	e.posts.block = true

	w := e.do(httptest.NewRequest(http.MethodGet, "/post/p1", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "TIMEOUT", decodeError(t, w).Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(logging.Nop{}))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL", decodeError(t, w).Code)
}

func TestCORS_Preflight(t *testing.T) {
	e := newEnv(t, nil, time.Second)

	req := httptest.NewRequest(http.MethodOptions, "/post", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := e.do(req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/post", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w = e.do(req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploads_LocalStatic(t *testing.T) {
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(st.Dir(), "abc.png"), pngData, 0o600))
	e := newEnv(t, st, time.Second)

	w := e.do(httptest.NewRequest(http.MethodGet, "/uploads/abc.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngData, w.Body.Bytes())

	w = e.do(httptest.NewRequest(http.MethodGet, "/uploads/nope.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploads_Redirect(t *testing.T) {
	e := newEnv(t, linkerStub{}, time.Second)

	w := e.do(httptest.NewRequest(http.MethodGet, "/uploads/2026/10/7/x.png", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://s3.example/uploads/2026/10/7/x.png?sig=1", w.Header().Get("Location"))

	w = e.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{common.ErrorValidation, http.StatusBadRequest},
		{common.ErrUnsupportedMedia, http.StatusBadRequest},
		{common.ErrDuplicateUsername, http.StatusConflict},
		{common.ErrInvalidCredentials, http.StatusUnauthorized},
		{common.ErrMissingCredential, http.StatusUnauthorized},
		{common.ErrInvalidToken, http.StatusForbidden},
		{common.ErrTokenExpired, http.StatusForbidden},
		{common.ErrNotOwner, http.StatusForbidden},
		{common.ErrorNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("anything"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, got, tt.err.Error())
	}
}

package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gopherblog/internal/client/client"
	"github.com/dmitrijs2005/gopherblog/internal/client/models"
)

type fakeClient struct {
	loggedIn bool

	pingErr error
	pings   int

	regUser, regPass string
	regErr           error

	loginUser, loginPass string
	loginErr             error

	logoutErr error

	profile    *models.Identity
	profileErr error

	posts   []*models.Post
	listErr error

	getID  string
	getOut *models.Post
	getErr error

	created   client.NewPost
	createErr error

	delID  string
	delOut *models.Post
	delErr error
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Ping(context.Context) error { f.pings++; return f.pingErr }
func (f *fakeClient) LoggedIn() bool             { return f.loggedIn }

func (f *fakeClient) Register(_ context.Context, u, p string) (*models.User, error) {
	f.regUser, f.regPass = u, p
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &models.User{ID: "u-new", UserName: u}, nil
}

func (f *fakeClient) Login(_ context.Context, u, p string) (*models.Identity, error) {
	f.loginUser, f.loginPass = u, p
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.loggedIn = true
	return &models.Identity{ID: "u1", UserName: u}, nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.loggedIn = false
	return f.logoutErr
}

func (f *fakeClient) Profile(context.Context) (*models.Identity, error) {
	return f.profile, f.profileErr
}

func (f *fakeClient) ListPosts(context.Context) ([]*models.Post, error) {
	return f.posts, f.listErr
}

func (f *fakeClient) GetPost(_ context.Context, id string) (*models.Post, error) {
	f.getID = id
	return f.getOut, f.getErr
}

func (f *fakeClient) CreatePost(_ context.Context, np client.NewPost) (*models.Post, error) {
	f.created = np
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Post{ID: "p-new", Title: np.Title}, nil
}

func (f *fakeClient) DeletePost(_ context.Context, id string) (*models.Post, error) {
	f.delID = id
	return f.delOut, f.delErr
}

func readerFromLines(lines ...string) *bufio.Reader {
	if len(lines) == 0 || lines[len(lines)-1] != "" {
		lines = append(lines, "")
	}
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

func newTestApp(fc *fakeClient, in *bufio.Reader) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		client:  fc,
		baseURL: "http://blog.test",
		reader:  in,
		out:     &out,
	}, &out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	origPw, origNew := getPassword, getNewPassword
	stub := func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	getPassword, getNewPassword = stub, stub
	t.Cleanup(func() { getPassword, getNewPassword = origPw, origNew })
}

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func bufioReader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

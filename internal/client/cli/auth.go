package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gopherblog/internal/common"
)

// Input indirections, swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getRequiredText = GetRequiredText
	getPassword     = GetPassword
	getNewPassword  = GetNewPassword
)

func (a *App) readCredentials(readPw func(io.Writer) ([]byte, error)) (string, []byte, error) {
	userName, err := getRequiredText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := readPw(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register prompts for a username and a confirmed password and creates the
// account. It does not log the user in.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.readCredentials(getNewPassword)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.client.Register(ctx, userName, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s. Use 'login' to sign in.\n", u.UserName)
	return nil
}

// Login prompts for credentials and starts a session on success.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.readCredentials(getPassword)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.client.Login(ctx, userName, string(password))
	if err != nil {
		return err
	}

	a.userName = id.UserName
	fmt.Fprintf(a.out, "Welcome, %s!\n", id.UserName)
	return nil
}

// Logout drops the session locally even when the server call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.userName = ""
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI asks the server who the current token belongs to.
func (a *App) WhoAmI(ctx context.Context) error {
	id, err := a.client.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", id.UserName, id.ID)
	return nil
}

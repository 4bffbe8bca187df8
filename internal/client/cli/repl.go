package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/client/client"
	"github.com/dmitrijs2005/gopherblog/internal/common"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Create(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// describe turns a command error into a line for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, common.ErrMissingCredential):
		return "You need to log in first"
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrInvalidToken):
		return "Session is no longer valid, please log in again"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, try again later"
	case errors.Is(err, common.ErrNotOwner):
		return "Only the author can do that"
	case errors.Is(err, common.ErrorNotFound):
		return "No such post"
	}
	return err.Error()
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF or when the user types "exit" or "quit". Command errors
// are reported and the loop goes on.
//
//	Not logged in: help, register, login, list, show <id>, exit
//	Logged in:     help, whoami, list, show <id>, post, delete <id>, logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("blog%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, (l)ist, show <id>, post, delete <id>, logout, exit")
			} else {
				printlnFn("Available commands: register, login, (l)ist, show <id>, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "l", "list":
			cmdErr = a.List(ctx)

		case "post":
			cmdErr = a.Create(ctx)

		case "show", "delete":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			if cmd == "show" {
				cmdErr = a.Show(ctx, args[0])
			} else {
				cmdErr = a.Delete(ctx, args[0])
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
	}
}

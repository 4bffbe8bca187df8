package cli

import (
	"context"
	"fmt"
	"log"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" && a.isLoggedIn() {
		s = a.userName + " "
	}
	s = s + string(a.Mode())
	if s != "" {
		s = fmt.Sprintf(" (%s)", s)
	}
	return s
}

// Root runs the REPL on the app's reader until the user exits.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to the blog CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

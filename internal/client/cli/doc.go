// Package cli provides the interactive blog command-line client.
//
// It wires configuration and the HTTP API client into a small REPL. A
// background watcher pings the server and flips the prompt between online
// and offline.
//
// Commands:
//   - register / login / logout / whoami
//   - list, show <id>
//   - post (create, optional cover file), delete <id>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// stdin is closed.
package cli

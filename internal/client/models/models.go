// Package models defines the API payloads the blog CLI reads and prints.
package models

import (
	"strings"
	"time"
)

// Identity is the user a session belongs to.
type Identity struct {
	ID       string `json:"id"`
	UserName string `json:"username"`
}

// Session is the body returned by POST /login.
type Session struct {
	Identity
	Token string `json:"token"`
}

// User is the body returned by POST /register.
type User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type Author struct {
	ID       string `json:"id"`
	UserName string `json:"username"`
}

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Cover     string    `json:"cover,omitempty"`
	Author    *Author   `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorName returns the author's username or "?" when the server did not
// include one.
func (p *Post) AuthorName() string {
	if p.Author == nil || p.Author.UserName == "" {
		return "?"
	}
	return p.Author.UserName
}

// CoverURL resolves the cover reference against the API base URL. It
// returns "" for posts without a cover.
func (p *Post) CoverURL(baseURL string) string {
	if p.Cover == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(p.Cover, "/")
}

package models

import "time"

// Post is a blog post. AuthorID is set at creation and never changes; Author
// is populated on reads that join the users table.
type Post struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Summary   string      `json:"summary"`
	Content   string      `json:"content"`
	Cover     string      `json:"cover,omitempty"`
	AuthorID  string      `json:"-"`
	Author    *PostAuthor `json:"author,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// PostAuthor is the public projection of a post's author.
type PostAuthor struct {
	ID       string `json:"id"`
	UserName string `json:"username"`
}

// PostFields are the author-editable fields of a post.
type PostFields struct {
	Title   string
	Summary string
	Content string
}

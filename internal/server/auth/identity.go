// Package auth implements the authentication and authorization core of the
// blog: password hashing, identity tokens, the bearer-token gate in front of
// protected routes and the post ownership rule.
package auth

// Identity is who a verified token says the caller is.
type Identity struct {
	UserID   string `json:"id"`
	UserName string `json:"username"`
}

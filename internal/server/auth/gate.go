package auth

import (
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/common"
)

// Outcome is the result class of an auth gate check.
type Outcome int

const (
	// Unauthenticated: no credential was presented.
	Unauthenticated Outcome = iota
	// Authenticated: the credential verified.
	Authenticated
	// Rejected: a credential was presented but did not verify.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return "unauthenticated"
	}
}

// Decision is what the gate concluded about a request. Identity is set only
// when Outcome is Authenticated; Err only when it is not.
type Decision struct {
	Outcome  Outcome
	Identity *Identity
	Err      error
}

// TokenVerifier is satisfied by *TokenService.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// Gate turns a raw Authorization header value into a Decision. It has no side
// effects; what to do with each outcome is the caller's policy.
type Gate struct {
	verifier TokenVerifier
}

func NewGate(v TokenVerifier) *Gate {
	return &Gate{verifier: v}
}

// Check expects "Bearer <token>". A missing header or a header without a
// token part is Unauthenticated; any other scheme is Rejected.
func (g *Gate) Check(rawAuthorization string) Decision {
	scheme, token, _ := strings.Cut(strings.TrimSpace(rawAuthorization), " ")
	token = strings.TrimSpace(token)

	if token == "" {
		return Decision{Outcome: Unauthenticated, Err: common.ErrMissingCredential}
	}
	if !strings.EqualFold(scheme, common.BearerScheme) {
		return Decision{Outcome: Rejected, Err: common.ErrInvalidToken}
	}

	id, err := g.verifier.Verify(token)
	if err != nil {
		return Decision{Outcome: Rejected, Err: err}
	}
	return Decision{Outcome: Authenticated, Identity: id}
}

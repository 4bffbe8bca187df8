package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSecret is returned at startup when no signing secret is configured.
var ErrMissingSecret = errors.New("token signing secret is not configured")

// Claims are the registered claims plus the caller's username and user id.
type Claims struct {
	jwt.RegisteredClaims
	UserName string `json:"username"`
	UserID   string `json:"id"`
}

// GenerateToken signs an HS256 token for id that expires validity after now.
func GenerateToken(id Identity, secretKey []byte, now time.Time, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserName: id.UserName,
		UserID:   id.UserID,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies tokenString as of now. It returns common.ErrTokenExpired
// for an expired token and common.ErrInvalidToken for anything else that does
// not verify: bad signature, other algorithms, malformed input, no user id.
func ParseToken(tokenString string, secretKey []byte, now time.Time) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return &Identity{UserID: claims.UserID, UserName: claims.UserName}, nil
}

// TokenService issues and verifies identity tokens with a process-wide secret.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenService(secret []byte, validity time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &TokenService{secret: secret, validity: validity, now: time.Now}, nil
}

func (s *TokenService) Issue(id Identity) (string, error) {
	return GenerateToken(id, s.secret, s.now(), s.validity)
}

func (s *TokenService) Verify(token string) (*Identity, error) {
	return ParseToken(token, s.secret, s.now())
}

package session

import (
	"errors"
	"fmt"
	"time"

	"carconnect/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is what the identity resolver verified
type Identity struct {
	UserID     int64
	Username   string
	RoleType   string
	Schema     string
	Privileges string
}

// Claims is the bearer token payload
type Claims struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	RoleType   string `json:"role_type"`
	Schema     string `json:"schema"`
	Privileges string `json:"privileges,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by c
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:     c.UserID,
		Username:   c.Username,
		RoleType:   c.RoleType,
		Schema:     c.Schema,
		Privileges: c.Privileges,
	}
}

// Issuer signs and parses HS256 session tokens
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// Issue signs a token for id
func (i *Issuer) Issue(id Identity) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		UserID:     id.UserID,
		Username:   id.Username,
		RoleType:   id.RoleType,
		Schema:     id.Schema,
		Privileges: id.Privileges,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, claims, nil
}

// Parse validates signature, algorithm, issuer and expiry
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: session expired", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%w: invalid session token", domain.ErrInvalidCredentials)
	}
	if claims.ID == "" || claims.Username == "" || claims.RoleType == "" {
		return nil, fmt.Errorf("%w: incomplete session token", domain.ErrInvalidCredentials)
	}
	return claims, nil
}

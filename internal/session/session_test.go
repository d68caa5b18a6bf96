package session

import (
	"testing"
	"time"

	"carconnect/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, "carconnect")

	token, claims, err := issuer.Issue(Identity{
		UserID:     4,
		Username:   "nimal",
		RoleType:   domain.RoleEmployee,
		Schema:     "service_acme",
		Privileges: "pp:ad, in:vw",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.Equal(t, Identity{
		UserID:     4,
		Username:   "nimal",
		RoleType:   domain.RoleEmployee,
		Schema:     "service_acme",
		Privileges: "pp:ad, in:vw",
	}, parsed.Identity())
}

func TestIssuer_Expired(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute, "carconnect")
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.Issue(Identity{UserID: 1, Username: "kamal", RoleType: domain.RoleOwner})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "expired")
}

func TestIssuer_RejectsForeignTokens(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, "carconnect")
	other := NewIssuer("other-secret", time.Hour, "carconnect")
	token, _, err := other.Issue(Identity{UserID: 1, Username: "kamal", RoleType: domain.RoleOwner})
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// alg=none is never accepted
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Username: "kamal",
		RoleType: domain.RoleCenter,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    "carconnect",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(unsigned)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

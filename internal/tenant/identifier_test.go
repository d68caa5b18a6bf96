package tenant

import (
	"strings"
	"testing"

	"carconnect/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"employee", "service_acme", "carConnectPro", "_x", "repair_a1", strings.Repeat("a", 63)}
	for _, s := range valid {
		assert.NoError(t, ValidateIdentifier(s), s)
	}

	invalid := []string{"", "1abc", "a-b", "a b", `a"b`, "a;b", "a.b", "ünicode", strings.Repeat("a", 64)}
	for _, s := range invalid {
		assert.ErrorIs(t, ValidateIdentifier(s), domain.ErrIdentifierRejected, s)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "employee", QuoteIdentifier("employee"))
	assert.Equal(t, "service_acme", QuoteIdentifier("service_acme"))
	assert.Equal(t, `"carConnectPro"`, QuoteIdentifier("carConnectPro"))
	assert.Equal(t, `"user"`, QuoteIdentifier("user"))
	assert.Equal(t, `"order"`, QuoteIdentifier("order"))
}

func TestHandle_Table(t *testing.T) {
	a, err := newHandle("service_a", false)
	assert.NoError(t, err)
	b, err := newHandle("repair_b", false)
	assert.NoError(t, err)

	assert.Equal(t, "service_a.employee", a.Table(TableEmployee))
	assert.Equal(t, "repair_b.employee", b.Table(TableEmployee))
	assert.NotEqual(t, a.Table(TableEmployee), b.Table(TableEmployee))

	_, err = newHandle("x; DROP TABLE owner; --", false)
	assert.ErrorIs(t, err, domain.ErrIdentifierRejected)
	assert.True(t, Handle{}.IsZero())
}

package tenant

import (
	"fmt"
	"regexp"
	"strings"

	"carconnect/internal/domain"

	"github.com/lib/pq"
)

// MaxIdentifierLength is PostgreSQL's NAMEDATALEN-1
const MaxIdentifierLength = 63

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	barePattern       = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// keywords that may not appear unquoted even though they match barePattern
var reservedWords = map[string]bool{
	"all": true, "and": true, "as": true, "asc": true, "check": true, "column": true,
	"constraint": true, "default": true, "desc": true, "end": true, "from": true,
	"group": true, "limit": true, "offset": true, "order": true, "primary": true,
	"references": true, "select": true, "table": true, "to": true, "user": true,
	"where": true, "with": true,
}

// ValidateIdentifier is the allow-list every schema, table and column name passes
// before it is interpolated into SQL text.
func ValidateIdentifier(name string) error {
	if name == "" || len(name) > MaxIdentifierLength || !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", domain.ErrIdentifierRejected, name)
	}
	return nil
}

// QuoteIdentifier renders a validated identifier. Lowercase, non-reserved names stay
// bare; everything else goes through pq.QuoteIdentifier.
func QuoteIdentifier(name string) string {
	if barePattern.MatchString(name) && !reservedWords[name] {
		return name
	}
	return pq.QuoteIdentifier(name)
}

// qualifiedName validates and renders "table" or "schema.table"
func qualifiedName(name string) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: %q", domain.ErrIdentifierRejected, name)
	}
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if err := ValidateIdentifier(p); err != nil {
			return "", err
		}
		quoted = append(quoted, QuoteIdentifier(p))
	}
	return strings.Join(quoted, "."), nil
}

package tenant

import (
	"fmt"
	"regexp"
	"strings"

	"carconnect/internal/domain"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowedRun = regexp.MustCompile(`[^a-z0-9_]+`)
	underscoreRun = regexp.MustCompile(`_{2,}`)
)

// SchemaName derives the tenant schema of a center: the type prefix followed by the
// display name lowercased, whitespace folded to "_" and every other character outside
// [a-z0-9_] dropped. The result is fixed at registration time.
func SchemaName(centerType domain.CenterType, displayName string) (string, error) {
	prefix, err := centerType.SchemaPrefix()
	if err != nil {
		return "", err
	}

	name := strings.ToLower(strings.TrimSpace(displayName))
	name = whitespaceRun.ReplaceAllString(name, "_")
	name = disallowedRun.ReplaceAllString(name, "")
	name = underscoreRun.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "", fmt.Errorf("%w: center name must contain letters or digits", domain.ErrValidation)
	}

	schema := prefix + name
	if len(schema) > MaxIdentifierLength {
		return "", fmt.Errorf("%w: center name is too long", domain.ErrValidation)
	}
	if err := ValidateIdentifier(schema); err != nil {
		return "", err
	}
	return schema, nil
}

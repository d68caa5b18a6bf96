package tenant

import (
	"fmt"

	"carconnect/internal/domain"
)

// Handle addresses one schema. Only the Registry and the Provisioner create handles,
// after the schema name has been looked up or provisioned server side.
type Handle struct {
	schema   string
	platform bool
}

func newHandle(schema string, platform bool) (Handle, error) {
	if err := ValidateIdentifier(schema); err != nil {
		return Handle{}, err
	}
	return Handle{schema: schema, platform: platform}, nil
}

// Schema returns the raw schema name
func (h Handle) Schema() string { return h.schema }

// IsPlatform reports whether h is the shared platform schema
func (h Handle) IsPlatform() bool { return h.platform }

// IsZero reports whether h was never resolved
func (h Handle) IsZero() bool { return h.schema == "" }

func (h Handle) String() string { return h.schema }

// Table renders the schema-qualified table reference, e.g. service_acme.employee
func (h Handle) Table(name TableName) string {
	return QuoteIdentifier(h.schema) + "." + QuoteIdentifier(string(name))
}

// PartialUpdate builds an UPDATE for spec's table inside this schema
func (h Handle) PartialUpdate(spec TableSpec, provided map[string]any, keyValue any) (string, []any, error) {
	if h.IsZero() {
		return "", nil, fmt.Errorf("%w: unresolved tenant", domain.ErrIdentifierRejected)
	}
	if spec.Platform != h.platform {
		return "", nil, fmt.Errorf("%w: table %s is not addressable in schema %s",
			domain.ErrIdentifierRejected, spec.Name, h.schema)
	}
	return BuildPartialUpdate(h.schema+"."+string(spec.Name), spec.Updatable, provided, spec.Key, keyValue)
}

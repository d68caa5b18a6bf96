package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carconnect/internal/domain"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DBTX is satisfied by *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tenant is a resolved tenant schema together with its center's display name
type Tenant struct {
	Handle     Handle
	CenterName string
}

// Registry owns the schema_mapping directory: login identifier -> schema.
// It is the only way to obtain a Handle for an existing schema.
type Registry struct {
	db       *sql.DB
	platform Handle
	logger   *zap.Logger
}

// NewRegistry validates the platform schema name and binds the registry to db
func NewRegistry(db *sql.DB, platformSchema string, logger *zap.Logger) (*Registry, error) {
	platform, err := newHandle(platformSchema, true)
	if err != nil {
		return nil, fmt.Errorf("invalid platform schema: %w", err)
	}
	return &Registry{db: db, platform: platform, logger: logger}, nil
}

// Platform returns the shared platform schema handle
func (r *Registry) Platform() Handle { return r.platform }

// Resolve maps a login identifier to its schema. Owners and centers map to the
// platform schema, employees to their center's tenant schema.
func (r *Registry) Resolve(ctx context.Context, login string) (Handle, error) {
	query := fmt.Sprintf(`SELECT schema FROM %s WHERE username = $1`, r.platform.Table(TableSchemaMapping))

	var schema string
	if err := r.db.QueryRowContext(ctx, query, login).Scan(&schema); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Handle{}, fmt.Errorf("%w: no tenant mapping for %q", domain.ErrNotFound, login)
		}
		return Handle{}, fmt.Errorf("failed to resolve tenant mapping: %w", err)
	}
	return r.handleFor(schema)
}

// ResolveCenter returns the tenant schema owned by a center account
func (r *Registry) ResolveCenter(ctx context.Context, centerUsername string) (Handle, error) {
	query := fmt.Sprintf(`SELECT schema_name FROM %s WHERE username = $1`, r.platform.Table(TableCenter))

	var schema string
	if err := r.db.QueryRowContext(ctx, query, centerUsername).Scan(&schema); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Handle{}, fmt.Errorf("%w: center %q", domain.ErrNotFound, centerUsername)
		}
		return Handle{}, fmt.Errorf("failed to resolve center schema: %w", err)
	}
	h, err := r.handleFor(schema)
	if err != nil {
		return Handle{}, err
	}
	if h.IsPlatform() {
		return Handle{}, fmt.Errorf("%w: center %q owns the platform schema", domain.ErrIdentifierRejected, centerUsername)
	}
	return h, nil
}

// ResolveSchemas looks stored schema names up in the center table. Names that are not
// a known tenant are absent from the result.
func (r *Registry) ResolveSchemas(ctx context.Context, schemas []string) (map[string]Tenant, error) {
	valid := make([]string, 0, len(schemas))
	for _, s := range schemas {
		if err := ValidateIdentifier(s); err != nil {
			r.logger.Error("stored schema name rejected by allow-list", zap.String("schema", s), zap.Error(err))
			continue
		}
		valid = append(valid, s)
	}
	out := make(map[string]Tenant, len(valid))
	if len(valid) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`SELECT schema_name, name FROM %s WHERE schema_name = ANY($1)`, r.platform.Table(TableCenter))
	rows, err := r.db.QueryContext(ctx, query, pq.Array(valid))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant schemas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, fmt.Errorf("failed to scan tenant schema: %w", err)
		}
		h, err := r.handleFor(schema)
		if err != nil || h.IsPlatform() {
			continue
		}
		out[schema] = Tenant{Handle: h, CenterName: name}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenant schemas: %w", err)
	}
	return out, nil
}

// Exists reports whether login is mapped
func (r *Registry) Exists(ctx context.Context, q DBTX, login string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE username = $1)`, r.platform.Table(TableSchemaMapping))

	var exists bool
	if err := q.QueryRowContext(ctx, query, login).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check tenant mapping: %w", err)
	}
	return exists, nil
}

// Register maps login to h. Run it on the transaction that creates the account row so
// both writes commit or roll back together. The identifier namespace is shared by
// owners, centers and the employees of every tenant.
func (r *Registry) Register(ctx context.Context, q DBTX, login string, h Handle) error {
	if h.IsZero() {
		return fmt.Errorf("%w: unresolved tenant", domain.ErrIdentifierRejected)
	}

	exists, err := r.Exists(ctx, q, login)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: username %q is already taken", domain.ErrConflict, login)
	}

	query := fmt.Sprintf(`INSERT INTO %s (username, schema) VALUES ($1, $2)`, r.platform.Table(TableSchemaMapping))
	if _, err := q.ExecContext(ctx, query, login, h.Schema()); err != nil {
		if pqCode(err) == codeUniqueViolation {
			return fmt.Errorf("%w: username %q is already taken", domain.ErrConflict, login)
		}
		return fmt.Errorf("failed to insert tenant mapping: %w", err)
	}
	return nil
}

// Unregister removes the mapping of a deleted account
func (r *Registry) Unregister(ctx context.Context, q DBTX, login string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE username = $1`, r.platform.Table(TableSchemaMapping))
	res, err := q.ExecContext(ctx, query, login)
	if err != nil {
		return fmt.Errorf("failed to delete tenant mapping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete tenant mapping: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no tenant mapping for %q", domain.ErrNotFound, login)
	}
	return nil
}

func (r *Registry) handleFor(schema string) (Handle, error) {
	if schema == r.platform.schema {
		return r.platform, nil
	}
	h, err := newHandle(schema, false)
	if err != nil {
		r.logger.Error("stored schema name rejected by allow-list", zap.String("schema", schema), zap.Error(err))
		return Handle{}, err
	}
	return h, nil
}

const (
	codeUniqueViolation = "23505"
	codeDuplicateSchema = "42P06"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

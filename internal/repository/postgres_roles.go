package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// PostgresRolesRepository addresses <tenant>.roles
type PostgresRolesRepository struct {
	db *sql.DB
}

func NewPostgresRolesRepository(db *sql.DB) *PostgresRolesRepository {
	return &PostgresRolesRepository{db: db}
}

var _ RolesRepository = (*PostgresRolesRepository)(nil)

func (r *PostgresRolesRepository) CreateRole(ctx context.Context, h tenant.Handle, role *domain.Role) (int64, error) {
	if err := requireTenant(h); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (name, description, privileges) VALUES ($1, $2, $3) RETURNING id`,
		h.Table(tenant.TableRoles))

	var id int64
	if err := r.db.QueryRowContext(ctx, query, role.Name, role.Description, role.Privileges).Scan(&id); err != nil {
		return 0, mapWriteError(err, "role")
	}
	return id, nil
}

func (r *PostgresRolesRepository) GetRole(ctx context.Context, h tenant.Handle, id int64) (*domain.Role, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name, description, privileges FROM %s WHERE id = $1`, h.Table(tenant.TableRoles))

	var role domain.Role
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&role.ID, &role.Name, &role.Description, &role.Privileges); err != nil {
		return nil, mapReadError(err, "role")
	}
	return &role, nil
}

func (r *PostgresRolesRepository) ListRoles(ctx context.Context, h tenant.Handle) ([]domain.Role, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name, description, privileges FROM %s ORDER BY id`, h.Table(tenant.TableRoles))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	out := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Privileges); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return out, nil
}

func (r *PostgresRolesRepository) UpdateRole(ctx context.Context, h tenant.Handle, id int64, patch domain.RolePatch) (*domain.Role, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	if err := execPartialUpdate(ctx, r.db, h, tenant.RoleSpec, patch.Fields(), id, "role"); err != nil {
		return nil, err
	}
	return r.GetRole(ctx, h, id)
}

// DeleteRole fails with ErrConflict while employees still hold the role
func (r *PostgresRolesRepository) DeleteRole(ctx context.Context, h tenant.Handle, id int64) error {
	if err := requireTenant(h); err != nil {
		return err
	}
	return deleteByKey(ctx, r.db, h, tenant.RoleSpec, id, "role")
}

func deleteByKey(ctx context.Context, q tenant.DBTX, h tenant.Handle, spec tenant.TableSpec, key any, what string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, h.Table(spec.Name), tenant.QuoteIdentifier(spec.Key))
	res, err := q.ExecContext(ctx, query, key)
	if err != nil {
		return mapDeleteError(err, what)
	}
	return requireAffected(res, what)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// PostgresEmployeesRepository addresses <tenant>.employee joined with <tenant>.roles
type PostgresEmployeesRepository struct {
	db *sql.DB
}

func NewPostgresEmployeesRepository(db *sql.DB) *PostgresEmployeesRepository {
	return &PostgresEmployeesRepository{db: db}
}

var _ EmployeesRepository = (*PostgresEmployeesRepository)(nil)

const employeeColumns = `e.id, e.name, e.username, e.email, e.contact, e.nic, COALESCE(e.gender, ''), e.dob,
	e.manager_id, e.designation, e.salary, e.roles, COALESCE(r.name, ''), e.is_active`

func scanEmployee(s rowScanner) (domain.Employee, error) {
	var e domain.Employee
	var managerID, roleID sql.NullInt64
	err := s.Scan(
		&e.ID, &e.Name, &e.Username, &e.Email, &e.Contact, &e.NIC, &e.Gender, &e.Dob,
		&managerID, &e.Designation, &e.Salary, &roleID, &e.RoleName, &e.IsActive,
	)
	e.ManagerID = nullInt64Ptr(managerID)
	e.RoleID = nullInt64Ptr(roleID)
	return e, err
}

func (r *PostgresEmployeesRepository) CreateEmployee(ctx context.Context, q tenant.DBTX, h tenant.Handle, e *domain.Employee, salt string, hash []byte) (int64, error) {
	if err := requireTenant(h); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (name, username, salt, password, email, contact, nic, gender, dob, manager_id, designation, salary, roles, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, h.Table(tenant.TableEmployee))

	var id int64
	err := q.QueryRowContext(ctx, query,
		e.Name, e.Username, salt, hash, e.Email, e.Contact, e.NIC, nullableString(e.Gender), e.Dob,
		int64PtrArg(e.ManagerID), e.Designation, e.Salary, int64PtrArg(e.RoleID), e.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "employee")
	}
	return id, nil
}

func (r *PostgresEmployeesRepository) GetEmployee(ctx context.Context, h tenant.Handle, id int64) (*domain.Employee, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s e
		LEFT JOIN %s r ON r.id = e.roles
		WHERE e.id = $1
	`, employeeColumns, h.Table(tenant.TableEmployee), h.Table(tenant.TableRoles))

	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err, "employee")
	}
	return &e, nil
}

func (r *PostgresEmployeesRepository) ListEmployees(ctx context.Context, h tenant.Handle) ([]domain.Employee, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s e
		LEFT JOIN %s r ON r.id = e.roles
		ORDER BY e.id
	`, employeeColumns, h.Table(tenant.TableEmployee), h.Table(tenant.TableRoles))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	out := []domain.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return out, nil
}

func (r *PostgresEmployeesRepository) GetEmployeeCredentials(ctx context.Context, h tenant.Handle, username string) (*domain.Credentials, error) {
	return r.credentials(ctx, h, "username", username)
}

func (r *PostgresEmployeesRepository) GetEmployeeCredentialsByID(ctx context.Context, h tenant.Handle, id int64) (*domain.Credentials, error) {
	return r.credentials(ctx, h, "id", id)
}

func (r *PostgresEmployeesRepository) credentials(ctx context.Context, h tenant.Handle, column string, value any) (*domain.Credentials, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT e.id, e.username, e.name, e.salt, e.password, COALESCE(r.privileges, ''), e.is_active
		FROM %s e
		LEFT JOIN %s r ON r.id = e.roles
		WHERE e.%s = $1
	`, h.Table(tenant.TableEmployee), h.Table(tenant.TableRoles), column)

	c := domain.Credentials{Schema: h.Schema()}
	err := r.db.QueryRowContext(ctx, query, value).Scan(&c.ID, &c.Username, &c.Name, &c.Salt, &c.Hash, &c.Privileges, &c.IsActive)
	if err != nil {
		return nil, mapReadError(err, "employee")
	}
	return &c, nil
}

func (r *PostgresEmployeesRepository) UpdateEmployee(ctx context.Context, h tenant.Handle, id int64, patch domain.EmployeePatch) (*domain.Employee, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	if err := execPartialUpdate(ctx, r.db, h, tenant.EmployeeSpec, patch.Fields(), id, "employee"); err != nil {
		return nil, err
	}
	return r.GetEmployee(ctx, h, id)
}

func (r *PostgresEmployeesRepository) UpdateEmployeePassword(ctx context.Context, h tenant.Handle, id int64, salt string, hash []byte) error {
	if err := requireTenant(h); err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET salt = $1, password = $2 WHERE id = $3`, h.Table(tenant.TableEmployee))
	res, err := r.db.ExecContext(ctx, query, salt, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update employee password: %w", err)
	}
	return requireAffected(res, "employee")
}

func (r *PostgresEmployeesRepository) DeleteEmployee(ctx context.Context, q tenant.DBTX, h tenant.Handle, id int64) (string, error) {
	if err := requireTenant(h); err != nil {
		return "", err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING username`, h.Table(tenant.TableEmployee))

	var username string
	if err := q.QueryRowContext(ctx, query, id).Scan(&username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", mapReadError(err, "employee")
		}
		return "", mapDeleteError(err, "employee")
	}
	return username, nil
}

package repository

import (
	"context"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// EmployeesRepository is tenant scoped: every call names the tenant schema it addresses
type EmployeesRepository interface {
	CreateEmployee(ctx context.Context, q tenant.DBTX, h tenant.Handle, e *domain.Employee, salt string, hash []byte) (int64, error)
	GetEmployee(ctx context.Context, h tenant.Handle, id int64) (*domain.Employee, error)
	ListEmployees(ctx context.Context, h tenant.Handle) ([]domain.Employee, error)
	// GetEmployeeCredentials joins the employee's role privileges
	GetEmployeeCredentials(ctx context.Context, h tenant.Handle, username string) (*domain.Credentials, error)
	GetEmployeeCredentialsByID(ctx context.Context, h tenant.Handle, id int64) (*domain.Credentials, error)
	UpdateEmployee(ctx context.Context, h tenant.Handle, id int64, patch domain.EmployeePatch) (*domain.Employee, error)
	UpdateEmployeePassword(ctx context.Context, h tenant.Handle, id int64, salt string, hash []byte) error
	// DeleteEmployee returns the username of the removed employee
	DeleteEmployee(ctx context.Context, q tenant.DBTX, h tenant.Handle, id int64) (string, error)
}

// RolesRepository manages the roles table of a tenant
type RolesRepository interface {
	CreateRole(ctx context.Context, h tenant.Handle, role *domain.Role) (int64, error)
	GetRole(ctx context.Context, h tenant.Handle, id int64) (*domain.Role, error)
	ListRoles(ctx context.Context, h tenant.Handle) ([]domain.Role, error)
	UpdateRole(ctx context.Context, h tenant.Handle, id int64, patch domain.RolePatch) (*domain.Role, error)
	DeleteRole(ctx context.Context, h tenant.Handle, id int64) error
}

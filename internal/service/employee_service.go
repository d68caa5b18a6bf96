package service

import (
	"context"
	"fmt"
	"strings"

	"carconnect/internal/audit"
	"carconnect/internal/credential"
	"carconnect/internal/domain"
	"carconnect/internal/metrics"
	"carconnect/internal/repository"
	"carconnect/internal/tenant"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EmployeeService manages the employees of the caller's tenant
type EmployeeService interface {
	ListEmployees(ctx context.Context, p *Principal) ([]domain.Employee, error)
	GetEmployee(ctx context.Context, p *Principal, id int64) (*domain.Employee, error)
	// GetProfile returns the calling employee's own record
	GetProfile(ctx context.Context, p *Principal) (*domain.Employee, error)
	CreateEmployee(ctx context.Context, p *Principal, req CreateEmployeeRequest) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, p *Principal, id int64, patch domain.EmployeePatch) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, p *Principal, id int64) error
}

type employeeService struct {
	tx        repository.Transactor
	registry  TenantRegistrar
	employees repository.EmployeesRepository
	audit     audit.Sink
	logger    *zap.Logger
}

func NewEmployeeService(
	tx repository.Transactor,
	registry TenantRegistrar,
	employees repository.EmployeesRepository,
	auditSink audit.Sink,
	logger *zap.Logger,
) EmployeeService {
	return &employeeService{tx: tx, registry: registry, employees: employees, audit: auditSink, logger: logger}
}

type CreateEmployeeRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Username    string          `json:"username" validate:"required,min=3,max=63"`
	Password    string          `json:"password" validate:"required,min=8"`
	Email       string          `json:"email" validate:"required,email"`
	Contact     string          `json:"contact" validate:"required,numeric,len=10"`
	NIC         string          `json:"nic" validate:"required"`
	Gender      string          `json:"gender" validate:"omitempty,oneof=M F O"`
	Dob         domain.Date     `json:"dob"`
	ManagerID   *int64          `json:"manager_id" validate:"omitempty,gt=0"`
	Designation string          `json:"designation" validate:"required"`
	Salary      decimal.Decimal `json:"salary"`
	RoleID      *int64          `json:"roles" validate:"omitempty,gt=0"`
}

func (s *employeeService) ListEmployees(ctx context.Context, p *Principal) ([]domain.Employee, error) {
	if err := p.requireTenantUser(domain.PrivEmployees, false); err != nil {
		return nil, err
	}
	return s.employees.ListEmployees(ctx, p.Tenant)
}

func (s *employeeService) GetEmployee(ctx context.Context, p *Principal, id int64) (*domain.Employee, error) {
	if err := p.requireTenantUser(domain.PrivEmployees, false); err != nil {
		return nil, err
	}
	return s.employees.GetEmployee(ctx, p.Tenant, id)
}

func (s *employeeService) GetProfile(ctx context.Context, p *Principal) (*domain.Employee, error) {
	if err := p.requireRole(domain.RoleEmployee); err != nil {
		return nil, err
	}
	if err := p.Require(domain.PrivProfile, false); err != nil {
		return nil, err
	}
	return s.employees.GetEmployee(ctx, p.Tenant, p.UserID)
}

// CreateEmployee maps the username to the tenant in the same transaction as the
// employee row
func (s *employeeService) CreateEmployee(ctx context.Context, p *Principal, req CreateEmployeeRequest) (*domain.Employee, error) {
	if err := p.requireTenantUser(domain.PrivEmployees, true); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	salt, hash, err := credential.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	e := &domain.Employee{
		Name:        req.Name,
		Username:    username,
		Email:       req.Email,
		Contact:     req.Contact,
		NIC:         req.NIC,
		Gender:      req.Gender,
		Dob:         req.Dob,
		ManagerID:   req.ManagerID,
		Designation: req.Designation,
		Salary:      req.Salary,
		RoleID:      req.RoleID,
		IsActive:    true,
	}

	var id int64
	err = s.tx.WithTx(ctx, func(tx tenant.DBTX) error {
		if err := s.registry.Register(ctx, tx, username, p.Tenant); err != nil {
			return err
		}
		var err error
		id, err = s.employees.CreateEmployee(ctx, tx, p.Tenant, e, salt, hash)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.TenantOperationCounter.WithLabelValues("employee", "create").Inc()
	s.logger.Info("Employee created",
		zap.String("schema", p.Tenant.Schema()),
		zap.Int64("employee_id", id),
		zap.String("username", username),
	)
	emitAudit(ctx, s.audit, s.logger, p.auditEvent(audit.KindProfileChange, "create_employee", "username"))
	return s.employees.GetEmployee(ctx, p.Tenant, id)
}

func (s *employeeService) UpdateEmployee(ctx context.Context, p *Principal, id int64, patch domain.EmployeePatch) (*domain.Employee, error) {
	if err := p.requireTenantUser(domain.PrivEmployees, true); err != nil {
		return nil, err
	}
	if patch.ManagerID != nil && *patch.ManagerID == id {
		return nil, fmt.Errorf("%w: an employee cannot manage themselves", domain.ErrValidation)
	}
	e, err := s.employees.UpdateEmployee(ctx, p.Tenant, id, patch)
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("employee", "update").Inc()
	emitAudit(ctx, s.audit, s.logger, p.auditEvent(audit.KindProfileChange, "update_employee", fieldNames(patch.Fields())...))
	return e, nil
}

// DeleteEmployee removes the employee's mapping in the same transaction
func (s *employeeService) DeleteEmployee(ctx context.Context, p *Principal, id int64) error {
	if err := p.requireTenantUser(domain.PrivEmployees, true); err != nil {
		return err
	}
	if p.RoleType == domain.RoleEmployee && p.UserID == id {
		return fmt.Errorf("%w: employees cannot delete themselves", domain.ErrForbidden)
	}
	err := s.tx.WithTx(ctx, func(tx tenant.DBTX) error {
		username, err := s.employees.DeleteEmployee(ctx, tx, p.Tenant, id)
		if err != nil {
			return err
		}
		return s.registry.Unregister(ctx, tx, username)
	})
	if err != nil {
		return err
	}
	metrics.TenantOperationCounter.WithLabelValues("employee", "delete").Inc()
	s.logger.Info("Employee deleted", zap.String("schema", p.Tenant.Schema()), zap.Int64("employee_id", id))
	emitAudit(ctx, s.audit, s.logger, p.auditEvent(audit.KindProfileChange, "delete_employee"))
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"carconnect/internal/domain"
	"carconnect/internal/metrics"
	"carconnect/internal/repository"

	"go.uber.org/zap"
)

// RoleService manages the privilege bundles of the caller's tenant
type RoleService interface {
	ListRoles(ctx context.Context, p *Principal) ([]domain.Role, error)
	GetRole(ctx context.Context, p *Principal, id int64) (*domain.Role, error)
	CreateRole(ctx context.Context, p *Principal, req CreateRoleRequest) (*domain.Role, error)
	UpdateRole(ctx context.Context, p *Principal, id int64, patch domain.RolePatch) (*domain.Role, error)
	DeleteRole(ctx context.Context, p *Principal, id int64) error
}

type roleService struct {
	roles  repository.RolesRepository
	logger *zap.Logger
}

func NewRoleService(roles repository.RolesRepository, logger *zap.Logger) RoleService {
	return &roleService{roles: roles, logger: logger}
}

type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"required"`
	Privileges  string `json:"privileges" validate:"required"`
}

func (s *roleService) ListRoles(ctx context.Context, p *Principal) ([]domain.Role, error) {
	if err := p.requireTenantUser(domain.PrivRoles, false); err != nil {
		return nil, err
	}
	return s.roles.ListRoles(ctx, p.Tenant)
}

func (s *roleService) GetRole(ctx context.Context, p *Principal, id int64) (*domain.Role, error) {
	if err := p.requireTenantUser(domain.PrivRoles, false); err != nil {
		return nil, err
	}
	return s.roles.GetRole(ctx, p.Tenant, id)
}

func (s *roleService) CreateRole(ctx context.Context, p *Principal, req CreateRoleRequest) (*domain.Role, error) {
	if err := p.requireTenantUser(domain.PrivRoles, true); err != nil {
		return nil, err
	}
	privileges, err := canonicalPrivileges(req.Privileges)
	if err != nil {
		return nil, err
	}
	id, err := s.roles.CreateRole(ctx, p.Tenant, &domain.Role{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Privileges:  privileges,
	})
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("role", "create").Inc()
	return s.roles.GetRole(ctx, p.Tenant, id)
}

func (s *roleService) UpdateRole(ctx context.Context, p *Principal, id int64, patch domain.RolePatch) (*domain.Role, error) {
	if err := p.requireTenantUser(domain.PrivRoles, true); err != nil {
		return nil, err
	}
	if patch.Privileges != nil {
		privileges, err := canonicalPrivileges(*patch.Privileges)
		if err != nil {
			return nil, err
		}
		patch.Privileges = &privileges
	}
	role, err := s.roles.UpdateRole(ctx, p.Tenant, id, patch)
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("role", "update").Inc()
	return role, nil
}

func (s *roleService) DeleteRole(ctx context.Context, p *Principal, id int64) error {
	if err := p.requireTenantUser(domain.PrivRoles, true); err != nil {
		return err
	}
	if err := s.roles.DeleteRole(ctx, p.Tenant, id); err != nil {
		return err
	}
	metrics.TenantOperationCounter.WithLabelValues("role", "delete").Inc()
	s.logger.Info("Role deleted", zap.String("schema", p.Tenant.Schema()), zap.Int64("role_id", id))
	return nil
}

// canonicalPrivileges validates a privilege string and renders it sorted
func canonicalPrivileges(s string) (string, error) {
	if err := domain.ValidatePrivileges(s); err != nil {
		return "", err
	}
	p := domain.ParsePrivileges(s)
	if len(p) == 0 {
		return "", fmt.Errorf("%w: privileges are required", domain.ErrValidation)
	}
	return p.String(), nil
}

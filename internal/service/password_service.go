package service

import (
	"context"
	"fmt"

	"carconnect/internal/audit"
	"carconnect/internal/credential"
	"carconnect/internal/domain"
	"carconnect/internal/repository"

	"go.uber.org/zap"
)

// PasswordService verifies and changes the caller's own password. The account table
// follows the caller's role.
type PasswordService interface {
	Verify(ctx context.Context, p *Principal, password string) error
	// Change revokes the caller's current session once the new hash is stored
	Change(ctx context.Context, p *Principal, req ChangePasswordRequest) error
}

type passwordService struct {
	owners    repository.OwnersRepository
	centers   repository.CentersRepository
	employees repository.EmployeesRepository
	auth      AuthService
	audit     audit.Sink
	logger    *zap.Logger
}

func NewPasswordService(
	owners repository.OwnersRepository,
	centers repository.CentersRepository,
	employees repository.EmployeesRepository,
	auth AuthService,
	auditSink audit.Sink,
	logger *zap.Logger,
) PasswordService {
	return &passwordService{owners: owners, centers: centers, employees: employees, auth: auth, audit: auditSink, logger: logger}
}

type VerifyPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

func (s *passwordService) Verify(ctx context.Context, p *Principal, password string) error {
	creds, err := s.credentials(ctx, p)
	if err != nil {
		return err
	}
	if !credential.Verify(password, creds.Salt, creds.Hash) {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (s *passwordService) Change(ctx context.Context, p *Principal, req ChangePasswordRequest) error {
	if req.CurrentPassword == req.NewPassword {
		return fmt.Errorf("%w: new password must differ from the current one", domain.ErrValidation)
	}
	if err := s.Verify(ctx, p, req.CurrentPassword); err != nil {
		return err
	}
	salt, hash, err := credential.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	switch p.RoleType {
	case domain.RoleOwner:
		err = s.owners.UpdateOwnerPassword(ctx, p.UserID, salt, hash)
	case domain.RoleCenter:
		err = s.centers.UpdateCenterPassword(ctx, p.UserID, salt, hash)
	default:
		err = s.employees.UpdateEmployeePassword(ctx, p.Tenant, p.UserID, salt, hash)
	}
	if err != nil {
		return err
	}

	s.logger.Info("Password changed",
		zap.Int64("user_id", p.UserID),
		zap.String("role_type", p.RoleType),
		zap.String("schema", p.Tenant.Schema()),
	)
	emitAudit(ctx, s.audit, s.logger, p.auditEvent(audit.KindProfileChange, "change_password", "password"))
	return s.auth.RevokeToken(ctx, p.TokenID, p.ExpiresAt)
}

func (s *passwordService) credentials(ctx context.Context, p *Principal) (*domain.Credentials, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: unauthenticated", domain.ErrInvalidCredentials)
	}
	switch p.RoleType {
	case domain.RoleOwner:
		return s.owners.GetOwnerCredentialsByID(ctx, p.UserID)
	case domain.RoleCenter:
		return s.centers.GetCenterCredentialsByID(ctx, p.UserID)
	case domain.RoleEmployee:
		return s.employees.GetEmployeeCredentialsByID(ctx, p.Tenant, p.UserID)
	default:
		return nil, fmt.Errorf("%w: unknown role type %q", domain.ErrForbidden, p.RoleType)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carconnect/internal/audit"
	"carconnect/internal/credential"
	"carconnect/internal/domain"
	"carconnect/internal/metrics"
	"carconnect/internal/repository"
	"carconnect/internal/session"
	"carconnect/internal/store"
	"carconnect/internal/tenant"

	"go.uber.org/zap"
)

const revokedTokenPrefix = "carconnect:revoked:"

// AuthService resolves login identities and authorizes bearer tokens
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, p *Principal) error
	// Authorize turns verified token claims into a Principal, re-resolving the tenant
	Authorize(ctx context.Context, claims *session.Claims, ip string) (*Principal, error)
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type authService struct {
	resolver  TenantResolver
	owners    repository.OwnersRepository
	centers   repository.CentersRepository
	employees repository.EmployeesRepository
	issuer    *session.Issuer
	revoked   store.KV
	audit     audit.Sink
	logger    *zap.Logger
}

func NewAuthService(
	resolver TenantResolver,
	owners repository.OwnersRepository,
	centers repository.CentersRepository,
	employees repository.EmployeesRepository,
	issuer *session.Issuer,
	revoked store.KV,
	auditSink audit.Sink,
	logger *zap.Logger,
) AuthService {
	return &authService{
		resolver:  resolver,
		owners:    owners,
		centers:   centers,
		employees: employees,
		issuer:    issuer,
		revoked:   revoked,
		audit:     auditSink,
		logger:    logger,
	}
}

// LoginRequest is the POST /login body
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
}

// LoginUser is the public part of the authenticated account
type LoginUser struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Privileges string `json:"privileges"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	User      LoginUser `json:"user"`
	Schema    string    `json:"schema"`
	RoleType  string    `json:"roleType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login walks the resolution order: mapping, then center before owner on the
// platform schema, or the employee table of the mapped tenant. Unknown accounts and
// wrong passwords fail identically.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	h, err := s.resolver.Resolve(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.rejectLogin(req, "unknown", "unknown_username", true)
		}
		return nil, err
	}

	var (
		creds    *domain.Credentials
		roleType string
	)
	if h.IsPlatform() {
		creds, roleType, err = s.platformAccount(ctx, req.Username)
	} else {
		roleType = domain.RoleEmployee
		creds, err = s.employees.GetEmployeeCredentials(ctx, h, req.Username)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.rejectLogin(req, roleType, "account_missing", true)
		}
		return nil, err
	}

	if !credential.Verify(req.Password, creds.Salt, creds.Hash) {
		return nil, s.rejectLogin(req, roleType, "wrong_password", false)
	}
	if !creds.IsActive {
		metrics.LoginCounter.WithLabelValues(roleType, "disabled").Inc()
		s.logger.Warn("User login failed: account disabled",
			zap.String("username", req.Username),
			zap.String("schema", h.Schema()),
			zap.String("reason", "inactive"),
		)
		return nil, fmt.Errorf("%w: account is disabled", domain.ErrForbidden)
	}

	schema := h.Schema()
	if roleType == domain.RoleCenter {
		own, err := s.resolver.ResolveCenter(ctx, req.Username)
		if err != nil {
			return nil, err
		}
		schema = own.Schema()
	}

	token, claims, err := s.issuer.Issue(session.Identity{
		UserID:     creds.ID,
		Username:   creds.Username,
		RoleType:   roleType,
		Schema:     schema,
		Privileges: creds.Privileges,
	})
	if err != nil {
		return nil, err
	}

	metrics.LoginCounter.WithLabelValues(roleType, "success").Inc()
	s.logger.Info("User logged in",
		zap.String("username", creds.Username),
		zap.String("role_type", roleType),
		zap.String("schema", schema),
	)
	e := audit.NewEvent(audit.KindLoginRegister, "login")
	e.UserID, e.Username, e.UserType, e.Schema, e.IP = creds.ID, creds.Username, roleType, schema, req.IPAddress
	emitAudit(ctx, s.audit, s.logger, e)

	return &LoginResponse{
		Token: token,
		User: LoginUser{
			ID:         creds.ID,
			Username:   creds.Username,
			Name:       creds.Name,
			Privileges: creds.Privileges,
		},
		Schema:    schema,
		RoleType:  roleType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// platformAccount checks the center table before the owner table
func (s *authService) platformAccount(ctx context.Context, username string) (*domain.Credentials, string, error) {
	creds, err := s.centers.GetCenterCredentials(ctx, username)
	if err == nil {
		return creds, domain.RoleCenter, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.RoleCenter, err
	}
	creds, err = s.owners.GetOwnerCredentials(ctx, username)
	return creds, domain.RoleOwner, err
}

// rejectLogin spends the KDF time when no stored hash was compared
func (s *authService) rejectLogin(req LoginRequest, roleType, reason string, burn bool) error {
	if burn {
		credential.Burn(req.Password)
	}
	metrics.LoginCounter.WithLabelValues(roleType, "failure").Inc()
	s.logger.Warn("User login failed",
		zap.String("username", req.Username),
		zap.String("ip_address", req.IPAddress),
		zap.String("reason", reason),
	)
	return domain.ErrInvalidCredentials
}

func (s *authService) Logout(ctx context.Context, p *Principal) error {
	if p == nil {
		return fmt.Errorf("%w: unauthenticated", domain.ErrInvalidCredentials)
	}
	if err := s.RevokeToken(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return err
	}
	emitAudit(ctx, s.audit, s.logger, p.auditEvent(audit.KindLoginRegister, "logout"))
	return nil
}

// RevokeToken keeps the token id on the revocation list until the token would expire anyway
func (s *authService) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *authService) Authorize(ctx context.Context, claims *session.Claims, ip string) (*Principal, error) {
	revoked, err := s.revoked.Exists(ctx, revokedTokenPrefix+claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: session has been revoked", domain.ErrInvalidCredentials)
	}

	p := &Principal{
		UserID:     claims.UserID,
		Username:   claims.Username,
		RoleType:   claims.RoleType,
		Privileges: domain.ParsePrivileges(claims.Privileges),
		TokenID:    claims.ID,
		IP:         ip,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	var h tenant.Handle
	switch claims.RoleType {
	case domain.RoleOwner:
		h = s.resolver.Platform()
		var exists bool
		if exists, err = s.owners.OwnerExists(ctx, claims.UserID); err == nil && !exists {
			err = fmt.Errorf("%w: owner %d", domain.ErrNotFound, claims.UserID)
		}
	case domain.RoleCenter:
		h, err = s.resolver.ResolveCenter(ctx, claims.Username)
	case domain.RoleEmployee:
		h, err = s.resolver.Resolve(ctx, claims.Username)
		if err == nil && h.IsPlatform() {
			err = fmt.Errorf("%w: employee mapped to the platform schema", domain.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role type %q", domain.ErrInvalidCredentials, claims.RoleType)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", domain.ErrInvalidCredentials)
		}
		return nil, err
	}
	if h.Schema() != claims.Schema {
		s.logger.Warn("Session schema mismatch",
			zap.String("username", claims.Username),
			zap.String("token_schema", claims.Schema),
			zap.String("resolved_schema", h.Schema()),
		)
		return nil, fmt.Errorf("%w: session is bound to another tenant", domain.ErrForbidden)
	}
	p.Tenant = h

	// role privileges and the active flag may have changed since the token was issued
	if claims.RoleType == domain.RoleEmployee {
		creds, err := s.employees.GetEmployeeCredentialsByID(ctx, h, claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: account no longer exists", domain.ErrInvalidCredentials)
			}
			return nil, err
		}
		if !creds.IsActive {
			return nil, fmt.Errorf("%w: account is disabled", domain.ErrForbidden)
		}
		p.Privileges = domain.ParsePrivileges(creds.Privileges)
	}
	return p, nil
}

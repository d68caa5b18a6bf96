package service

import (
	"context"
	"fmt"
	"time"

	"carconnect/internal/audit"
	"carconnect/internal/domain"
	"carconnect/internal/tenant"

	"go.uber.org/zap"
)

// TenantResolver is the read side of the tenant registry
type TenantResolver interface {
	Platform() tenant.Handle
	Resolve(ctx context.Context, login string) (tenant.Handle, error)
	ResolveCenter(ctx context.Context, centerUsername string) (tenant.Handle, error)
	ResolveSchemas(ctx context.Context, schemas []string) (map[string]tenant.Tenant, error)
}

// TenantRegistrar is the write side of the tenant registry
type TenantRegistrar interface {
	Platform() tenant.Handle
	Exists(ctx context.Context, q tenant.DBTX, login string) (bool, error)
	Register(ctx context.Context, q tenant.DBTX, login string, h tenant.Handle) error
	Unregister(ctx context.Context, q tenant.DBTX, login string) error
}

var (
	_ TenantResolver  = (*tenant.Registry)(nil)
	_ TenantRegistrar = (*tenant.Registry)(nil)
)

// Principal is an authenticated caller whose tenant was re-resolved server side
// for the current request
type Principal struct {
	UserID     int64
	Username   string
	RoleType   string
	Tenant     tenant.Handle
	Privileges domain.Privileges
	TokenID    string
	ExpiresAt  time.Time
	IP         string
}

// Require fails with ErrForbidden unless p may read (write=false) or modify code
func (p *Principal) Require(code string, write bool) error {
	if p == nil {
		return fmt.Errorf("%w: unauthenticated", domain.ErrForbidden)
	}
	if !p.Privileges.Allows(code, write) {
		return fmt.Errorf("%w: %s requires %s privilege", domain.ErrForbidden, p.Username, code)
	}
	return nil
}

// requireTenantUser admits center admins and employees holding code
func (p *Principal) requireTenantUser(code string, write bool) error {
	if p == nil || (p.RoleType != domain.RoleCenter && p.RoleType != domain.RoleEmployee) {
		return fmt.Errorf("%w: tenant account required", domain.ErrForbidden)
	}
	return p.Require(code, write)
}

func (p *Principal) requireRole(role string) error {
	if p == nil || p.RoleType != role {
		return fmt.Errorf("%w: %s account required", domain.ErrForbidden, role)
	}
	return nil
}

// auditEvent prefills the actor fields of an event
func (p *Principal) auditEvent(kind audit.Kind, action string, fields ...string) audit.Event {
	e := audit.NewEvent(kind, action)
	e.UserID = p.UserID
	e.Username = p.Username
	e.UserType = p.RoleType
	e.Schema = p.Tenant.Schema()
	e.IP = p.IP
	e.Fields = fields
	return e
}

// emitAudit never fails the calling operation
func emitAudit(ctx context.Context, sink audit.Sink, logger *zap.Logger, e audit.Event) {
	if err := sink.Record(ctx, e); err != nil {
		logger.Warn("audit event not recorded",
			zap.String("kind", string(e.Kind)),
			zap.String("action", e.Action),
			zap.Error(err),
		)
	}
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	return names
}

package service

import (
	"context"

	"carconnect/internal/audit"
	"carconnect/internal/domain"
	"carconnect/internal/repository"

	"go.uber.org/zap"
)

// CenterService serves the center admin's own profile
type CenterService interface {
	GetProfile(ctx context.Context, p *Principal) (*domain.Center, error)
	// UpdateProfile never renames the tenant schema, only the display fields
	UpdateProfile(ctx context.Context, p *Principal, patch domain.CenterPatch) (*domain.Center, error)
}

type centerService struct {
	centers repository.CentersRepository
	audit   audit.Sink
	logger  *zap.Logger
}

func NewCenterService(centers repository.CentersRepository, auditSink audit.Sink, logger *zap.Logger) CenterService {
	return &centerService{centers: centers, audit: auditSink, logger: logger}
}

func (s *centerService) GetProfile(ctx context.Context, p *Principal) (*domain.Center, error) {
	if err := p.requireRole(domain.RoleCenter); err != nil {
		return nil, err
	}
	return s.centers.GetCenter(ctx, p.UserID)
}

func (s *centerService) UpdateProfile(ctx context.Context, p *Principal, patch domain.CenterPatch) (*domain.Center, error) {
	if err := p.requireRole(domain.RoleCenter); err != nil {
		return nil, err
	}
	center, err := s.centers.UpdateCenter(ctx, p.UserID, patch)
	if err != nil {
		return nil, err
	}
	emitAudit(ctx, s.audit, s.logger, p.auditEvent(audit.KindProfileChange, "update_center_profile", fieldNames(patch.Fields())...))
	return center, nil
}

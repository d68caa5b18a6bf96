package service

import (
	"context"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/metrics"
	"carconnect/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService manages the parts and the service catalog of the caller's tenant
type InventoryService interface {
	ListParts(ctx context.Context, p *Principal) ([]domain.Part, error)
	GetPart(ctx context.Context, p *Principal, id int64) (*domain.Part, error)
	CreatePart(ctx context.Context, p *Principal, req CreatePartRequest) (*domain.Part, error)
	UpdatePart(ctx context.Context, p *Principal, id int64, patch domain.PartPatch) (*domain.Part, error)
	DeletePart(ctx context.Context, p *Principal, id int64) error
	// ReorderParts lists parts at or below their reorder level
	ReorderParts(ctx context.Context, p *Principal) ([]domain.Part, error)

	ListServiceTypes(ctx context.Context, p *Principal) ([]domain.ServiceType, error)
	GetServiceType(ctx context.Context, p *Principal, id int64) (*domain.ServiceType, error)
	CreateServiceType(ctx context.Context, p *Principal, req CreateServiceTypeRequest) (*domain.ServiceType, error)
	UpdateServiceType(ctx context.Context, p *Principal, id int64, patch domain.ServiceTypePatch) (*domain.ServiceType, error)
	DeleteServiceType(ctx context.Context, p *Principal, id int64) error
}

type inventoryService struct {
	parts    repository.InventoryRepository
	services repository.ServiceTypesRepository
	logger   *zap.Logger
}

func NewInventoryService(parts repository.InventoryRepository, services repository.ServiceTypesRepository, logger *zap.Logger) InventoryService {
	return &inventoryService{parts: parts, services: services, logger: logger}
}

type CreatePartRequest struct {
	Name               string          `json:"name" validate:"required,max=120"`
	Description        string          `json:"description"`
	ManufactureCountry string          `json:"manufacture_country"`
	Quantity           int             `json:"quantity" validate:"gte=0"`
	ReorderLevel       int             `json:"reorder_level" validate:"gte=0"`
	Price              decimal.Decimal `json:"price"`
}

type CreateServiceTypeRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
}

func (s *inventoryService) ListParts(ctx context.Context, p *Principal) ([]domain.Part, error) {
	if err := p.requireTenantUser(domain.PrivInventory, false); err != nil {
		return nil, err
	}
	return s.parts.ListParts(ctx, p.Tenant)
}

func (s *inventoryService) GetPart(ctx context.Context, p *Principal, id int64) (*domain.Part, error) {
	if err := p.requireTenantUser(domain.PrivInventory, false); err != nil {
		return nil, err
	}
	return s.parts.GetPart(ctx, p.Tenant, id)
}

func (s *inventoryService) CreatePart(ctx context.Context, p *Principal, req CreatePartRequest) (*domain.Part, error) {
	if err := p.requireTenantUser(domain.PrivInventory, true); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	id, err := s.parts.CreatePart(ctx, p.Tenant, &domain.Part{
		Name:               req.Name,
		Description:        req.Description,
		ManufactureCountry: req.ManufactureCountry,
		Quantity:           req.Quantity,
		ReorderLevel:       req.ReorderLevel,
		Price:              req.Price,
	})
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("part", "create").Inc()
	return s.parts.GetPart(ctx, p.Tenant, id)
}

func (s *inventoryService) UpdatePart(ctx context.Context, p *Principal, id int64, patch domain.PartPatch) (*domain.Part, error) {
	if err := p.requireTenantUser(domain.PrivInventory, true); err != nil {
		return nil, err
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	part, err := s.parts.UpdatePart(ctx, p.Tenant, id, patch)
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("part", "update").Inc()
	if part.NeedsReorder() {
		s.logger.Info("Part at reorder level",
			zap.String("schema", p.Tenant.Schema()),
			zap.Int64("part_id", part.PartID),
			zap.Int("quantity", part.Quantity),
		)
	}
	return part, nil
}

func (s *inventoryService) DeletePart(ctx context.Context, p *Principal, id int64) error {
	if err := p.requireTenantUser(domain.PrivInventory, true); err != nil {
		return err
	}
	if err := s.parts.DeletePart(ctx, p.Tenant, id); err != nil {
		return err
	}
	metrics.TenantOperationCounter.WithLabelValues("part", "delete").Inc()
	return nil
}

func (s *inventoryService) ReorderParts(ctx context.Context, p *Principal) ([]domain.Part, error) {
	if err := p.requireTenantUser(domain.PrivInventory, false); err != nil {
		return nil, err
	}
	return s.parts.ListReorderParts(ctx, p.Tenant)
}

func (s *inventoryService) ListServiceTypes(ctx context.Context, p *Principal) ([]domain.ServiceType, error) {
	if err := p.requireTenantUser(domain.PrivServiceTypes, false); err != nil {
		return nil, err
	}
	return s.services.ListServiceTypes(ctx, p.Tenant)
}

func (s *inventoryService) GetServiceType(ctx context.Context, p *Principal, id int64) (*domain.ServiceType, error) {
	if err := p.requireTenantUser(domain.PrivServiceTypes, false); err != nil {
		return nil, err
	}
	return s.services.GetServiceType(ctx, p.Tenant, id)
}

func (s *inventoryService) CreateServiceType(ctx context.Context, p *Principal, req CreateServiceTypeRequest) (*domain.ServiceType, error) {
	if err := p.requireTenantUser(domain.PrivServiceTypes, true); err != nil {
		return nil, err
	}
	if req.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: cost must not be negative", domain.ErrValidation)
	}
	id, err := s.services.CreateServiceType(ctx, p.Tenant, &domain.ServiceType{
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
	})
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("service_type", "create").Inc()
	return s.services.GetServiceType(ctx, p.Tenant, id)
}

func (s *inventoryService) UpdateServiceType(ctx context.Context, p *Principal, id int64, patch domain.ServiceTypePatch) (*domain.ServiceType, error) {
	if err := p.requireTenantUser(domain.PrivServiceTypes, true); err != nil {
		return nil, err
	}
	if patch.Cost != nil && patch.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: cost must not be negative", domain.ErrValidation)
	}
	st, err := s.services.UpdateServiceType(ctx, p.Tenant, id, patch)
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("service_type", "update").Inc()
	return st, nil
}

func (s *inventoryService) DeleteServiceType(ctx context.Context, p *Principal, id int64) error {
	if err := p.requireTenantUser(domain.PrivServiceTypes, true); err != nil {
		return err
	}
	if err := s.services.DeleteServiceType(ctx, p.Tenant, id); err != nil {
		return err
	}
	metrics.TenantOperationCounter.WithLabelValues("service_type", "delete").Inc()
	return nil
}

package repository

import (
	"context"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// InventoryRepository manages the part table of a tenant
type InventoryRepository interface {
	CreatePart(ctx context.Context, h tenant.Handle, p *domain.Part) (int64, error)
	GetPart(ctx context.Context, h tenant.Handle, id int64) (*domain.Part, error)
	ListParts(ctx context.Context, h tenant.Handle) ([]domain.Part, error)
	// ListReorderParts returns parts whose quantity is at or below their reorder level
	ListReorderParts(ctx context.Context, h tenant.Handle) ([]domain.Part, error)
	UpdatePart(ctx context.Context, h tenant.Handle, id int64, patch domain.PartPatch) (*domain.Part, error)
	DeletePart(ctx context.Context, h tenant.Handle, id int64) error
}

// ServiceTypesRepository manages the services catalog of a tenant
type ServiceTypesRepository interface {
	CreateServiceType(ctx context.Context, h tenant.Handle, s *domain.ServiceType) (int64, error)
	GetServiceType(ctx context.Context, h tenant.Handle, id int64) (*domain.ServiceType, error)
	ListServiceTypes(ctx context.Context, h tenant.Handle) ([]domain.ServiceType, error)
	UpdateServiceType(ctx context.Context, h tenant.Handle, id int64, patch domain.ServiceTypePatch) (*domain.ServiceType, error)
	DeleteServiceType(ctx context.Context, h tenant.Handle, id int64) error
}

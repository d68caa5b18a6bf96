package service

import (
	"context"
	"fmt"
	"strings"

	"carconnect/internal/domain"
	"carconnect/internal/metrics"
	"carconnect/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClientService manages the clients of the caller's tenant and looks up platform vehicles
type ClientService interface {
	ListClients(ctx context.Context, p *Principal) ([]domain.ClientView, error)
	GetClient(ctx context.Context, p *Principal, id int64) (*domain.ClientView, error)
	CreateClient(ctx context.Context, p *Principal, req CreateClientRequest) (*domain.ClientView, error)
	UpdateClient(ctx context.Context, p *Principal, id int64, patch domain.ClientPatch) (*domain.ClientView, error)
	// SearchVehicles finds platform vehicles by number plate prefix
	SearchVehicles(ctx context.Context, p *Principal, numberPlate string) ([]domain.Vehicle, error)
}

type clientService struct {
	clients  repository.ClientsRepository
	vehicles repository.VehiclesRepository
	logger   *zap.Logger
}

func NewClientService(clients repository.ClientsRepository, vehicles repository.VehiclesRepository, logger *zap.Logger) ClientService {
	return &clientService{clients: clients, vehicles: vehicles, logger: logger}
}

type CreateClientRequest struct {
	VehicleID    int64           `json:"vehicle_id" validate:"required,gt=0"`
	OwnerID      int64           `json:"owner_id" validate:"required,gt=0"`
	DateOfReg    domain.Date     `json:"date_of_reg"`
	MileageOnReg decimal.Decimal `json:"mileage_on_reg"`
}

func (s *clientService) ListClients(ctx context.Context, p *Principal) ([]domain.ClientView, error) {
	if err := p.requireTenantUser(domain.PrivClients, false); err != nil {
		return nil, err
	}
	return s.clients.ListClients(ctx, p.Tenant)
}

func (s *clientService) GetClient(ctx context.Context, p *Principal, id int64) (*domain.ClientView, error) {
	if err := p.requireTenantUser(domain.PrivClients, false); err != nil {
		return nil, err
	}
	return s.clients.GetClient(ctx, p.Tenant, id)
}

func (s *clientService) CreateClient(ctx context.Context, p *Principal, req CreateClientRequest) (*domain.ClientView, error) {
	if err := p.requireTenantUser(domain.PrivClients, true); err != nil {
		return nil, err
	}
	if req.MileageOnReg.IsNegative() {
		return nil, fmt.Errorf("%w: mileage must not be negative", domain.ErrValidation)
	}
	c := &domain.Client{
		VehicleID:    req.VehicleID,
		OwnerID:      req.OwnerID,
		DateOfReg:    req.DateOfReg,
		MileageOnReg: req.MileageOnReg,
	}
	if c.DateOfReg.IsZero() {
		c.DateOfReg = domain.Today()
	}
	id, err := s.clients.CreateClient(ctx, p.Tenant, c)
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("client", "create").Inc()
	s.logger.Info("Client registered",
		zap.String("schema", p.Tenant.Schema()),
		zap.Int64("client_id", id),
		zap.Int64("vehicle_id", req.VehicleID),
	)
	return s.clients.GetClient(ctx, p.Tenant, id)
}

func (s *clientService) UpdateClient(ctx context.Context, p *Principal, id int64, patch domain.ClientPatch) (*domain.ClientView, error) {
	if err := p.requireTenantUser(domain.PrivClients, true); err != nil {
		return nil, err
	}
	c, err := s.clients.UpdateClient(ctx, p.Tenant, id, patch)
	if err != nil {
		return nil, err
	}
	metrics.TenantOperationCounter.WithLabelValues("client", "update").Inc()
	return c, nil
}

func (s *clientService) SearchVehicles(ctx context.Context, p *Principal, numberPlate string) ([]domain.Vehicle, error) {
	if err := p.requireTenantUser(domain.PrivClients, false); err != nil {
		return nil, err
	}
	numberPlate = strings.TrimSpace(numberPlate)
	if numberPlate == "" {
		return nil, fmt.Errorf("%w: number_plate is required", domain.ErrValidation)
	}
	return s.vehicles.SearchVehicles(ctx, numberPlate)
}

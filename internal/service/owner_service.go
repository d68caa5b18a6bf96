package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"carconnect/internal/audit"
	"carconnect/internal/domain"
	"carconnect/internal/metrics"
	"carconnect/internal/repository"
	"carconnect/internal/tenant"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OwnerService serves the vehicle owner's own profile, vehicles and cross-tenant history
type OwnerService interface {
	GetProfile(ctx context.Context, p *Principal) (*domain.Owner, error)
	UpdateProfile(ctx context.Context, p *Principal, patch domain.OwnerPatch) (*domain.Owner, error)
	AddVehicle(ctx context.Context, p *Principal, req AddVehicleRequest) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, p *Principal) ([]domain.Vehicle, error)
	GetVehicle(ctx context.Context, p *Principal, vehicleID int64) (*domain.Vehicle, error)
	// VehicleHistory gathers the vehicle's service records from every tenant that serviced it.
	// A tenant that fails is reported in Failures and does not fail the whole history.
	VehicleHistory(ctx context.Context, p *Principal, vehicleID int64, filter domain.HistoryFilter) (*domain.VehicleHistory, error)
}

type ownerService struct {
	tx       repository.Transactor
	resolver TenantResolver
	owners   repository.OwnersRepository
	vehicles repository.VehiclesRepository
	records  repository.ServiceRecordsRepository
	fanout   int
	audit    audit.Sink
	logger   *zap.Logger
}

func NewOwnerService(
	tx repository.Transactor,
	resolver TenantResolver,
	owners repository.OwnersRepository,
	vehicles repository.VehiclesRepository,
	records repository.ServiceRecordsRepository,
	fanout int,
	auditSink audit.Sink,
	logger *zap.Logger,
) OwnerService {
	if fanout <= 0 {
		fanout = 4
	}
	return &ownerService{
		tx:       tx,
		resolver: resolver,
		owners:   owners,
		vehicles: vehicles,
		records:  records,
		fanout:   fanout,
		audit:    auditSink,
		logger:   logger,
	}
}

// AddVehicleRequest registers a platform vehicle and links it to the caller
type AddVehicleRequest struct {
	NumberPlate      string          `json:"number_plate" validate:"required,max=15"`
	Model            string          `json:"model" validate:"required"`
	Make             string          `json:"make" validate:"required"`
	EngineNo         string          `json:"engine_no" validate:"required"`
	ChassisNo        string          `json:"chassis_no" validate:"required"`
	TransmissionType int64           `json:"transmission_type" validate:"required,gt=0"`
	FuelType         int64           `json:"fuel_type" validate:"required,gt=0"`
	SeatingCapacity  int             `json:"seating_capacity" validate:"required,gt=0"`
	Mileage          decimal.Decimal `json:"mileage"`
	RegYear          *int            `json:"reg_year" validate:"omitempty,gte=1900,lte=2100"`
}

func (s *ownerService) GetProfile(ctx context.Context, p *Principal) (*domain.Owner, error) {
	if err := p.requireRole(domain.RoleOwner); err != nil {
		return nil, err
	}
	if err := p.Require(domain.PrivProfile, false); err != nil {
		return nil, err
	}
	return s.owners.GetOwner(ctx, p.UserID)
}

func (s *ownerService) UpdateProfile(ctx context.Context, p *Principal, patch domain.OwnerPatch) (*domain.Owner, error) {
	if err := p.requireRole(domain.RoleOwner); err != nil {
		return nil, err
	}
	if err := p.Require(domain.PrivProfile, true); err != nil {
		return nil, err
	}
	owner, err := s.owners.UpdateOwner(ctx, p.UserID, patch)
	if err != nil {
		return nil, err
	}
	emitAudit(ctx, s.audit, s.logger, p.auditEvent(audit.KindProfileChange, "update_profile", fieldNames(patch.Fields())...))
	return owner, nil
}

func (s *ownerService) AddVehicle(ctx context.Context, p *Principal, req AddVehicleRequest) (*domain.Vehicle, error) {
	if err := p.requireRole(domain.RoleOwner); err != nil {
		return nil, err
	}
	if err := p.Require(domain.PrivVehicles, true); err != nil {
		return nil, err
	}
	v := &domain.Vehicle{
		NumberPlate:      req.NumberPlate,
		Model:            req.Model,
		Make:             req.Make,
		EngineNo:         req.EngineNo,
		ChassisNo:        req.ChassisNo,
		TransmissionType: req.TransmissionType,
		FuelType:         req.FuelType,
		SeatingCapacity:  req.SeatingCapacity,
		Mileage:          req.Mileage,
	}

	var id int64
	err := s.tx.WithTx(ctx, func(tx tenant.DBTX) error {
		var err error
		if id, err = s.vehicles.CreateVehicle(ctx, tx, v); err != nil {
			return err
		}
		return s.vehicles.LinkOwner(ctx, tx, p.UserID, id, req.RegYear)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Vehicle registered",
		zap.Int64("owner_id", p.UserID),
		zap.Int64("vehicle_id", id),
		zap.String("number_plate", req.NumberPlate),
	)
	return s.vehicles.GetOwnerVehicle(ctx, p.UserID, id)
}

func (s *ownerService) ListVehicles(ctx context.Context, p *Principal) ([]domain.Vehicle, error) {
	if err := p.requireRole(domain.RoleOwner); err != nil {
		return nil, err
	}
	if err := p.Require(domain.PrivVehicles, false); err != nil {
		return nil, err
	}
	return s.vehicles.ListOwnerVehicles(ctx, p.UserID)
}

func (s *ownerService) GetVehicle(ctx context.Context, p *Principal, vehicleID int64) (*domain.Vehicle, error) {
	if err := p.requireRole(domain.RoleOwner); err != nil {
		return nil, err
	}
	if err := p.Require(domain.PrivVehicles, false); err != nil {
		return nil, err
	}
	return s.vehicles.GetOwnerVehicle(ctx, p.UserID, vehicleID)
}

// historyFailureText is the client facing reason for a tenant missing from a history
func historyFailureText(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "unknown tenant"
	}
	return "tenant unavailable"
}

func (s *ownerService) VehicleHistory(ctx context.Context, p *Principal, vehicleID int64, filter domain.HistoryFilter) (*domain.VehicleHistory, error) {
	v, err := s.GetVehicle(ctx, p, vehicleID)
	if err != nil {
		return nil, err
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(filter.FromDate.Time) {
		return nil, fmt.Errorf("%w: toDate is before fromDate", domain.ErrValidation)
	}

	order, groups := v.ServiceHistory.BySchema()
	if filter.CenterUsername != "" {
		h, err := s.resolver.ResolveCenter(ctx, filter.CenterUsername)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.VehicleHistory{Records: []domain.HistoryEntry{}, Failures: []domain.HistoryFailure{}}, nil
			}
			return nil, err
		}
		order = onlySchema(order, h.Schema())
	}

	tenants, err := s.resolver.ResolveSchemas(ctx, order)
	if err != nil {
		return nil, err
	}

	results := make([][]domain.HistoryEntry, len(order))
	errs := make([]error, len(order))

	var g errgroup.Group
	g.SetLimit(s.fanout)
	for i, schema := range order {
		i, schema := i, schema
		t, ok := tenants[schema]
		if !ok {
			errs[i] = fmt.Errorf("%w: schema %s", domain.ErrNotFound, schema)
			continue
		}
		g.Go(func() error {
			entries, err := s.records.HistoryForVehicle(ctx, t.Handle, vehicleID, groups[schema], filter)
			if err != nil {
				errs[i] = err
				return nil
			}
			for j := range entries {
				entries[j].CenterName = t.CenterName
			}
			results[i] = entries
			return nil
		})
	}
	_ = g.Wait()

	history := &domain.VehicleHistory{Records: []domain.HistoryEntry{}, Failures: []domain.HistoryFailure{}}
	for i := range order {
		history.Records = append(history.Records, results[i]...)
		if errs[i] != nil {
			metrics.HistoryFailureCounter.Inc()
			s.logger.Warn("Vehicle history tenant query failed",
				zap.Int64("vehicle_id", vehicleID),
				zap.String("schema", order[i]),
				zap.Error(errs[i]),
			)
			history.Failures = append(history.Failures, domain.HistoryFailure{Schema: order[i], Error: historyFailureText(errs[i])})
		}
	}
	sort.SliceStable(history.Records, func(a, b int) bool {
		return history.Records[a].ServiceDate.After(history.Records[b].ServiceDate.Time)
	})
	return history, nil
}

func onlySchema(order []string, schema string) []string {
	for _, s := range order {
		if s == schema {
			return []string{s}
		}
	}
	return []string{}
}

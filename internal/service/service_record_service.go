package service

import (
	"context"
	"encoding/json"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/metrics"
	"carconnect/internal/repository"
	"carconnect/internal/tenant"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ServiceRecordService manages ongoing and finished services of the caller's tenant
type ServiceRecordService interface {
	ListOngoing(ctx context.Context, p *Principal) ([]domain.ServiceRecord, error)
	GetOngoing(ctx context.Context, p *Principal, id int64) (*domain.ServiceRecord, error)
	ListFinished(ctx context.Context, p *Principal) ([]domain.ServiceRecord, error)
	GetFinished(ctx context.Context, p *Principal, id int64) (*domain.ServiceRecord, error)
	// CreateService inserts the record with its technicians and appends a pointer to the
	// platform vehicle's history, all in one transaction
	CreateService(ctx context.Context, p *Principal, req CreateServiceRequest) (*domain.ServiceRecord, error)
	// UpdateService patches an ongoing record. A technician list replaces the current set.
	UpdateService(ctx context.Context, p *Principal, id int64, patch domain.ServiceRecordPatch) (*domain.ServiceRecord, error)
	LatestMileage(ctx context.Context, p *Principal, vehicleID int64) (decimal.Decimal, error)
}

type serviceRecordService struct {
	tx       repository.Transactor
	records  repository.ServiceRecordsRepository
	vehicles repository.VehiclesRepository
	logger   *zap.Logger
}

func NewServiceRecordService(
	tx repository.Transactor,
	records repository.ServiceRecordsRepository,
	vehicles repository.VehiclesRepository,
	logger *zap.Logger,
) ServiceRecordService {
	return &serviceRecordService{tx: tx, records: records, vehicles: vehicles, logger: logger}
}

type CreateServiceRequest struct {
	ClientID      int64           `json:"client_id" validate:"required,gt=0"`
	ServiceDate   domain.Date     `json:"service_date"`
	Description   string          `json:"description" validate:"required"`
	Mileage       decimal.Decimal `json:"mileage"`
	Cost          decimal.Decimal `json:"cost"`
	Details       json.RawMessage `json:"details"`
	TechnicianIDs []int64         `json:"technician_ids" validate:"dive,gt=0"`
}

func (s *serviceRecordService) ListOngoing(ctx context.Context, p *Principal) ([]domain.ServiceRecord, error) {
	if err := p.requireTenantUser(domain.PrivServiceRecords, false); err != nil {
		return nil, err
	}
	return s.records.ListServiceRecords(ctx, p.Tenant, true)
}

func (s *serviceRecordService) GetOngoing(ctx context.Context, p *Principal, id int64) (*domain.ServiceRecord, error) {
	if err := p.requireTenantUser(domain.PrivServiceRecords, false); err != nil {
		return nil, err
	}
	return s.records.GetServiceRecord(ctx, p.Tenant, id, true)
}

func (s *serviceRecordService) ListFinished(ctx context.Context, p *Principal) ([]domain.ServiceRecord, error) {
	if err := p.requireTenantUser(domain.PrivServiceRecords, false); err != nil {
		return nil, err
	}
	return s.records.ListServiceRecords(ctx, p.Tenant, false)
}

func (s *serviceRecordService) GetFinished(ctx context.Context, p *Principal, id int64) (*domain.ServiceRecord, error) {
	if err := p.requireTenantUser(domain.PrivServiceRecords, false); err != nil {
		return nil, err
	}
	return s.records.GetServiceRecord(ctx, p.Tenant, id, false)
}

func (s *serviceRecordService) CreateService(ctx context.Context, p *Principal, req CreateServiceRequest) (*domain.ServiceRecord, error) {
	if err := p.requireTenantUser(domain.PrivServiceRecords, true); err != nil {
		return nil, err
	}
	if req.Mileage.IsNegative() || req.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: mileage and cost must not be negative", domain.ErrValidation)
	}
	if len(req.Details) > 0 && !json.Valid(req.Details) {
		return nil, fmt.Errorf("%w: details must be valid JSON", domain.ErrValidation)
	}

	rec := &domain.ServiceRecord{
		ClientID:    req.ClientID,
		ServiceDate: req.ServiceDate,
		Description: req.Description,
		Mileage:     req.Mileage,
		Cost:        req.Cost,
		Details:     req.Details,
		IsOngoing:   true,
		Technicians: dedupeIDs(req.TechnicianIDs),
	}
	if rec.ServiceDate.IsZero() {
		rec.ServiceDate = domain.Today()
	}

	var id, vehicleID int64
	err := s.tx.WithTx(ctx, func(tx tenant.DBTX) error {
		var err error
		if vehicleID, err = s.records.ClientVehicle(ctx, tx, p.Tenant, req.ClientID); err != nil {
			return err
		}
		if id, err = s.records.CreateServiceRecord(ctx, tx, p.Tenant, rec); err != nil {
			return err
		}
		pointer := domain.HistoryPointer{Schema: p.Tenant.Schema(), RecordID: id}
		if err := s.vehicles.AppendHistory(ctx, tx, vehicleID, pointer); err != nil {
			return err
		}
		return s.vehicles.UpdateMileage(ctx, tx, vehicleID, rec.Mileage)
	})
	if err != nil {
		return nil, err
	}

	metrics.TenantOperationCounter.WithLabelValues("service_record", "create").Inc()
	s.logger.Info("Service record created",
		zap.String("schema", p.Tenant.Schema()),
		zap.Int64("record_id", id),
		zap.Int64("vehicle_id", vehicleID),
		zap.Int("technicians", len(rec.Technicians)),
	)
	return s.records.GetServiceRecord(ctx, p.Tenant, id, true)
}

func (s *serviceRecordService) UpdateService(ctx context.Context, p *Principal, id int64, patch domain.ServiceRecordPatch) (*domain.ServiceRecord, error) {
	if err := p.requireTenantUser(domain.PrivServiceRecords, true); err != nil {
		return nil, err
	}
	fields := patch.Fields()
	if len(fields) == 0 && patch.TechnicianIDs == nil {
		return nil, domain.ErrNoFieldsProvided
	}
	if patch.Mileage != nil && patch.Mileage.IsNegative() {
		return nil, fmt.Errorf("%w: mileage must not be negative", domain.ErrValidation)
	}
	if patch.Details != nil && !json.Valid(*patch.Details) {
		return nil, fmt.Errorf("%w: details must be valid JSON", domain.ErrValidation)
	}

	err := s.tx.WithTx(ctx, func(tx tenant.DBTX) error {
		clientID, err := s.records.LockOngoingRecord(ctx, tx, p.Tenant, id)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := s.records.UpdateServiceRecord(ctx, tx, p.Tenant, id, patch); err != nil {
				return err
			}
		}
		if patch.TechnicianIDs != nil {
			if err := s.records.ReplaceTechnicians(ctx, tx, p.Tenant, id, dedupeIDs(*patch.TechnicianIDs)); err != nil {
				return err
			}
		}
		if patch.Mileage != nil {
			vehicleID, err := s.records.ClientVehicle(ctx, tx, p.Tenant, clientID)
			if err != nil {
				return err
			}
			return s.vehicles.UpdateMileage(ctx, tx, vehicleID, *patch.Mileage)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TenantOperationCounter.WithLabelValues("service_record", "update").Inc()
	ongoing := true
	if patch.IsOngoing != nil {
		ongoing = *patch.IsOngoing
	}
	return s.records.GetServiceRecord(ctx, p.Tenant, id, ongoing)
}

func (s *serviceRecordService) LatestMileage(ctx context.Context, p *Principal, vehicleID int64) (decimal.Decimal, error) {
	if err := p.requireTenantUser(domain.PrivServiceRecords, false); err != nil {
		return decimal.Zero, err
	}
	return s.records.LatestMileage(ctx, p.Tenant, vehicleID)
}

func dedupeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

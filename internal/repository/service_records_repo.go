package repository

import (
	"context"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"

	"github.com/shopspring/decimal"
)

// ClientsRepository manages the clients of a tenant. Reads join the platform vehicle and owner.
type ClientsRepository interface {
	CreateClient(ctx context.Context, h tenant.Handle, c *domain.Client) (int64, error)
	GetClient(ctx context.Context, h tenant.Handle, id int64) (*domain.ClientView, error)
	ListClients(ctx context.Context, h tenant.Handle) ([]domain.ClientView, error)
	UpdateClient(ctx context.Context, h tenant.Handle, id int64, patch domain.ClientPatch) (*domain.ClientView, error)
}

// ServiceRecordsRepository manages service records and their technicians
type ServiceRecordsRepository interface {
	// CreateServiceRecord inserts the record and its technician rows in one statement
	CreateServiceRecord(ctx context.Context, q tenant.DBTX, h tenant.Handle, rec *domain.ServiceRecord) (int64, error)
	GetServiceRecord(ctx context.Context, h tenant.Handle, id int64, ongoing bool) (*domain.ServiceRecord, error)
	ListServiceRecords(ctx context.Context, h tenant.Handle, ongoing bool) ([]domain.ServiceRecord, error)
	// LockOngoingRecord row-locks an ongoing record for the rest of q's transaction and returns its client
	LockOngoingRecord(ctx context.Context, q tenant.DBTX, h tenant.Handle, id int64) (int64, error)
	UpdateServiceRecord(ctx context.Context, q tenant.DBTX, h tenant.Handle, id int64, patch domain.ServiceRecordPatch) error
	ReplaceTechnicians(ctx context.Context, q tenant.DBTX, h tenant.Handle, id int64, technicianIDs []int64) error
	// ClientVehicle returns the platform vehicle id behind a client of h
	ClientVehicle(ctx context.Context, q tenant.DBTX, h tenant.Handle, clientID int64) (int64, error)
	LatestMileage(ctx context.Context, h tenant.Handle, vehicleID int64) (decimal.Decimal, error)
	// HistoryForVehicle reads the records of recordIDs that belong to vehicleID and match filter
	HistoryForVehicle(ctx context.Context, h tenant.Handle, vehicleID int64, recordIDs []int64, filter domain.HistoryFilter) ([]domain.HistoryEntry, error)
}

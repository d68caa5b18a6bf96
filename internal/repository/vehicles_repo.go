package repository

import (
	"context"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"

	"github.com/shopspring/decimal"
)

// VehiclesRepository manages platform vehicles and their owner links
type VehiclesRepository interface {
	CreateVehicle(ctx context.Context, q tenant.DBTX, v *domain.Vehicle) (int64, error)
	LinkOwner(ctx context.Context, q tenant.DBTX, ownerID, vehicleID int64, regYear *int) error
	ListOwnerVehicles(ctx context.Context, ownerID int64) ([]domain.Vehicle, error)
	GetOwnerVehicle(ctx context.Context, ownerID, vehicleID int64) (*domain.Vehicle, error)
	GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error)
	SearchVehicles(ctx context.Context, numberPlate string) ([]domain.Vehicle, error)
	// AppendHistory adds a pointer to the vehicle's service_history array
	AppendHistory(ctx context.Context, q tenant.DBTX, vehicleID int64, p domain.HistoryPointer) error
	UpdateMileage(ctx context.Context, q tenant.DBTX, vehicleID int64, mileage decimal.Decimal) error
}

// ParametersRepository reads the platform lookup tables
type ParametersRepository interface {
	ListParameters(ctx context.Context, table tenant.TableName) ([]domain.Parameter, error)
}

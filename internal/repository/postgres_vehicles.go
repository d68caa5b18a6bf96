package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"

	"github.com/shopspring/decimal"
)

// PostgresVehiclesRepository stores vehicles in <platform>.vehicles
type PostgresVehiclesRepository struct {
	db       *sql.DB
	platform tenant.Handle
}

func NewPostgresVehiclesRepository(db *sql.DB, platform tenant.Handle) *PostgresVehiclesRepository {
	return &PostgresVehiclesRepository{db: db, platform: platform}
}

var _ VehiclesRepository = (*PostgresVehiclesRepository)(nil)

const vehicleColumns = `v.vehicle_id, v.number_plate, v.model, v.make, v.engine_no, v.chassis_no,
	COALESCE(v.transmission_type, 0), COALESCE(v.fuel_type, 0), v.seating_capacity, v.mileage, v.service_history`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(s rowScanner, extra ...any) (domain.Vehicle, error) {
	var v domain.Vehicle
	dest := []any{
		&v.VehicleID, &v.NumberPlate, &v.Model, &v.Make, &v.EngineNo, &v.ChassisNo,
		&v.TransmissionType, &v.FuelType, &v.SeatingCapacity, &v.Mileage, &v.ServiceHistory,
	}
	err := s.Scan(append(dest, extra...)...)
	return v, err
}

func (r *PostgresVehiclesRepository) CreateVehicle(ctx context.Context, q tenant.DBTX, v *domain.Vehicle) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (number_plate, model, make, engine_no, chassis_no, transmission_type, fuel_type, seating_capacity, mileage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING vehicle_id
	`, r.platform.Table(tenant.TableVehicles))

	var id int64
	err := q.QueryRowContext(ctx, query,
		v.NumberPlate, v.Model, v.Make, v.EngineNo, v.ChassisNo,
		v.TransmissionType, v.FuelType, v.SeatingCapacity, v.Mileage,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "vehicle")
	}
	return id, nil
}

func (r *PostgresVehiclesRepository) LinkOwner(ctx context.Context, q tenant.DBTX, ownerID, vehicleID int64, regYear *int) error {
	query := fmt.Sprintf(`INSERT INTO %s (owner_id, vehicle_id, reg_year) VALUES ($1, $2, $3)`,
		r.platform.Table(tenant.TableOwnerVehicle))

	var year any
	if regYear != nil {
		year = *regYear
	}
	if _, err := q.ExecContext(ctx, query, ownerID, vehicleID, year); err != nil {
		return mapWriteError(err, "owner vehicle")
	}
	return nil
}

func (r *PostgresVehiclesRepository) ListOwnerVehicles(ctx context.Context, ownerID int64) ([]domain.Vehicle, error) {
	query := fmt.Sprintf(`
		SELECT %s, ov.reg_year
		FROM %s v
		JOIN %s ov ON ov.vehicle_id = v.vehicle_id
		WHERE ov.owner_id = $1
		ORDER BY v.vehicle_id
	`, vehicleColumns, r.platform.Table(tenant.TableVehicles), r.platform.Table(tenant.TableOwnerVehicle))

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner vehicles: %w", err)
	}
	defer rows.Close()

	out := []domain.Vehicle{}
	for rows.Next() {
		var regYear sql.NullInt64
		v, err := scanVehicle(rows, &regYear)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		v.RegYear = nullIntPtr(regYear)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicles: %w", err)
	}
	return out, nil
}

// GetOwnerVehicle only returns vehicles linked to ownerID
func (r *PostgresVehiclesRepository) GetOwnerVehicle(ctx context.Context, ownerID, vehicleID int64) (*domain.Vehicle, error) {
	query := fmt.Sprintf(`
		SELECT %s, ov.reg_year
		FROM %s v
		JOIN %s ov ON ov.vehicle_id = v.vehicle_id
		WHERE ov.owner_id = $1 AND v.vehicle_id = $2
	`, vehicleColumns, r.platform.Table(tenant.TableVehicles), r.platform.Table(tenant.TableOwnerVehicle))

	var regYear sql.NullInt64
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, ownerID, vehicleID), &regYear)
	if err != nil {
		return nil, mapReadError(err, "vehicle")
	}
	v.RegYear = nullIntPtr(regYear)
	return &v, nil
}

func (r *PostgresVehiclesRepository) GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s v WHERE v.vehicle_id = $1`, vehicleColumns, r.platform.Table(tenant.TableVehicles))

	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, vehicleID))
	if err != nil {
		return nil, mapReadError(err, "vehicle")
	}
	return &v, nil
}

// SearchVehicles matches number plates by case-insensitive prefix
func (r *PostgresVehiclesRepository) SearchVehicles(ctx context.Context, numberPlate string) ([]domain.Vehicle, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s v
		WHERE v.number_plate ILIKE $1 || '%%'
		ORDER BY v.number_plate
		LIMIT 50
	`, vehicleColumns, r.platform.Table(tenant.TableVehicles))

	rows, err := r.db.QueryContext(ctx, query, numberPlate)
	if err != nil {
		return nil, fmt.Errorf("failed to search vehicles: %w", err)
	}
	defer rows.Close()

	out := []domain.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicles: %w", err)
	}
	return out, nil
}

func (r *PostgresVehiclesRepository) AppendHistory(ctx context.Context, q tenant.DBTX, vehicleID int64, p domain.HistoryPointer) error {
	entry, err := json.Marshal([]domain.HistoryPointer{p})
	if err != nil {
		return fmt.Errorf("failed to encode history pointer: %w", err)
	}
	query := fmt.Sprintf(`UPDATE %s SET service_history = service_history || $1::jsonb WHERE vehicle_id = $2`,
		r.platform.Table(tenant.TableVehicles))

	res, err := q.ExecContext(ctx, query, string(entry), vehicleID)
	if err != nil {
		return fmt.Errorf("failed to append service history: %w", err)
	}
	return requireAffected(res, "vehicle")
}

// UpdateMileage raises the recorded odometer value, never lowers it
func (r *PostgresVehiclesRepository) UpdateMileage(ctx context.Context, q tenant.DBTX, vehicleID int64, mileage decimal.Decimal) error {
	query := fmt.Sprintf(`UPDATE %s SET mileage = GREATEST(mileage, $1) WHERE vehicle_id = $2`,
		r.platform.Table(tenant.TableVehicles))

	res, err := q.ExecContext(ctx, query, mileage, vehicleID)
	if err != nil {
		return fmt.Errorf("failed to update vehicle mileage: %w", err)
	}
	return requireAffected(res, "vehicle")
}

// PostgresParametersRepository reads the platform lookup tables
type PostgresParametersRepository struct {
	db       *sql.DB
	platform tenant.Handle
}

func NewPostgresParametersRepository(db *sql.DB, platform tenant.Handle) *PostgresParametersRepository {
	return &PostgresParametersRepository{db: db, platform: platform}
}

var _ ParametersRepository = (*PostgresParametersRepository)(nil)

func (r *PostgresParametersRepository) ListParameters(ctx context.Context, table tenant.TableName) ([]domain.Parameter, error) {
	switch table {
	case tenant.TableGender, tenant.TableFuelType, tenant.TableTransmissionType:
	default:
		return nil, fmt.Errorf("%w: %s is not a parameter table", domain.ErrIdentifierRejected, table)
	}

	query := fmt.Sprintf(`SELECT id, description FROM %s ORDER BY id`, r.platform.Table(table))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	out := []domain.Parameter{}
	for rows.Next() {
		var p domain.Parameter
		if err := rows.Scan(&p.ID, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}
	return out, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// PostgresClientsRepository addresses <tenant>.clients
type PostgresClientsRepository struct {
	db       *sql.DB
	platform tenant.Handle
}

func NewPostgresClientsRepository(db *sql.DB, platform tenant.Handle) *PostgresClientsRepository {
	return &PostgresClientsRepository{db: db, platform: platform}
}

var _ ClientsRepository = (*PostgresClientsRepository)(nil)

func (r *PostgresClientsRepository) viewQuery(h tenant.Handle, where string) string {
	return fmt.Sprintf(`
		SELECT c.id, c.vehicle_id, c.date_of_reg, c.mileage_on_reg, c.owner,
			v.number_plate, v.model, v.make, v.engine_no, v.chassis_no,
			COALESCE(tt.description, ''), COALESCE(ft.description, ''), v.seating_capacity,
			o.name, COALESCE(o.phone, ''), COALESCE(o.email, '')
		FROM %s c
		JOIN %s v ON v.vehicle_id = c.vehicle_id
		JOIN %s o ON o.id = c.owner
		LEFT JOIN %s tt ON tt.id = v.transmission_type
		LEFT JOIN %s ft ON ft.id = v.fuel_type
		%s
		ORDER BY c.id
	`, h.Table(tenant.TableClients),
		r.platform.Table(tenant.TableVehicles),
		r.platform.Table(tenant.TableOwner),
		r.platform.Table(tenant.TableTransmissionType),
		r.platform.Table(tenant.TableFuelType),
		where)
}

func scanClientView(s rowScanner) (domain.ClientView, error) {
	var c domain.ClientView
	err := s.Scan(
		&c.ID, &c.VehicleID, &c.DateOfReg, &c.MileageOnReg, &c.OwnerID,
		&c.NumberPlate, &c.Model, &c.Make, &c.EngineNo, &c.ChassisNo,
		&c.TransmissionType, &c.FuelType, &c.SeatingCapacity,
		&c.OwnerName, &c.OwnerContact, &c.OwnerEmail,
	)
	return c, err
}

func (r *PostgresClientsRepository) CreateClient(ctx context.Context, h tenant.Handle, c *domain.Client) (int64, error) {
	if err := requireTenant(h); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (vehicle_id, date_of_reg, mileage_on_reg, owner)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, h.Table(tenant.TableClients))

	var id int64
	if err := r.db.QueryRowContext(ctx, query, c.VehicleID, c.DateOfReg, c.MileageOnReg, c.OwnerID).Scan(&id); err != nil {
		return 0, mapWriteError(err, "client")
	}
	return id, nil
}

func (r *PostgresClientsRepository) GetClient(ctx context.Context, h tenant.Handle, id int64) (*domain.ClientView, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	c, err := scanClientView(r.db.QueryRowContext(ctx, r.viewQuery(h, "WHERE c.id = $1"), id))
	if err != nil {
		return nil, mapReadError(err, "client")
	}
	return &c, nil
}

func (r *PostgresClientsRepository) ListClients(ctx context.Context, h tenant.Handle) ([]domain.ClientView, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, r.viewQuery(h, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	out := []domain.ClientView{}
	for rows.Next() {
		c, err := scanClientView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return out, nil
}

func (r *PostgresClientsRepository) UpdateClient(ctx context.Context, h tenant.Handle, id int64, patch domain.ClientPatch) (*domain.ClientView, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	if err := execPartialUpdate(ctx, r.db, h, tenant.ClientSpec, patch.Fields(), id, "client"); err != nil {
		return nil, err
	}
	return r.GetClient(ctx, h, id)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PostgresServiceRecordsRepository addresses <tenant>.service_records and <tenant>.service_technician
type PostgresServiceRecordsRepository struct {
	db *sql.DB
}

func NewPostgresServiceRecordsRepository(db *sql.DB) *PostgresServiceRecordsRepository {
	return &PostgresServiceRecordsRepository{db: db}
}

var _ ServiceRecordsRepository = (*PostgresServiceRecordsRepository)(nil)

func detailsArg(details []byte) any {
	if len(details) == 0 {
		return nil
	}
	return string(details)
}

func (r *PostgresServiceRecordsRepository) CreateServiceRecord(ctx context.Context, q tenant.DBTX, h tenant.Handle, rec *domain.ServiceRecord) (int64, error) {
	if err := requireTenant(h); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
		WITH inserted AS (
			INSERT INTO %s (client_id, service_date, description, mileage, cost, details, is_ongoing)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
			RETURNING id
		), technicians AS (
			INSERT INTO %s (service_id, technician_id)
			SELECT inserted.id, t.technician_id
			FROM inserted, unnest($8::int[]) AS t(technician_id)
		)
		SELECT id FROM inserted
	`, h.Table(tenant.TableServiceRecords), h.Table(tenant.TableServiceTechnician))

	technicians := rec.Technicians
	if technicians == nil {
		technicians = []int64{}
	}
	var id int64
	err := q.QueryRowContext(ctx, query,
		rec.ClientID, rec.ServiceDate, rec.Description, rec.Mileage, rec.Cost,
		detailsArg(rec.Details), rec.IsOngoing, pq.Array(technicians),
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "service record")
	}
	return id, nil
}

func (r *PostgresServiceRecordsRepository) recordQuery(h tenant.Handle, where string) string {
	return fmt.Sprintf(`
		SELECT s.id, s.client_id, s.service_date, s.description, s.mileage, s.cost, s.details, s.is_ongoing,
			COALESCE(array_agg(st.technician_id ORDER BY st.technician_id) FILTER (WHERE st.technician_id IS NOT NULL), '{}')
		FROM %s s
		LEFT JOIN %s st ON st.service_id = s.id
		%s
		GROUP BY s.id
		ORDER BY s.service_date DESC, s.id DESC
	`, h.Table(tenant.TableServiceRecords), h.Table(tenant.TableServiceTechnician), where)
}

func scanServiceRecord(s rowScanner) (domain.ServiceRecord, error) {
	var rec domain.ServiceRecord
	var details []byte
	var technicians pq.Int64Array
	err := s.Scan(
		&rec.ID, &rec.ClientID, &rec.ServiceDate, &rec.Description, &rec.Mileage, &rec.Cost,
		&details, &rec.IsOngoing, &technicians,
	)
	if len(details) > 0 {
		rec.Details = details
	}
	rec.Technicians = []int64(technicians)
	if rec.Technicians == nil {
		rec.Technicians = []int64{}
	}
	return rec, err
}

func (r *PostgresServiceRecordsRepository) GetServiceRecord(ctx context.Context, h tenant.Handle, id int64, ongoing bool) (*domain.ServiceRecord, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := r.recordQuery(h, "WHERE s.id = $1 AND s.is_ongoing = $2")

	rec, err := scanServiceRecord(r.db.QueryRowContext(ctx, query, id, ongoing))
	if err != nil {
		return nil, mapReadError(err, "service record")
	}
	return &rec, nil
}

func (r *PostgresServiceRecordsRepository) ListServiceRecords(ctx context.Context, h tenant.Handle, ongoing bool) ([]domain.ServiceRecord, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, r.recordQuery(h, "WHERE s.is_ongoing = $1"), ongoing)
	if err != nil {
		return nil, fmt.Errorf("failed to list service records: %w", err)
	}
	defer rows.Close()

	out := []domain.ServiceRecord{}
	for rows.Next() {
		rec, err := scanServiceRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service records: %w", err)
	}
	return out, nil
}

func (r *PostgresServiceRecordsRepository) LockOngoingRecord(ctx context.Context, q tenant.DBTX, h tenant.Handle, id int64) (int64, error) {
	if err := requireTenant(h); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT client_id FROM %s WHERE id = $1 AND is_ongoing FOR UPDATE`, h.Table(tenant.TableServiceRecords))

	var clientID int64
	if err := q.QueryRowContext(ctx, query, id).Scan(&clientID); err != nil {
		return 0, mapReadError(err, "service record")
	}
	return clientID, nil
}

func (r *PostgresServiceRecordsRepository) UpdateServiceRecord(ctx context.Context, q tenant.DBTX, h tenant.Handle, id int64, patch domain.ServiceRecordPatch) error {
	if err := requireTenant(h); err != nil {
		return err
	}
	return execPartialUpdate(ctx, q, h, tenant.ServiceRecordSpec, patch.Fields(), id, "service record")
}

func (r *PostgresServiceRecordsRepository) ReplaceTechnicians(ctx context.Context, q tenant.DBTX, h tenant.Handle, id int64, technicianIDs []int64) error {
	if err := requireTenant(h); err != nil {
		return err
	}
	del := fmt.Sprintf(`DELETE FROM %s WHERE service_id = $1`, h.Table(tenant.TableServiceTechnician))
	if _, err := q.ExecContext(ctx, del, id); err != nil {
		return fmt.Errorf("failed to clear technicians: %w", err)
	}
	if len(technicianIDs) == 0 {
		return nil
	}
	ins := fmt.Sprintf(`
		INSERT INTO %s (service_id, technician_id)
		SELECT $1, t.technician_id FROM unnest($2::int[]) AS t(technician_id)
		ON CONFLICT (service_id, technician_id) DO NOTHING
	`, h.Table(tenant.TableServiceTechnician))
	if _, err := q.ExecContext(ctx, ins, id, pq.Array(technicianIDs)); err != nil {
		return mapWriteError(err, "technician")
	}
	return nil
}

func (r *PostgresServiceRecordsRepository) ClientVehicle(ctx context.Context, q tenant.DBTX, h tenant.Handle, clientID int64) (int64, error) {
	if err := requireTenant(h); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT vehicle_id FROM %s WHERE id = $1`, h.Table(tenant.TableClients))

	var vehicleID int64
	if err := q.QueryRowContext(ctx, query, clientID).Scan(&vehicleID); err != nil {
		return 0, mapReadError(err, "client")
	}
	return vehicleID, nil
}

// LatestMileage falls back to the mileage recorded when the client registered
func (r *PostgresServiceRecordsRepository) LatestMileage(ctx context.Context, h tenant.Handle, vehicleID int64) (decimal.Decimal, error) {
	if err := requireTenant(h); err != nil {
		return decimal.Zero, err
	}
	query := fmt.Sprintf(`
		SELECT COALESCE(
			(SELECT s.mileage FROM %[1]s s JOIN %[2]s c ON c.id = s.client_id
			 WHERE c.vehicle_id = $1 ORDER BY s.service_date DESC, s.id DESC LIMIT 1),
			c.mileage_on_reg)
		FROM %[2]s c
		WHERE c.vehicle_id = $1
	`, h.Table(tenant.TableServiceRecords), h.Table(tenant.TableClients))

	var mileage decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, vehicleID).Scan(&mileage); err != nil {
		return decimal.Zero, mapReadError(err, "vehicle mileage")
	}
	return mileage, nil
}

func (r *PostgresServiceRecordsRepository) HistoryForVehicle(ctx context.Context, h tenant.Handle, vehicleID int64, recordIDs []int64, filter domain.HistoryFilter) ([]domain.HistoryEntry, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT s.id, s.service_date, s.description, s.mileage, s.cost, s.details, s.is_ongoing
		FROM %s s
		JOIN %s c ON c.id = s.client_id
		WHERE c.vehicle_id = $1 AND s.id = ANY($2)
			AND ($3::date IS NULL OR s.service_date >= $3::date)
			AND ($4::date IS NULL OR s.service_date <= $4::date)
			AND ($5::numeric IS NULL OR s.mileage >= $5::numeric)
			AND ($6::numeric IS NULL OR s.mileage <= $6::numeric)
		ORDER BY s.service_date DESC, s.id DESC
	`, h.Table(tenant.TableServiceRecords), h.Table(tenant.TableClients))

	rows, err := r.db.QueryContext(ctx, query, vehicleID, pq.Array(recordIDs),
		dateArg(filter.FromDate), dateArg(filter.ToDate),
		decimalArg(filter.MinMileage), decimalArg(filter.MaxMileage),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read service history: %w", err)
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		e := domain.HistoryEntry{Schema: h.Schema()}
		var details []byte
		if err := rows.Scan(&e.RecordID, &e.ServiceDate, &e.Description, &e.Mileage, &e.Cost, &details, &e.IsOngoing); err != nil {
			return nil, fmt.Errorf("failed to scan service history: %w", err)
		}
		if len(details) > 0 {
			e.Details = details
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service history: %w", err)
	}
	return out, nil
}

func dateArg(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return *d
}

func decimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

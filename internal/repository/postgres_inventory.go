package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// PostgresInventoryRepository addresses <tenant>.part
type PostgresInventoryRepository struct {
	db *sql.DB
}

func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

var _ InventoryRepository = (*PostgresInventoryRepository)(nil)

const partColumns = `part_id, name, description, manufacture_country, quantity, reorder_level, price`

func scanPart(s rowScanner) (domain.Part, error) {
	var p domain.Part
	err := s.Scan(&p.PartID, &p.Name, &p.Description, &p.ManufactureCountry, &p.Quantity, &p.ReorderLevel, &p.Price)
	return p, err
}

func (r *PostgresInventoryRepository) CreatePart(ctx context.Context, h tenant.Handle, p *domain.Part) (int64, error) {
	if err := requireTenant(h); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, manufacture_country, quantity, reorder_level, price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING part_id
	`, h.Table(tenant.TablePart))

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.ManufactureCountry, p.Quantity, p.ReorderLevel, p.Price,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "part")
	}
	return id, nil
}

func (r *PostgresInventoryRepository) GetPart(ctx context.Context, h tenant.Handle, id int64) (*domain.Part, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE part_id = $1`, partColumns, h.Table(tenant.TablePart))

	p, err := scanPart(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err, "part")
	}
	return &p, nil
}

func (r *PostgresInventoryRepository) ListParts(ctx context.Context, h tenant.Handle) ([]domain.Part, error) {
	return r.listParts(ctx, h, "")
}

func (r *PostgresInventoryRepository) ListReorderParts(ctx context.Context, h tenant.Handle) ([]domain.Part, error) {
	return r.listParts(ctx, h, "WHERE quantity <= reorder_level")
}

func (r *PostgresInventoryRepository) listParts(ctx context.Context, h tenant.Handle, where string) ([]domain.Part, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY part_id`, partColumns, h.Table(tenant.TablePart), where)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list parts: %w", err)
	}
	defer rows.Close()

	out := []domain.Part{}
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parts: %w", err)
	}
	return out, nil
}

func (r *PostgresInventoryRepository) UpdatePart(ctx context.Context, h tenant.Handle, id int64, patch domain.PartPatch) (*domain.Part, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	if err := execPartialUpdate(ctx, r.db, h, tenant.PartSpec, patch.Fields(), id, "part"); err != nil {
		return nil, err
	}
	return r.GetPart(ctx, h, id)
}

func (r *PostgresInventoryRepository) DeletePart(ctx context.Context, h tenant.Handle, id int64) error {
	if err := requireTenant(h); err != nil {
		return err
	}
	return deleteByKey(ctx, r.db, h, tenant.PartSpec, id, "part")
}

// PostgresServiceTypesRepository addresses <tenant>.services
type PostgresServiceTypesRepository struct {
	db *sql.DB
}

func NewPostgresServiceTypesRepository(db *sql.DB) *PostgresServiceTypesRepository {
	return &PostgresServiceTypesRepository{db: db}
}

var _ ServiceTypesRepository = (*PostgresServiceTypesRepository)(nil)

func (r *PostgresServiceTypesRepository) CreateServiceType(ctx context.Context, h tenant.Handle, s *domain.ServiceType) (int64, error) {
	if err := requireTenant(h); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (name, description, cost) VALUES ($1, $2, $3) RETURNING id`,
		h.Table(tenant.TableServices))

	var id int64
	if err := r.db.QueryRowContext(ctx, query, s.Name, s.Description, s.Cost).Scan(&id); err != nil {
		return 0, mapWriteError(err, "service type")
	}
	return id, nil
}

func (r *PostgresServiceTypesRepository) GetServiceType(ctx context.Context, h tenant.Handle, id int64) (*domain.ServiceType, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name, description, cost FROM %s WHERE id = $1`, h.Table(tenant.TableServices))

	var s domain.ServiceType
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Description, &s.Cost); err != nil {
		return nil, mapReadError(err, "service type")
	}
	return &s, nil
}

func (r *PostgresServiceTypesRepository) ListServiceTypes(ctx context.Context, h tenant.Handle) ([]domain.ServiceType, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name, description, cost FROM %s ORDER BY id`, h.Table(tenant.TableServices))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list service types: %w", err)
	}
	defer rows.Close()

	out := []domain.ServiceType{}
	for rows.Next() {
		var s domain.ServiceType
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan service type: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service types: %w", err)
	}
	return out, nil
}

func (r *PostgresServiceTypesRepository) UpdateServiceType(ctx context.Context, h tenant.Handle, id int64, patch domain.ServiceTypePatch) (*domain.ServiceType, error) {
	if err := requireTenant(h); err != nil {
		return nil, err
	}
	if err := execPartialUpdate(ctx, r.db, h, tenant.ServiceTypeSpec, patch.Fields(), id, "service type"); err != nil {
		return nil, err
	}
	return r.GetServiceType(ctx, h, id)
}

func (r *PostgresServiceTypesRepository) DeleteServiceType(ctx context.Context, h tenant.Handle, id int64) error {
	if err := requireTenant(h); err != nil {
		return err
	}
	return deleteByKey(ctx, r.db, h, tenant.ServiceTypeSpec, id, "service type")
}

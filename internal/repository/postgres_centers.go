package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// PostgresCentersRepository stores centers in <platform>.center
type PostgresCentersRepository struct {
	db       *sql.DB
	platform tenant.Handle
}

func NewPostgresCentersRepository(db *sql.DB, platform tenant.Handle) *PostgresCentersRepository {
	return &PostgresCentersRepository{db: db, platform: platform}
}

var _ CentersRepository = (*PostgresCentersRepository)(nil)

const centerColumns = `id, center_type, username, name,
	COALESCE(street_1, ''), COALESCE(street_2, ''), COALESCE(city, ''), COALESCE(province, ''),
	COALESCE(phone, ''), COALESCE(email, ''), roles, schema_name`

func (r *PostgresCentersRepository) CreateCenter(ctx context.Context, q tenant.DBTX, c *domain.Center, salt string, hash []byte) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (center_type, username, salt, password, name, street_1, street_2, city, province, phone, email, roles, schema_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, r.platform.Table(tenant.TableCenter))

	var id int64
	err := q.QueryRowContext(ctx, query,
		string(c.CenterType), c.Username, salt, hash, c.Name,
		c.Street1, c.Street2, c.City, c.Province, c.Phone, c.Email, c.Roles, c.SchemaName,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "center")
	}
	return id, nil
}

func (r *PostgresCentersRepository) GetCenter(ctx context.Context, id int64) (*domain.Center, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, centerColumns, r.platform.Table(tenant.TableCenter))

	var c domain.Center
	var centerType string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &centerType, &c.Username, &c.Name,
		&c.Street1, &c.Street2, &c.City, &c.Province,
		&c.Phone, &c.Email, &c.Roles, &c.SchemaName,
	)
	if err != nil {
		return nil, mapReadError(err, "center")
	}
	c.CenterType = domain.CenterType(centerType)
	return &c, nil
}

func (r *PostgresCentersRepository) GetCenterCredentials(ctx context.Context, username string) (*domain.Credentials, error) {
	return r.credentials(ctx, "username", username)
}

func (r *PostgresCentersRepository) GetCenterCredentialsByID(ctx context.Context, id int64) (*domain.Credentials, error) {
	return r.credentials(ctx, "id", id)
}

func (r *PostgresCentersRepository) credentials(ctx context.Context, column string, value any) (*domain.Credentials, error) {
	query := fmt.Sprintf(`SELECT id, username, name, salt, password, roles, schema_name FROM %s WHERE %s = $1`,
		r.platform.Table(tenant.TableCenter), column)

	c := domain.Credentials{IsActive: true}
	err := r.db.QueryRowContext(ctx, query, value).Scan(&c.ID, &c.Username, &c.Name, &c.Salt, &c.Hash, &c.Privileges, &c.Schema)
	if err != nil {
		return nil, mapReadError(err, "center")
	}
	return &c, nil
}

func (r *PostgresCentersRepository) ListCenters(ctx context.Context) ([]domain.CenterSummary, error) {
	query := fmt.Sprintf(`SELECT id, name, username, center_type, COALESCE(city, '') FROM %s ORDER BY name`,
		r.platform.Table(tenant.TableCenter))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list centers: %w", err)
	}
	defer rows.Close()

	out := []domain.CenterSummary{}
	for rows.Next() {
		var s domain.CenterSummary
		var centerType string
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &centerType, &s.City); err != nil {
			return nil, fmt.Errorf("failed to scan center: %w", err)
		}
		s.CenterType = domain.CenterType(centerType)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate centers: %w", err)
	}
	return out, nil
}

func (r *PostgresCentersRepository) UpdateCenter(ctx context.Context, id int64, patch domain.CenterPatch) (*domain.Center, error) {
	if err := execPartialUpdate(ctx, r.db, r.platform, tenant.CenterSpec, patch.Fields(), id, "center"); err != nil {
		return nil, err
	}
	return r.GetCenter(ctx, id)
}

func (r *PostgresCentersRepository) UpdateCenterPassword(ctx context.Context, id int64, salt string, hash []byte) error {
	query := fmt.Sprintf(`UPDATE %s SET salt = $1, password = $2 WHERE id = $3`, r.platform.Table(tenant.TableCenter))
	res, err := r.db.ExecContext(ctx, query, salt, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update center password: %w", err)
	}
	return requireAffected(res, "center")
}

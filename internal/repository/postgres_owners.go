package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// PostgresOwnersRepository stores owners in <platform>.owner
type PostgresOwnersRepository struct {
	db       *sql.DB
	platform tenant.Handle
}

func NewPostgresOwnersRepository(db *sql.DB, platform tenant.Handle) *PostgresOwnersRepository {
	return &PostgresOwnersRepository{db: db, platform: platform}
}

var _ OwnersRepository = (*PostgresOwnersRepository)(nil)

const ownerColumns = `id, username, name, COALESCE(gender, ''), dob,
	COALESCE(street_1, ''), COALESCE(street_2, ''), COALESCE(city, ''), COALESCE(province, ''),
	COALESCE(phone, ''), COALESCE(email, ''), COALESCE(nic, ''), roles`

func (r *PostgresOwnersRepository) CreateOwner(ctx context.Context, q tenant.DBTX, o *domain.Owner, salt string, hash []byte) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, salt, password, name, gender, dob, street_1, street_2, city, province, phone, email, nic, roles)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, r.platform.Table(tenant.TableOwner))

	var id int64
	err := q.QueryRowContext(ctx, query,
		o.Username, salt, hash, o.Name, nullableString(o.Gender), o.Dob,
		o.Street1, o.Street2, o.City, o.Province, o.Phone, o.Email, o.NIC, o.Roles,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err, "owner")
	}
	return id, nil
}

func (r *PostgresOwnersRepository) GetOwner(ctx context.Context, id int64) (*domain.Owner, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, ownerColumns, r.platform.Table(tenant.TableOwner))

	var o domain.Owner
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.Username, &o.Name, &o.Gender, &o.Dob,
		&o.Street1, &o.Street2, &o.City, &o.Province,
		&o.Phone, &o.Email, &o.NIC, &o.Roles,
	)
	if err != nil {
		return nil, mapReadError(err, "owner")
	}
	return &o, nil
}

func (r *PostgresOwnersRepository) GetOwnerCredentials(ctx context.Context, username string) (*domain.Credentials, error) {
	return r.credentials(ctx, "username", username)
}

func (r *PostgresOwnersRepository) GetOwnerCredentialsByID(ctx context.Context, id int64) (*domain.Credentials, error) {
	return r.credentials(ctx, "id", id)
}

func (r *PostgresOwnersRepository) credentials(ctx context.Context, column string, value any) (*domain.Credentials, error) {
	query := fmt.Sprintf(`SELECT id, username, name, salt, password, roles FROM %s WHERE %s = $1`,
		r.platform.Table(tenant.TableOwner), column)

	c := domain.Credentials{Schema: r.platform.Schema(), IsActive: true}
	err := r.db.QueryRowContext(ctx, query, value).Scan(&c.ID, &c.Username, &c.Name, &c.Salt, &c.Hash, &c.Privileges)
	if err != nil {
		return nil, mapReadError(err, "owner")
	}
	return &c, nil
}

func (r *PostgresOwnersRepository) OwnerExists(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.platform.Table(tenant.TableOwner))
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check owner: %w", err)
	}
	return exists, nil
}

func (r *PostgresOwnersRepository) UpdateOwner(ctx context.Context, id int64, patch domain.OwnerPatch) (*domain.Owner, error) {
	if err := execPartialUpdate(ctx, r.db, r.platform, tenant.OwnerSpec, patch.Fields(), id, "owner"); err != nil {
		return nil, err
	}
	return r.GetOwner(ctx, id)
}

func (r *PostgresOwnersRepository) UpdateOwnerPassword(ctx context.Context, id int64, salt string, hash []byte) error {
	query := fmt.Sprintf(`UPDATE %s SET salt = $1, password = $2 WHERE id = $3`, r.platform.Table(tenant.TableOwner))
	res, err := r.db.ExecContext(ctx, query, salt, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update owner password: %w", err)
	}
	return requireAffected(res, "owner")
}

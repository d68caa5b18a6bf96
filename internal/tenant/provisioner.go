package tenant

import (
	"context"
	"fmt"

	"carconnect/internal/domain"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Provisioner materializes a tenant schema from the fixed DDL template
type Provisioner struct {
	platform Handle
	logger   *zap.Logger
}

func NewProvisioner(registry *Registry, logger *zap.Logger) *Provisioner {
	return &Provisioner{platform: registry.Platform(), logger: logger}
}

// Provision creates schema, its seven tables and the seeded Basic Role on tx.
// The caller owns tx: any returned error must be followed by a rollback, which
// removes every object created so far. A colliding schema name is ErrConflict,
// any other DDL failure is ErrProvision.
func (p *Provisioner) Provision(ctx context.Context, tx DBTX, schema string) (Handle, error) {
	h, err := p.tenantHandle(schema)
	if err != nil {
		return Handle{}, err
	}

	for i, stmt := range p.statements(h) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if pqCode(err) == codeDuplicateSchema {
				return Handle{}, fmt.Errorf("%w: schema %s already exists", domain.ErrConflict, schema)
			}
			p.logger.Error("tenant provisioning step failed",
				zap.String("schema", schema),
				zap.Int("step", i+1),
				zap.Error(err),
			)
			return Handle{}, fmt.Errorf("%w: schema %s step %d: %v", domain.ErrProvision, schema, i+1, err)
		}
	}
	return h, nil
}

// Statements returns the DDL executed for schema, in order
func (p *Provisioner) Statements(schema string) ([]string, error) {
	h, err := p.tenantHandle(schema)
	if err != nil {
		return nil, err
	}
	return p.statements(h), nil
}

func (p *Provisioner) tenantHandle(schema string) (Handle, error) {
	if schema == p.platform.schema {
		return Handle{}, fmt.Errorf("%w: %q is the platform schema", domain.ErrIdentifierRejected, schema)
	}
	return newHandle(schema, false)
}

func (p *Provisioner) statements(h Handle) []string {
	return []string{
		`CREATE SCHEMA ` + QuoteIdentifier(h.schema),

		fmt.Sprintf(`CREATE TABLE %s (
	part_id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	manufacture_country TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity >= 0),
	reorder_level INTEGER NOT NULL DEFAULT 0,
	price NUMERIC(10,2) NOT NULL
)`, h.Table(TablePart)),

		fmt.Sprintf(`CREATE TABLE %s (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	privileges TEXT NOT NULL
)`, h.Table(TableRoles)),

		fmt.Sprintf(`INSERT INTO %s (name, description, privileges) VALUES (%s, %s, %s)`,
			h.Table(TableRoles),
			pq.QuoteLiteral(domain.BasicRoleName),
			pq.QuoteLiteral(domain.BasicRoleDescription),
			pq.QuoteLiteral(domain.BasicRolePrivileges)),

		fmt.Sprintf(`CREATE TABLE %[1]s (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	username TEXT NOT NULL UNIQUE,
	salt TEXT NOT NULL,
	password BYTEA NOT NULL,
	email TEXT NOT NULL,
	contact TEXT NOT NULL,
	nic TEXT NOT NULL,
	gender CHAR(1),
	dob DATE NOT NULL,
	manager_id INTEGER REFERENCES %[1]s(id),
	designation TEXT NOT NULL,
	salary NUMERIC(10,2) NOT NULL,
	roles INTEGER REFERENCES %[2]s(id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE
)`, h.Table(TableEmployee), h.Table(TableRoles)),

		fmt.Sprintf(`CREATE TABLE %s (
	id SERIAL PRIMARY KEY,
	vehicle_id INTEGER NOT NULL REFERENCES %s(vehicle_id),
	date_of_reg DATE NOT NULL,
	mileage_on_reg NUMERIC(8,1) NOT NULL,
	owner INTEGER NOT NULL REFERENCES %s(id),
	UNIQUE (vehicle_id)
)`, h.Table(TableClients), p.platform.Table(TableVehicles), p.platform.Table(TableOwner)),

		fmt.Sprintf(`CREATE TABLE %s (
	id SERIAL PRIMARY KEY,
	client_id INTEGER NOT NULL REFERENCES %s(id),
	service_date DATE NOT NULL,
	description TEXT NOT NULL,
	mileage NUMERIC(8,1) NOT NULL,
	cost NUMERIC(12,2) NOT NULL,
	details JSONB,
	is_ongoing BOOLEAN NOT NULL DEFAULT TRUE
)`, h.Table(TableServiceRecords), h.Table(TableClients)),

		fmt.Sprintf(`CREATE TABLE %s (
	id SERIAL PRIMARY KEY,
	service_id INTEGER NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
	technician_id INTEGER NOT NULL REFERENCES %s(id),
	UNIQUE (service_id, technician_id)
)`, h.Table(TableServiceTechnician), h.Table(TableServiceRecords), h.Table(TableEmployee)),

		fmt.Sprintf(`CREATE TABLE %s (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	cost NUMERIC(12,2) NOT NULL
)`, h.Table(TableServices)),
	}
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carconnect/internal/tenant"

	"go.uber.org/zap"
)

// PlatformMigrations returns the idempotent DDL of the shared platform schema
func PlatformMigrations(p tenant.Handle) []string {
	return []string{
		`CREATE SCHEMA IF NOT EXISTS ` + tenant.QuoteIdentifier(p.Schema()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	username TEXT PRIMARY KEY,
	schema TEXT NOT NULL
)`, p.Table(tenant.TableSchemaMapping)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	description TEXT NOT NULL UNIQUE
)`, p.Table(tenant.TableGender)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	description TEXT NOT NULL UNIQUE
)`, p.Table(tenant.TableFuelType)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	description TEXT NOT NULL UNIQUE
)`, p.Table(tenant.TableTransmissionType)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	salt TEXT NOT NULL,
	password BYTEA NOT NULL,
	name TEXT NOT NULL,
	gender CHAR(1),
	dob DATE,
	street_1 TEXT,
	street_2 TEXT,
	city TEXT,
	province TEXT,
	phone TEXT,
	email TEXT,
	nic TEXT,
	roles TEXT NOT NULL
)`, p.Table(tenant.TableOwner)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	center_type CHAR(1) NOT NULL CHECK (center_type IN ('S', 'R', 'B')),
	username TEXT NOT NULL UNIQUE,
	salt TEXT NOT NULL,
	password BYTEA NOT NULL,
	name TEXT NOT NULL,
	street_1 TEXT,
	street_2 TEXT,
	city TEXT,
	province TEXT,
	phone TEXT,
	email TEXT,
	roles TEXT NOT NULL,
	schema_name TEXT NOT NULL UNIQUE
)`, p.Table(tenant.TableCenter)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	vehicle_id SERIAL PRIMARY KEY,
	number_plate TEXT NOT NULL UNIQUE,
	model TEXT NOT NULL,
	make TEXT NOT NULL,
	engine_no TEXT NOT NULL,
	chassis_no TEXT NOT NULL,
	transmission_type INTEGER REFERENCES %s(id),
	fuel_type INTEGER REFERENCES %s(id),
	seating_capacity INTEGER NOT NULL,
	mileage NUMERIC(8,1) NOT NULL DEFAULT 0,
	service_history JSONB NOT NULL DEFAULT '[]'
)`, p.Table(tenant.TableVehicles), p.Table(tenant.TableTransmissionType), p.Table(tenant.TableFuelType)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	owner_id INTEGER NOT NULL REFERENCES %s(id),
	vehicle_id INTEGER NOT NULL REFERENCES %s(vehicle_id),
	reg_year INTEGER,
	PRIMARY KEY (owner_id, vehicle_id)
)`, p.Table(tenant.TableOwnerVehicle), p.Table(tenant.TableOwner), p.Table(tenant.TableVehicles)),

		fmt.Sprintf(`INSERT INTO %s (description) VALUES ('Male'), ('Female'), ('Other')
ON CONFLICT (description) DO NOTHING`, p.Table(tenant.TableGender)),

		fmt.Sprintf(`INSERT INTO %s (description) VALUES ('Petrol'), ('Diesel'), ('Hybrid'), ('Electric')
ON CONFLICT (description) DO NOTHING`, p.Table(tenant.TableFuelType)),

		fmt.Sprintf(`INSERT INTO %s (description) VALUES ('Manual'), ('Automatic')
ON CONFLICT (description) DO NOTHING`, p.Table(tenant.TableTransmissionType)),
	}
}

// MigratePlatform applies PlatformMigrations on one transaction
func MigratePlatform(ctx context.Context, db *sql.DB, p tenant.Handle, logger *zap.Logger) error {
	return NewTransactor(db).WithTx(ctx, func(tx tenant.DBTX) error {
		for i, stmt := range PlatformMigrations(p) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("platform migration step %d failed: %w", i+1, err)
			}
		}
		logger.Info("platform schema migrated", zap.String("schema", p.Schema()))
		return nil
	})
}

//go:build integration

package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	commoncfg "carconnect/common/config"
	"carconnect/common/database"
	"carconnect/internal/audit"
	"carconnect/internal/domain"
	"carconnect/internal/repository"
	"carconnect/internal/session"
	"carconnect/internal/store"
	"carconnect/internal/tenant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func integrationEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func integrationDB(t *testing.T) *sql.DB {
	port, err := strconv.Atoi(integrationEnv("TEST_DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}
	cfg := &commoncfg.DatabaseConfig{
		Host:     integrationEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     integrationEnv("TEST_DB_USER", "postgres"),
		Password: integrationEnv("TEST_DB_PASSWORD", "postgres"),
		Database: integrationEnv("TEST_DB_NAME", "carconnect_test"),
		SSLMode:  integrationEnv("TEST_DB_SSLMODE", "disable"),
	}
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	return db
}

// cleanupTenants drops the schemas and platform rows created by a run
func cleanupTenants(db *sql.DB, schemas []string, usernames []string) {
	for _, s := range schemas {
		db.Exec(`DROP SCHEMA IF EXISTS ` + s + ` CASCADE`)
	}
	for _, u := range usernames {
		db.Exec(`DELETE FROM "carConnectPro".center WHERE username = $1`, u)
		db.Exec(`DELETE FROM "carConnectPro".schema_mapping WHERE username = $1`, u)
	}
}

func TestIntegration_TenantIsolation(t *testing.T) {
	db := integrationDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	logger := zap.NewNop()
	registry, err := tenant.NewRegistry(db, "carConnectPro", logger)
	require.NoError(t, err)
	platform := registry.Platform()
	require.NoError(t, repository.MigratePlatform(ctx, db, platform, logger))

	suffix := time.Now().UnixNano() % 1_000_000
	nameA, nameB := fmt.Sprintf("Iso Alpha %d", suffix), fmt.Sprintf("Iso Beta %d", suffix)
	userA, userB := fmt.Sprintf("iso_alpha_%d", suffix), fmt.Sprintf("iso_beta_%d", suffix)
	employeeUser := fmt.Sprintf("iso_emp_%d", suffix)
	schemaA, err := tenant.SchemaName(domain.CenterService, nameA)
	require.NoError(t, err)
	schemaB, err := tenant.SchemaName(domain.CenterService, nameB)
	require.NoError(t, err)
	defer cleanupTenants(db, []string{schemaA, schemaB}, []string{userA, userB, employeeUser})

	tx := repository.NewTransactor(db)
	owners := repository.NewPostgresOwnersRepository(db, platform)
	centers := repository.NewPostgresCentersRepository(db, platform)
	employees := repository.NewPostgresEmployeesRepository(db)
	registration := NewRegistrationService(tx, registry, tenant.NewProvisioner(registry, logger), owners, centers, audit.NopSink{}, logger)
	auth := NewAuthService(registry, owners, centers, employees, session.NewIssuer("integration", time.Hour, "carconnect-test"), store.NewMemoryKV(), audit.NopSink{}, logger)
	staff := NewEmployeeService(tx, registry, employees, audit.NopSink{}, logger)

	for _, req := range []RegisterCenterRequest{
		{Username: userA, Password: "integration-pass", Name: nameA, CenterType: domain.CenterService},
		{Username: userB, Password: "integration-pass", Name: nameB, CenterType: domain.CenterService},
	} {
		_, err := registration.RegisterCenter(ctx, req)
		require.NoError(t, err)
	}

	// same username again is a conflict and changes nothing
	_, err = registration.RegisterCenter(ctx, RegisterCenterRequest{
		Username: userA, Password: "integration-pass", Name: nameA + " Again", CenterType: domain.CenterService,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	login, err := auth.Login(ctx, LoginRequest{Username: userA, Password: "integration-pass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCenter, login.RoleType)
	assert.Equal(t, schemaA, login.Schema)

	hA, err := registry.ResolveCenter(ctx, userA)
	require.NoError(t, err)
	hB, err := registry.ResolveCenter(ctx, userB)
	require.NoError(t, err)
	adminA := &Principal{UserID: login.User.ID, Username: userA, RoleType: domain.RoleCenter, Tenant: hA, Privileges: domain.ParsePrivileges(domain.CenterPrivileges)}
	adminB := &Principal{Username: userB, RoleType: domain.RoleCenter, Tenant: hB, Privileges: domain.ParsePrivileges(domain.CenterPrivileges)}

	_, err = staff.CreateEmployee(ctx, adminA, CreateEmployeeRequest{
		Name:        "Kamal Silva",
		Username:    employeeUser,
		Password:    "integration-pass",
		Email:       "kamal@example.com",
		Contact:     "0771234567",
		NIC:         "901234567V",
		Designation: "Technician",
	})
	require.NoError(t, err)

	listA, err := staff.ListEmployees(ctx, adminA)
	require.NoError(t, err)
	listB, err := staff.ListEmployees(ctx, adminB)
	require.NoError(t, err)
	assert.Len(t, listA, 1)
	assert.Empty(t, listB)

	empLogin, err := auth.Login(ctx, LoginRequest{Username: employeeUser, Password: "integration-pass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, empLogin.RoleType)
	assert.Equal(t, schemaA, empLogin.Schema)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// resolveHandles returns the platform handle and a tenant handle for schema,
// obtained the only way callers can: through the registry.
func resolveHandles(t *testing.T, schema string) (tenant.Handle, tenant.Handle) {
	db, mock := setupMockDB(t)

	registry, err := tenant.NewRegistry(db, "carConnectPro", zap.NewNop())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT schema FROM "carConnectPro".schema_mapping`).
		WithArgs("login").
		WillReturnRows(sqlmock.NewRows([]string{"schema"}).AddRow(schema))

	h, err := registry.Resolve(context.Background(), "login")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	return registry.Platform(), h
}

func TestMapWriteError(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
		want error
	}{
		{"unique violation", codeUniqueViolation, domain.ErrConflict},
		{"foreign key violation", codeForeignKeyViolation, domain.ErrValidation},
		{"check violation", codeCheckViolation, domain.ErrValidation},
		{"invalid text", codeInvalidText, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapWriteError(&pq.Error{Code: tt.code}, "employee")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	plain := errors.New("connection reset")
	err := mapWriteError(plain, "employee")
	assert.ErrorIs(t, err, plain)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestMapDeleteError_ForeignKeyIsConflict(t *testing.T) {
	err := mapDeleteError(&pq.Error{Code: codeForeignKeyViolation}, "role")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMapReadError_NoRows(t *testing.T) {
	assert.ErrorIs(t, mapReadError(sql.ErrNoRows, "owner"), domain.ErrNotFound)
}

func TestTransactor_CommitAndRollback(t *testing.T) {
	db, mock := setupMockDB(t)
	tx := NewTransactor(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	err := tx.WithTx(ctx, func(q tenant.DBTX) error {
		_, err := q.ExecContext(ctx, "SELECT 1")
		return err
	})
	require.NoError(t, err)

	failure := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = tx.WithTx(ctx, func(q tenant.DBTX) error { return failure })
	assert.ErrorIs(t, err, failure)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlatformMigrations(t *testing.T) {
	platform, _ := resolveHandles(t, "service_acme")

	stmts := PlatformMigrations(platform)
	require.NotEmpty(t, stmts)
	assert.Equal(t, `CREATE SCHEMA IF NOT EXISTS "carConnectPro"`, stmts[0])
	for _, stmt := range stmts[1:] {
		assert.Contains(t, stmt, `"carConnectPro".`)
		idempotent := strings.Contains(stmt, "IF NOT EXISTS") || strings.Contains(stmt, "ON CONFLICT")
		assert.True(t, idempotent, stmt)
	}
}

func TestRequireTenant_RejectsPlatformHandle(t *testing.T) {
	db, _ := setupMockDB(t)
	platform, _ := resolveHandles(t, "service_acme")

	repo := NewPostgresEmployeesRepository(db)
	_, err := repo.ListEmployees(context.Background(), platform)
	assert.ErrorIs(t, err, domain.ErrIdentifierRejected)

	_, err = repo.ListEmployees(context.Background(), tenant.Handle{})
	assert.ErrorIs(t, err, domain.ErrIdentifierRejected)
}

package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"carconnect/internal/domain"
	"carconnect/internal/repository"
	"carconnect/internal/tenant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type registrationFixture struct {
	mock        sqlmock.Sqlmock
	svc         RegistrationService
	provisioner *tenant.Provisioner
	sink        *captureSink
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	db, mock := setupMockDB(t)
	registry := newTestRegistry(t, db)
	platform := registry.Platform()
	provisioner := tenant.NewProvisioner(registry, zap.NewNop())
	sink := &captureSink{}

	svc := NewRegistrationService(
		repository.NewTransactor(db),
		registry,
		provisioner,
		repository.NewPostgresOwnersRepository(db, platform),
		repository.NewPostgresCentersRepository(db, platform),
		sink,
		zap.NewNop(),
	)
	return &registrationFixture{mock: mock, svc: svc, provisioner: provisioner, sink: sink}
}

func (f *registrationFixture) expectUsernameTaken(username string, taken bool) {
	f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM "carConnectPro".schema_mapping`)).
		WithArgs(username).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(taken))
}

func (f *registrationFixture) expectMappingInsert(username string) {
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "carConnectPro".schema_mapping (username, schema)`)).
		WithArgs(username, "carConnectPro").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func centerRequest(name string) RegisterCenterRequest {
	return RegisterCenterRequest{
		Username:   "acme_admin",
		Password:   "s3cure-passw0rd",
		Name:       name,
		CenterType: domain.CenterService,
		City:       "Colombo",
	}
}

func TestRegisterCenter_ProvisionsTenantInOneTransaction(t *testing.T) {
	f := newRegistrationFixture(t)
	stmts, err := f.provisioner.Statements("service_acme")
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.expectUsernameTaken("acme_admin", false)
	for _, stmt := range stmts {
		f.mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	f.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "carConnectPro".center`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	f.expectUsernameTaken("acme_admin", false)
	f.expectMappingInsert("acme_admin")
	f.mock.ExpectCommit()

	resp, err := f.svc.RegisterCenter(context.Background(), centerRequest("Acme"))
	require.NoError(t, err)

	assert.Equal(t, int64(4), resp.ID)
	assert.Equal(t, "service_acme", resp.Schema)
	assert.Equal(t, domain.RoleCenter, resp.RoleType)
	assert.Equal(t, []string{"register"}, f.sink.actions())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegisterCenter_ProvisionFailureRollsBackEverything(t *testing.T) {
	f := newRegistrationFixture(t)
	stmts, err := f.provisioner.Statements("service_acme")
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.expectUsernameTaken("acme_admin", false)
	for _, stmt := range stmts[:5] {
		f.mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	f.mock.ExpectExec(regexp.QuoteMeta(stmts[5])).WillReturnError(errors.New("disk full"))
	f.mock.ExpectRollback()

	_, err = f.svc.RegisterCenter(context.Background(), centerRequest("Acme"))

	assert.ErrorIs(t, err, domain.ErrProvision)
	assert.Empty(t, f.sink.actions())
	// no center row and no mapping were attempted
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegisterCenter_DuplicateUsername(t *testing.T) {
	f := newRegistrationFixture(t)
	f.mock.ExpectBegin()
	f.expectUsernameTaken("acme_admin", true)
	f.mock.ExpectRollback()

	_, err := f.svc.RegisterCenter(context.Background(), centerRequest("Acme"))

	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegisterCenter_HostileNameBecomesSafeSchema(t *testing.T) {
	f := newRegistrationFixture(t)
	const schema = "service_x_drop_table_owner"
	stmts, err := f.provisioner.Statements(schema)
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.expectUsernameTaken("acme_admin", false)
	for _, stmt := range stmts {
		f.mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	f.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "carConnectPro".center`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	f.expectUsernameTaken("acme_admin", false)
	f.expectMappingInsert("acme_admin")
	f.mock.ExpectCommit()

	resp, err := f.svc.RegisterCenter(context.Background(), centerRequest("x; DROP TABLE owner; --"))
	require.NoError(t, err)

	assert.Equal(t, schema, resp.Schema)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegisterCenter_UnusableName(t *testing.T) {
	f := newRegistrationFixture(t)

	_, err := f.svc.RegisterCenter(context.Background(), centerRequest(";;; ---"))

	assert.ErrorIs(t, err, domain.ErrValidation)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegisterOwner(t *testing.T) {
	f := newRegistrationFixture(t)
	f.mock.ExpectBegin()
	f.expectUsernameTaken("nimal", false)
	f.expectMappingInsert("nimal")
	f.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "carConnectPro".owner`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	f.mock.ExpectCommit()

	resp, err := f.svc.RegisterOwner(context.Background(), RegisterOwnerRequest{
		Username: " nimal ",
		Password: "s3cure-passw0rd",
		Name:     "Nimal Perera",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(11), resp.ID)
	assert.Equal(t, "nimal", resp.Username)
	assert.Equal(t, "carConnectPro", resp.Schema)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegisterOwner_UsernameTaken(t *testing.T) {
	f := newRegistrationFixture(t)
	f.mock.ExpectBegin()
	f.expectUsernameTaken("nimal", true)
	f.mock.ExpectRollback()

	_, err := f.svc.RegisterOwner(context.Background(), RegisterOwnerRequest{
		Username: "nimal",
		Password: "s3cure-passw0rd",
		Name:     "Nimal Perera",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

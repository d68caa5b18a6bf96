package service

import (
	"context"
	"database/sql"
	"regexp"
	"sync"
	"testing"
	"time"

	"carconnect/internal/audit"
	"carconnect/internal/credential"
	"carconnect/internal/domain"
	"carconnect/internal/repository"
	"carconnect/internal/session"
	"carconnect/internal/store"
	"carconnect/internal/tenant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "correct-horse-battery"

type captureSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *captureSink) Record(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestRegistry(t *testing.T, db *sql.DB) *tenant.Registry {
	registry, err := tenant.NewRegistry(db, "carConnectPro", zap.NewNop())
	require.NoError(t, err)
	return registry
}

// tenantHandle resolves schema through a throwaway registry
func tenantHandle(t *testing.T, schema string) tenant.Handle {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT schema FROM "carConnectPro".schema_mapping`)).
		WithArgs("login").
		WillReturnRows(sqlmock.NewRows([]string{"schema"}).AddRow(schema))

	h, err := newTestRegistry(t, db).Resolve(context.Background(), "login")
	require.NoError(t, err)
	return h
}

type authFixture struct {
	mock    sqlmock.Sqlmock
	svc     AuthService
	issuer  *session.Issuer
	revoked *store.MemoryKV
	sink    *captureSink
	salt    string
	hash    []byte
}

func newAuthFixture(t *testing.T) *authFixture {
	db, mock := setupMockDB(t)
	registry := newTestRegistry(t, db)
	platform := registry.Platform()

	salt, hash, err := credential.Hash(testPassword)
	require.NoError(t, err)

	f := &authFixture{
		mock:    mock,
		issuer:  session.NewIssuer("test-secret", time.Hour, "carconnect-test"),
		revoked: store.NewMemoryKV(),
		sink:    &captureSink{},
		salt:    salt,
		hash:    hash,
	}
	f.svc = NewAuthService(
		registry,
		repository.NewPostgresOwnersRepository(db, platform),
		repository.NewPostgresCentersRepository(db, platform),
		repository.NewPostgresEmployeesRepository(db),
		f.issuer,
		f.revoked,
		f.sink,
		zap.NewNop(),
	)
	return f
}

func (f *authFixture) expectMapping(login, schema string) {
	q := f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT schema FROM "carConnectPro".schema_mapping`)).WithArgs(login)
	if schema == "" {
		q.WillReturnError(sql.ErrNoRows)
		return
	}
	q.WillReturnRows(sqlmock.NewRows([]string{"schema"}).AddRow(schema))
}

func (f *authFixture) expectCenterCredentials(username string, found bool) {
	q := f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, name, salt, password, roles, schema_name FROM "carConnectPro".center`)).
		WithArgs(username)
	if !found {
		q.WillReturnError(sql.ErrNoRows)
		return
	}
	q.WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "salt", "password", "roles", "schema_name"}).
		AddRow(3, username, "Acme Service", f.salt, f.hash, domain.CenterPrivileges, "service_acme"))
}

func (f *authFixture) expectOwnerCredentials(username string) {
	f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, name, salt, password, roles FROM "carConnectPro".owner`)).
		WithArgs(username).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "salt", "password", "roles"}).
			AddRow(9, username, "Nimal Perera", f.salt, f.hash, domain.OwnerPrivileges))
}

func (f *authFixture) expectOwnerExists(id int64, exists bool) {
	f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM "carConnectPro".owner WHERE id = $1)`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func (f *authFixture) expectCenterSchema(username, schema string) {
	f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT schema_name FROM "carConnectPro".center`)).
		WithArgs(username).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow(schema))
}

func (f *authFixture) expectEmployeeCredentials(schema string, key any, active bool) {
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM ` + schema + `.employee e`)).
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "salt", "password", "privileges", "is_active"}).
			AddRow(12, "kamal", "Kamal Silva", f.salt, f.hash, "pp:ad, in:vw", active))
}

func TestLogin_CenterResolvesBeforeOwner(t *testing.T) {
	f := newAuthFixture(t)
	f.expectMapping("acme_service", "carConnectPro")
	f.expectCenterCredentials("acme_service", true)
	f.expectCenterSchema("acme_service", "service_acme")

	resp, err := f.svc.Login(context.Background(), LoginRequest{Username: "acme_service", Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleCenter, resp.RoleType)
	assert.Equal(t, "service_acme", resp.Schema)
	assert.Equal(t, int64(3), resp.User.ID)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, []string{"login"}, f.sink.actions())

	claims, err := f.issuer.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "service_acme", claims.Schema)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLogin_OwnerWhenNoCenter(t *testing.T) {
	f := newAuthFixture(t)
	f.expectMapping("nimal", "carConnectPro")
	f.expectCenterCredentials("nimal", false)
	f.expectOwnerCredentials("nimal")

	resp, err := f.svc.Login(context.Background(), LoginRequest{Username: "nimal", Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleOwner, resp.RoleType)
	assert.Equal(t, "carConnectPro", resp.Schema)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLogin_Employee(t *testing.T) {
	f := newAuthFixture(t)
	f.expectMapping("kamal", "service_acme")
	f.expectEmployeeCredentials("service_acme", "kamal", true)

	resp, err := f.svc.Login(context.Background(), LoginRequest{Username: " kamal ", Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleEmployee, resp.RoleType)
	assert.Equal(t, "service_acme", resp.Schema)
	assert.Equal(t, "pp:ad, in:vw", resp.User.Privileges)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLogin_UnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.expectMapping("ghost", "")
	f.expectMapping("nimal", "carConnectPro")
	f.expectCenterCredentials("nimal", false)
	f.expectOwnerCredentials("nimal")

	_, unknownErr := f.svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: testPassword})
	_, wrongErr := f.svc.Login(context.Background(), LoginRequest{Username: "nimal", Password: "not-the-password"})

	assert.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Empty(t, f.sink.actions())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLogin_InactiveEmployeeIsForbidden(t *testing.T) {
	f := newAuthFixture(t)
	f.expectMapping("kamal", "service_acme")
	f.expectEmployeeCredentials("service_acme", "kamal", false)

	_, err := f.svc.Login(context.Background(), LoginRequest{Username: "kamal", Password: testPassword})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLogin_MissingFields(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), LoginRequest{Username: "  ", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthorize_CenterSchemaMismatch(t *testing.T) {
	f := newAuthFixture(t)
	_, claims, err := f.issuer.Issue(session.Identity{
		UserID: 3, Username: "acme_service", RoleType: domain.RoleCenter, Schema: "service_other",
		Privileges: domain.CenterPrivileges,
	})
	require.NoError(t, err)
	f.expectCenterSchema("acme_service", "service_acme")

	_, err = f.svc.Authorize(context.Background(), claims, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAuthorize_EmployeePrivilegesAreReread(t *testing.T) {
	f := newAuthFixture(t)
	_, claims, err := f.issuer.Issue(session.Identity{
		UserID: 12, Username: "kamal", RoleType: domain.RoleEmployee, Schema: "service_acme",
		Privileges: "pp:ad",
	})
	require.NoError(t, err)
	f.expectMapping("kamal", "service_acme")
	f.expectEmployeeCredentials("service_acme", int64(12), true)

	p, err := f.svc.Authorize(context.Background(), claims, "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "service_acme", p.Tenant.Schema())
	assert.True(t, p.Privileges.Allows(domain.PrivInventory, false))
	assert.False(t, p.Privileges.Allows(domain.PrivInventory, true))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAuthorize_EmployeeMappedToPlatformIsRejected(t *testing.T) {
	f := newAuthFixture(t)
	_, claims, err := f.issuer.Issue(session.Identity{
		UserID: 12, Username: "kamal", RoleType: domain.RoleEmployee, Schema: "carConnectPro",
	})
	require.NoError(t, err)
	f.expectMapping("kamal", "carConnectPro")

	_, err = f.svc.Authorize(context.Background(), claims, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	_, claims, err := f.issuer.Issue(session.Identity{
		UserID: 9, Username: "nimal", RoleType: domain.RoleOwner, Schema: "carConnectPro",
		Privileges: domain.OwnerPrivileges,
	})
	require.NoError(t, err)
	ctx := context.Background()
	f.expectOwnerExists(9, true)

	p, err := f.svc.Authorize(ctx, claims, "")
	require.NoError(t, err)
	assert.True(t, p.Tenant.IsPlatform())

	require.NoError(t, f.svc.Logout(ctx, p))
	assert.Equal(t, []string{"logout"}, f.sink.actions())

	_, err = f.svc.Authorize(ctx, claims, "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthorize_DeletedOwnerIsRejected(t *testing.T) {
	f := newAuthFixture(t)
	_, claims, err := f.issuer.Issue(session.Identity{
		UserID: 9, Username: "nimal", RoleType: domain.RoleOwner, Schema: "carConnectPro",
		Privileges: domain.OwnerPrivileges,
	})
	require.NoError(t, err)
	f.expectOwnerExists(9, false)

	_, err = f.svc.Authorize(context.Background(), claims, "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

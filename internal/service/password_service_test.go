package service

import (
	"context"
	"regexp"
	"testing"
	"time"

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

type passwordFixture struct {
	mock     sqlmock.Sqlmock
	svc      PasswordService
	kv       *store.MemoryKV
	sink     *captureSink
	platform tenant.Handle
	salt     string
	hash     []byte
}

func newPasswordFixture(t *testing.T) *passwordFixture {
	db, mock := setupMockDB(t)
	registry := newTestRegistry(t, db)
	platform := registry.Platform()
	owners := repository.NewPostgresOwnersRepository(db, platform)
	centers := repository.NewPostgresCentersRepository(db, platform)
	employees := repository.NewPostgresEmployeesRepository(db)

	salt, hash, err := credential.Hash(testPassword)
	require.NoError(t, err)

	f := &passwordFixture{
		mock:     mock,
		kv:       store.NewMemoryKV(),
		sink:     &captureSink{},
		platform: platform,
		salt:     salt,
		hash:     hash,
	}
	auth := NewAuthService(registry, owners, centers, employees,
		session.NewIssuer("test-secret", time.Hour, "carconnect-test"), f.kv, f.sink, zap.NewNop())
	f.svc = NewPasswordService(owners, centers, employees, auth, f.sink, zap.NewNop())
	return f
}

func (f *passwordFixture) principal(t *testing.T, role string) *Principal {
	p := &Principal{
		RoleType:  role,
		TokenID:   "jti-" + role,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	switch role {
	case domain.RoleOwner:
		p.UserID, p.Username, p.Tenant = 9, "nimal", f.platform
	case domain.RoleCenter:
		p.UserID, p.Username, p.Tenant = 3, "acme_admin", tenantHandle(t, "service_acme")
	default:
		p.UserID, p.Username, p.Tenant = 12, "kamal", tenantHandle(t, "service_acme")
	}
	return p
}

// expectCredentials queues the by-id credential read of role and returns the table it updates
func (f *passwordFixture) expectCredentials(role string) string {
	switch role {
	case domain.RoleOwner:
		f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, name, salt, password, roles FROM "carConnectPro".owner WHERE id = $1`)).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "salt", "password", "roles"}).
				AddRow(9, "nimal", "Nimal Perera", f.salt, f.hash, domain.OwnerPrivileges))
		return `"carConnectPro".owner`
	case domain.RoleCenter:
		f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, name, salt, password, roles, schema_name FROM "carConnectPro".center WHERE id = $1`)).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "salt", "password", "roles", "schema_name"}).
				AddRow(3, "acme_admin", "Acme Service", f.salt, f.hash, domain.CenterPrivileges, "service_acme"))
		return `"carConnectPro".center`
	default:
		f.mock.ExpectQuery(regexp.QuoteMeta(`FROM service_acme.employee e`)).
			WithArgs(int64(12)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "salt", "password", "privileges", "is_active"}).
				AddRow(12, "kamal", "Kamal Silva", f.salt, f.hash, "em:vw", true))
		return `service_acme.employee`
	}
}

func (f *passwordFixture) revoked(t *testing.T, p *Principal) bool {
	ok, err := f.kv.Exists(context.Background(), "carconnect:revoked:"+p.TokenID)
	require.NoError(t, err)
	return ok
}

func TestChangePassword_WritesTableOfRole(t *testing.T) {
	cases := []struct {
		role string
		id   int64
	}{
		{domain.RoleOwner, 9},
		{domain.RoleCenter, 3},
		{domain.RoleEmployee, 12},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			f := newPasswordFixture(t)
			p := f.principal(t, tc.role)
			table := f.expectCredentials(tc.role)
			f.mock.ExpectExec(regexp.QuoteMeta(`UPDATE `+table+` SET salt = $1, password = $2 WHERE id = $3`)).
				WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), tc.id).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := f.svc.Change(context.Background(), p, ChangePasswordRequest{
				CurrentPassword: testPassword,
				NewPassword:     "a-brand-new-secret",
			})
			require.NoError(t, err)

			assert.True(t, f.revoked(t, p))
			assert.Equal(t, []string{"change_password"}, f.sink.actions())
			require.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestChangePassword_WrongCurrentPasswordWritesNothing(t *testing.T) {
	f := newPasswordFixture(t)
	p := f.principal(t, domain.RoleOwner)
	f.expectCredentials(domain.RoleOwner)

	err := f.svc.Change(context.Background(), p, ChangePasswordRequest{
		CurrentPassword: "not-the-password",
		NewPassword:     "a-brand-new-secret",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	assert.False(t, f.revoked(t, p))
	assert.Empty(t, f.sink.actions())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestChangePassword_SamePasswordIsRejected(t *testing.T) {
	f := newPasswordFixture(t)
	p := f.principal(t, domain.RoleCenter)

	err := f.svc.Change(context.Background(), p, ChangePasswordRequest{
		CurrentPassword: testPassword,
		NewPassword:     testPassword,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.False(t, f.revoked(t, p))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyPassword(t *testing.T) {
	f := newPasswordFixture(t)
	p := f.principal(t, domain.RoleEmployee)
	ctx := context.Background()

	f.expectCredentials(domain.RoleEmployee)
	assert.NoError(t, f.svc.Verify(ctx, p, testPassword))

	f.expectCredentials(domain.RoleEmployee)
	assert.ErrorIs(t, f.svc.Verify(ctx, p, "guess"), domain.ErrInvalidCredentials)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

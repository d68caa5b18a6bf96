package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carconnect/internal/audit"
	"carconnect/internal/domain"
	"carconnect/internal/repository"
	"carconnect/internal/service"
	"carconnect/internal/session"
	"carconnect/internal/store"
	"carconnect/internal/tenant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticParams struct{}

func (staticParams) ListParameters(_ context.Context, table tenant.TableName) ([]domain.Parameter, error) {
	if table == tenant.TableGender {
		return []domain.Parameter{{ID: 1, Description: "Male"}, {ID: 2, Description: "Female"}}, nil
	}
	return []domain.Parameter{}, nil
}

type testServer struct {
	e      *echo.Echo
	mock   sqlmock.Sqlmock
	issuer *session.Issuer
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	registry, err := tenant.NewRegistry(db, "carConnectPro", logger)
	require.NoError(t, err)
	platform := registry.Platform()

	owners := repository.NewPostgresOwnersRepository(db, platform)
	centers := repository.NewPostgresCentersRepository(db, platform)
	employees := repository.NewPostgresEmployeesRepository(db)
	issuer := session.NewIssuer("router-test-secret", time.Hour, "carconnect-test")
	kv := store.NewMemoryKV()

	authSvc := service.NewAuthService(registry, owners, centers, employees, issuer, kv, audit.NopSink{}, logger)
	paramSvc := service.NewParameterService(staticParams{}, centers, kv, time.Minute, logger)
	centerSvc := service.NewCenterService(centers, audit.NopSink{}, logger)

	if cfg.LoginRateLimit == "" {
		cfg.LoginRateLimit = "100-M"
	}
	e, err := NewRouter(cfg, Handlers{
		Auth:           NewAuthHandler(authSvc, nil, nil, logger),
		Center:         NewCenterHandler(centerSvc, nil, nil, logger),
		Parameter:      NewParameterHandler(paramSvc, logger),
		Issuer:         issuer,
		Authentication: authSvc,
	}, logger)
	require.NoError(t, err)
	return &testServer{e: e, mock: mock, issuer: issuer}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) ownerToken(t *testing.T) string {
	token, _, err := s.issuer.Issue(session.Identity{
		UserID:     9,
		Username:   "nimal",
		RoleType:   domain.RoleOwner,
		Schema:     "carConnectPro",
		Privileges: domain.OwnerPrivileges,
	})
	require.NoError(t, err)
	return token
}

func (s *testServer) expectOwnerExists() {
	s.mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM "carConnectPro"\.owner`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Result[json.RawMessage] {
	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusSuccess, decodeResult(t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestRouter_HealthReportsDependencyFailure(t *testing.T) {
	s := newTestServer(t, RouterConfig{Health: func(context.Context) error { return errors.New("db down") }})

	rec := s.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, StatusError, decodeResult(t, rec).Status)
}

func TestRouter_ParameterLookup(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(http.MethodGet, "/parameter/gender", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res Result[[]domain.Parameter]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Data, 2)
	assert.Equal(t, "Male", res.Data[0].Description)
}

func TestRouter_MissingBearerIsUnauthorized(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(http.MethodGet, "/center/profile", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, StatusFail, res.Status)
	assert.Empty(t, res.Error)
}

func TestRouter_ForgedTokenIsUnauthorized(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(http.MethodGet, "/center/profile", "", "not.a.token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_OwnerCannotReachCenterRoutes(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	s.expectOwnerExists()

	rec := s.do(http.MethodGet, "/center/profile", "", s.ownerToken(t))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, StatusFail, decodeResult(t, rec).Status)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	token := s.ownerToken(t)
	s.expectOwnerExists()

	rec := s.do(http.MethodPost, "/logout", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/center/profile", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LoginValidation(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(http.MethodPost, "/login", `{"username":"nimal"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Error, "password")
}

func TestRouter_LoginUnknownUser(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	s.mock.ExpectQuery(`SELECT schema FROM "carConnectPro"\.schema_mapping`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"schema"}))

	rec := s.do(http.MethodPost, "/login", `{"username":"ghost","password":"whatever-it-is"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, decodeResult(t, rec).Error)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestRouter_LoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, RouterConfig{LoginRateLimit: "2-M"})

	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, "/login", `{}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := s.do(http.MethodPost, "/login", `{}`, "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, StatusFail, decodeResult(t, rec).Status)
}

func TestRouter_InvalidRateLimit(t *testing.T) {
	_, err := NewRouter(RouterConfig{LoginRateLimit: "lots"}, Handlers{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRouter_UnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(http.MethodGet, "/nowhere", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, StatusFail, decodeResult(t, rec).Status)
}

func TestRouter_UnknownPublicPathsAreNotFound(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	for _, path := range []string{"/nowhere", "/parameter/colour", "/logn"} {
		rec := s.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, StatusFail, decodeResult(t, rec).Status, path)
	}
}

func TestRouter_CommonRoutesRequireBearer(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(http.MethodGet, "/common/vehicles?number_plate=CAB", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrNoFieldsProvided, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrProvision, http.StatusInternalServerError},
		{domain.ErrIdentifierRejected, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, _ := statusFor(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

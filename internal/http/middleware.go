package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"carconnect/internal/domain"
	"carconnect/internal/service"
	"carconnect/internal/session"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"

	ctxLogger    = "logger"
	ctxRequestID = "request_id"
	ctxPrincipal = "principal"
)

// requestID keeps a client supplied X-Request-ID or mints one, and attaches a
// request scoped logger
func requestID(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" || len(id) > 64 {
				id = uuid.NewString()
			}
			c.Request().Header.Set(headerRequestID, id)
			c.Response().Header().Set(headerRequestID, id)
			c.Set(ctxRequestID, id)
			c.Set(ctxLogger, base.With(zap.String("request_id", id)))
			return next(c)
		}
	}
}

func accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		loggerFrom(c).Info("HTTP request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.RealIP()),
		)
		return nil
	}
}

// loggerFrom returns the request scoped logger, or a no-op logger outside a request
func loggerFrom(c echo.Context) *zap.Logger {
	if l, ok := c.Get(ctxLogger).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// authenticate verifies the bearer token and asks the identity service for a Principal.
// The tenant comes from the server side resolution, never from the request.
func authenticate(issuer *session.Issuer, auth service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				loggerFrom(c).Warn("Missing or malformed Authorization header")
				return writeError(c, fmt.Errorf("%w: missing bearer token", domain.ErrInvalidCredentials))
			}

			claims, err := issuer.Parse(strings.TrimSpace(token))
			if err != nil {
				loggerFrom(c).Warn("Invalid session token", zap.Error(err))
				return writeError(c, err)
			}
			p, err := auth.Authorize(c.Request().Context(), claims, c.RealIP())
			if err != nil {
				loggerFrom(c).Warn("Session rejected",
					zap.String("username", claims.Username),
					zap.String("role_type", claims.RoleType),
					zap.Error(err),
				)
				return writeError(c, err)
			}

			c.Set(ctxPrincipal, p)
			c.Set(ctxLogger, loggerFrom(c).With(
				zap.String("username", p.Username),
				zap.String("schema", p.Tenant.Schema()),
			))
			return next(c)
		}
	}
}

// principalFrom returns the caller set by authenticate
func principalFrom(c echo.Context) *service.Principal {
	p, _ := c.Get(ctxPrincipal).(*service.Principal)
	return p
}

// rateLimit throttles per client IP with an in-memory store. rate uses the
// "<limit>-<period>" format, e.g. "10-M".
func rateLimit(rate string) (echo.MiddlewareFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	instance := limiter.New(memory.NewStore(), r)
	mw := stdlib.NewMiddleware(instance, stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"fail","message":"too many requests"}`))
	}))
	return echo.WrapMiddleware(mw.Handler), nil
}

package httpapi

import (
	"context"
	"net/http"
	"time"

	"carconnect/internal/metrics"
	"carconnect/internal/service"
	"carconnect/internal/session"
	"carconnect/internal/tenant"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const serviceName = "carconnect-api"

// RouterConfig carries the transport settings of the router
type RouterConfig struct {
	BodyLimit      string
	CORSOrigins    []string
	LoginRateLimit string
	// Health reports dependency readiness for GET /health. nil means always healthy.
	Health func(ctx context.Context) error
}

// Handlers groups every route handler
type Handlers struct {
	Auth           *AuthHandler
	Owner          *OwnerHandler
	Center         *CenterHandler
	Inventory      *InventoryHandler
	Client         *ClientHandler
	ServiceRecord  *ServiceRecordHandler
	Parameter      *ParameterHandler
	Issuer         *session.Issuer
	Authentication service.AuthService
}

// NewRouter builds the echo instance with middleware and all routes registered
func NewRouter(cfg RouterConfig, h Handlers, logger *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(requestID(logger))
	e.Use(accessLog)
	e.Use(metrics.Middleware(serviceName))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, headerRequestID},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	e.GET("/health", healthHandler(cfg.Health))

	limited, err := rateLimit(cfg.LoginRateLimit)
	if err != nil {
		return nil, err
	}
	e.POST("/login", h.Auth.Login, limited)
	e.POST("/register", h.Auth.Register, limited)

	param := e.Group("/parameter")
	param.GET("/gender", h.Parameter.Lookup(tenant.TableGender))
	param.GET("/fuelType", h.Parameter.Lookup(tenant.TableFuelType))
	param.GET("/transmissionType", h.Parameter.Lookup(tenant.TableTransmissionType))
	param.GET("/centers", h.Parameter.Centers)

	// group middleware also registers catch-all routes under the prefix, keep it off the root
	authed := authenticate(h.Issuer, h.Authentication)
	e.POST("/logout", h.Auth.Logout, authed)
	e.POST("/password/verify", h.Auth.VerifyPassword, authed)
	e.PATCH("/password", h.Auth.ChangePassword, authed)

	common := e.Group("/common", authed)
	common.GET("/vehicles", h.Client.SearchVehicles)

	owner := e.Group("/owner", authed)
	owner.GET("/profile", h.Owner.GetProfile)
	owner.PATCH("/profile", h.Owner.UpdateProfile)
	owner.POST("/vehicles", h.Owner.AddVehicle)
	owner.GET("/vehicles", h.Owner.ListVehicles)
	owner.GET("/vehicles/:vehicleId", h.Owner.GetVehicle)
	owner.GET("/vehicles/:vehicleId/history", h.Owner.VehicleHistory)
	owner.POST("/vehicles/:vehicleId/history/filter", h.Owner.FilterVehicleHistory)

	center := e.Group("/center", authed)
	center.GET("/profile", h.Center.GetProfile)
	center.PATCH("/profile", h.Center.UpdateProfile)

	center.GET("/employee", h.Center.ListEmployees)
	center.POST("/employee", h.Center.CreateEmployee)
	center.GET("/employee/profile", h.Center.GetEmployeeProfile)
	center.GET("/employee/:empId", h.Center.GetEmployee)
	center.PATCH("/employee/:empId", h.Center.UpdateEmployee)
	center.DELETE("/employee/:empId", h.Center.DeleteEmployee)

	center.GET("/settings/roles", h.Center.ListRoles)
	center.POST("/settings/roles", h.Center.CreateRole)
	center.GET("/settings/roles/:roleId", h.Center.GetRole)
	center.PATCH("/settings/roles/:roleId", h.Center.UpdateRole)
	center.DELETE("/settings/roles/:roleId", h.Center.DeleteRole)

	center.GET("/inventory", h.Inventory.ListParts)
	center.POST("/inventory", h.Inventory.CreatePart)
	center.GET("/inventory/reorder", h.Inventory.ReorderParts)
	center.GET("/inventory/export", h.Inventory.ExportParts)
	center.GET("/inventory/:partId", h.Inventory.GetPart)
	center.PATCH("/inventory/:partId", h.Inventory.UpdatePart)
	center.DELETE("/inventory/:partId", h.Inventory.DeletePart)

	center.GET("/settings/serviceTypes", h.Inventory.ListServiceTypes)
	center.POST("/settings/serviceTypes", h.Inventory.CreateServiceType)
	center.GET("/settings/serviceTypes/:serviceId", h.Inventory.GetServiceType)
	center.PATCH("/settings/serviceTypes/:serviceId", h.Inventory.UpdateServiceType)
	center.DELETE("/settings/serviceTypes/:serviceId", h.Inventory.DeleteServiceType)

	center.GET("/clients", h.Client.ListClients)
	center.POST("/clients", h.Client.CreateClient)
	center.GET("/clients/:clientId", h.Client.GetClient)
	center.PATCH("/clients/:clientId", h.Client.UpdateClient)

	center.GET("/onGoingServices", h.ServiceRecord.ListOngoing)
	center.POST("/onGoingServices", h.ServiceRecord.CreateOngoing)
	center.GET("/onGoingServices/:serviceId", h.ServiceRecord.GetOngoing)
	center.PATCH("/onGoingServices/:serviceId", h.ServiceRecord.UpdateOngoing)
	center.GET("/finishedServices", h.ServiceRecord.ListFinished)
	center.GET("/finishedServices/:serviceId", h.ServiceRecord.GetFinished)
	center.GET("/vehicles/:vehicleId/mileage", h.ServiceRecord.VehicleMileage)

	return e, nil
}

func healthHandler(check func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				loggerFrom(c).Warn("Health check failed", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, Result[any]{Status: StatusError, Message: "unhealthy"})
			}
		}
		return respond(c, http.StatusOK, map[string]string{"status": "ok"})
	}
}

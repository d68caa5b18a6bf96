package httpapi

import (
	"net/http"

	"carconnect/internal/domain"
	"carconnect/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OwnerHandler serves /owner routes
type OwnerHandler struct {
	owners service.OwnerService
	logger *zap.Logger
}

func NewOwnerHandler(owners service.OwnerService, logger *zap.Logger) *OwnerHandler {
	return &OwnerHandler{owners: owners, logger: logger}
}

func (h *OwnerHandler) GetProfile(c echo.Context) error {
	owner, err := h.owners.GetProfile(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, owner)
}

func (h *OwnerHandler) UpdateProfile(c echo.Context) error {
	var patch domain.OwnerPatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err)
	}
	owner, err := h.owners.UpdateProfile(c.Request().Context(), principalFrom(c), patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, owner)
}

func (h *OwnerHandler) AddVehicle(c echo.Context) error {
	var req service.AddVehicleRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	v, err := h.owners.AddVehicle(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, v)
}

func (h *OwnerHandler) ListVehicles(c echo.Context) error {
	vehicles, err := h.owners.ListVehicles(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, vehicles)
}

func (h *OwnerHandler) GetVehicle(c echo.Context) error {
	id, err := pathID(c, "vehicleId")
	if err != nil {
		return writeError(c, err)
	}
	v, err := h.owners.GetVehicle(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, v)
}

// VehicleHistory GET /owner/vehicles/:vehicleId/history
func (h *OwnerHandler) VehicleHistory(c echo.Context) error {
	return h.history(c, domain.HistoryFilter{})
}

// FilterVehicleHistory POST /owner/vehicles/:vehicleId/history/filter
func (h *OwnerHandler) FilterVehicleHistory(c echo.Context) error {
	var filter domain.HistoryFilter
	if err := bind(c, &filter); err != nil {
		return writeError(c, err)
	}
	return h.history(c, filter)
}

func (h *OwnerHandler) history(c echo.Context, filter domain.HistoryFilter) error {
	id, err := pathID(c, "vehicleId")
	if err != nil {
		return writeError(c, err)
	}
	history, err := h.owners.VehicleHistory(c.Request().Context(), principalFrom(c), id, filter)
	if err != nil {
		return writeError(c, err)
	}
	if len(history.Failures) > 0 {
		loggerFrom(c).Warn("Vehicle history is partial",
			zap.Int64("vehicle_id", id),
			zap.Int("failed_tenants", len(history.Failures)),
		)
	}
	return respond(c, http.StatusOK, history)
}

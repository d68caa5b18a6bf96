package httpapi

import (
	"net/http"

	"carconnect/internal/domain"
	"carconnect/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ServiceRecordHandler serves ongoing and finished services of a center
type ServiceRecordHandler struct {
	records service.ServiceRecordService
	logger  *zap.Logger
}

func NewServiceRecordHandler(records service.ServiceRecordService, logger *zap.Logger) *ServiceRecordHandler {
	return &ServiceRecordHandler{records: records, logger: logger}
}

func (h *ServiceRecordHandler) ListOngoing(c echo.Context) error {
	records, err := h.records.ListOngoing(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, records)
}

func (h *ServiceRecordHandler) GetOngoing(c echo.Context) error {
	id, err := pathID(c, "serviceId")
	if err != nil {
		return writeError(c, err)
	}
	rec, err := h.records.GetOngoing(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, rec)
}

func (h *ServiceRecordHandler) CreateOngoing(c echo.Context) error {
	var req service.CreateServiceRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	rec, err := h.records.CreateService(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, rec)
}

func (h *ServiceRecordHandler) UpdateOngoing(c echo.Context) error {
	id, err := pathID(c, "serviceId")
	if err != nil {
		return writeError(c, err)
	}
	var patch domain.ServiceRecordPatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err)
	}
	rec, err := h.records.UpdateService(c.Request().Context(), principalFrom(c), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, rec)
}

func (h *ServiceRecordHandler) ListFinished(c echo.Context) error {
	records, err := h.records.ListFinished(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, records)
}

func (h *ServiceRecordHandler) GetFinished(c echo.Context) error {
	id, err := pathID(c, "serviceId")
	if err != nil {
		return writeError(c, err)
	}
	rec, err := h.records.GetFinished(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, rec)
}

// VehicleMileage GET /center/vehicles/:vehicleId/mileage
func (h *ServiceRecordHandler) VehicleMileage(c echo.Context) error {
	id, err := pathID(c, "vehicleId")
	if err != nil {
		return writeError(c, err)
	}
	mileage, err := h.records.LatestMileage(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, map[string]any{"vehicle_id": id, "mileage": mileage})
}

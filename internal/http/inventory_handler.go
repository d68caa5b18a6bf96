package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"carconnect/internal/domain"
	"carconnect/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandler serves parts and the service catalog of a center
type InventoryHandler struct {
	inventory service.InventoryService
	logger    *zap.Logger
}

func NewInventoryHandler(inventory service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, logger: logger}
}

func (h *InventoryHandler) ListParts(c echo.Context) error {
	parts, err := h.inventory.ListParts(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, parts)
}

func (h *InventoryHandler) ReorderParts(c echo.Context) error {
	parts, err := h.inventory.ReorderParts(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, parts)
}

// ExportParts GET /center/inventory/export
func (h *InventoryHandler) ExportParts(c echo.Context) error {
	p := principalFrom(c)
	parts, err := h.inventory.ListParts(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	data, err := GenerateInventoryExport(parts)
	if err != nil {
		return writeError(c, err)
	}
	loggerFrom(c).Info("Inventory exported", zap.Int("parts", len(parts)), zap.Int("bytes", len(data)))

	filename := fmt.Sprintf("inventory_%s_%s.xlsx", p.Tenant.Schema(), time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

func (h *InventoryHandler) GetPart(c echo.Context) error {
	id, err := pathID(c, "partId")
	if err != nil {
		return writeError(c, err)
	}
	part, err := h.inventory.GetPart(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, part)
}

func (h *InventoryHandler) CreatePart(c echo.Context) error {
	var req service.CreatePartRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	part, err := h.inventory.CreatePart(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, part)
}

func (h *InventoryHandler) UpdatePart(c echo.Context) error {
	id, err := pathID(c, "partId")
	if err != nil {
		return writeError(c, err)
	}
	var patch domain.PartPatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err)
	}
	part, err := h.inventory.UpdatePart(c.Request().Context(), principalFrom(c), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, part)
}

func (h *InventoryHandler) DeletePart(c echo.Context) error {
	id, err := pathID(c, "partId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.inventory.DeletePart(c.Request().Context(), principalFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return respond[any](c, http.StatusOK, nil)
}

func (h *InventoryHandler) ListServiceTypes(c echo.Context) error {
	types, err := h.inventory.ListServiceTypes(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, types)
}

func (h *InventoryHandler) GetServiceType(c echo.Context) error {
	id, err := pathID(c, "serviceId")
	if err != nil {
		return writeError(c, err)
	}
	st, err := h.inventory.GetServiceType(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, st)
}

func (h *InventoryHandler) CreateServiceType(c echo.Context) error {
	var req service.CreateServiceTypeRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	st, err := h.inventory.CreateServiceType(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, st)
}

func (h *InventoryHandler) UpdateServiceType(c echo.Context) error {
	id, err := pathID(c, "serviceId")
	if err != nil {
		return writeError(c, err)
	}
	var patch domain.ServiceTypePatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err)
	}
	st, err := h.inventory.UpdateServiceType(c.Request().Context(), principalFrom(c), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, st)
}

func (h *InventoryHandler) DeleteServiceType(c echo.Context) error {
	id, err := pathID(c, "serviceId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.inventory.DeleteServiceType(c.Request().Context(), principalFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return respond[any](c, http.StatusOK, nil)
}

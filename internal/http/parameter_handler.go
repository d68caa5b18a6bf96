package httpapi

import (
	"net/http"

	"carconnect/internal/service"
	"carconnect/internal/tenant"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ParameterHandler serves the public /parameter lookups
type ParameterHandler struct {
	params service.ParameterService
	logger *zap.Logger
}

func NewParameterHandler(params service.ParameterService, logger *zap.Logger) *ParameterHandler {
	return &ParameterHandler{params: params, logger: logger}
}

// Lookup serves one platform lookup table
func (h *ParameterHandler) Lookup(table tenant.TableName) echo.HandlerFunc {
	return func(c echo.Context) error {
		values, err := h.params.List(c.Request().Context(), table)
		if err != nil {
			return writeError(c, err)
		}
		return respond(c, http.StatusOK, values)
	}
}

func (h *ParameterHandler) Centers(c echo.Context) error {
	centers, err := h.params.Centers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, centers)
}

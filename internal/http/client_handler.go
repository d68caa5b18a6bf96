package httpapi

import (
	"net/http"

	"carconnect/internal/domain"
	"carconnect/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClientHandler serves center clients and the platform vehicle search
type ClientHandler struct {
	clients service.ClientService
	logger  *zap.Logger
}

func NewClientHandler(clients service.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, logger: logger}
}

func (h *ClientHandler) ListClients(c echo.Context) error {
	clients, err := h.clients.ListClients(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, clients)
}

func (h *ClientHandler) GetClient(c echo.Context) error {
	id, err := pathID(c, "clientId")
	if err != nil {
		return writeError(c, err)
	}
	client, err := h.clients.GetClient(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, client)
}

func (h *ClientHandler) CreateClient(c echo.Context) error {
	var req service.CreateClientRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	client, err := h.clients.CreateClient(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, client)
}

func (h *ClientHandler) UpdateClient(c echo.Context) error {
	id, err := pathID(c, "clientId")
	if err != nil {
		return writeError(c, err)
	}
	var patch domain.ClientPatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err)
	}
	client, err := h.clients.UpdateClient(c.Request().Context(), principalFrom(c), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, client)
}

// SearchVehicles GET /common/vehicles?number_plate=
func (h *ClientHandler) SearchVehicles(c echo.Context) error {
	vehicles, err := h.clients.SearchVehicles(c.Request().Context(), principalFrom(c), c.QueryParam("number_plate"))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, vehicles)
}

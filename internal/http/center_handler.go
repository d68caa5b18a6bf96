package httpapi

import (
	"net/http"

	"carconnect/internal/domain"
	"carconnect/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CenterHandler serves the center profile, employees and roles
type CenterHandler struct {
	centers   service.CenterService
	employees service.EmployeeService
	roles     service.RoleService
	logger    *zap.Logger
}

func NewCenterHandler(
	centers service.CenterService,
	employees service.EmployeeService,
	roles service.RoleService,
	logger *zap.Logger,
) *CenterHandler {
	return &CenterHandler{centers: centers, employees: employees, roles: roles, logger: logger}
}

func (h *CenterHandler) GetProfile(c echo.Context) error {
	center, err := h.centers.GetProfile(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, center)
}

func (h *CenterHandler) UpdateProfile(c echo.Context) error {
	var patch domain.CenterPatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err)
	}
	center, err := h.centers.UpdateProfile(c.Request().Context(), principalFrom(c), patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, center)
}

func (h *CenterHandler) ListEmployees(c echo.Context) error {
	employees, err := h.employees.ListEmployees(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, employees)
}

func (h *CenterHandler) GetEmployee(c echo.Context) error {
	id, err := pathID(c, "empId")
	if err != nil {
		return writeError(c, err)
	}
	e, err := h.employees.GetEmployee(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, e)
}

// GetEmployeeProfile GET /center/employee/profile, the calling employee's own record
func (h *CenterHandler) GetEmployeeProfile(c echo.Context) error {
	e, err := h.employees.GetProfile(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, e)
}

func (h *CenterHandler) CreateEmployee(c echo.Context) error {
	var req service.CreateEmployeeRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	e, err := h.employees.CreateEmployee(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, e)
}

func (h *CenterHandler) UpdateEmployee(c echo.Context) error {
	id, err := pathID(c, "empId")
	if err != nil {
		return writeError(c, err)
	}
	var patch domain.EmployeePatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err)
	}
	e, err := h.employees.UpdateEmployee(c.Request().Context(), principalFrom(c), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, e)
}

func (h *CenterHandler) DeleteEmployee(c echo.Context) error {
	id, err := pathID(c, "empId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.employees.DeleteEmployee(c.Request().Context(), principalFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return respond[any](c, http.StatusOK, nil)
}

func (h *CenterHandler) ListRoles(c echo.Context) error {
	roles, err := h.roles.ListRoles(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, roles)
}

func (h *CenterHandler) GetRole(c echo.Context) error {
	id, err := pathID(c, "roleId")
	if err != nil {
		return writeError(c, err)
	}
	role, err := h.roles.GetRole(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, role)
}

func (h *CenterHandler) CreateRole(c echo.Context) error {
	var req service.CreateRoleRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	role, err := h.roles.CreateRole(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, role)
}

func (h *CenterHandler) UpdateRole(c echo.Context) error {
	id, err := pathID(c, "roleId")
	if err != nil {
		return writeError(c, err)
	}
	var patch domain.RolePatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err)
	}
	role, err := h.roles.UpdateRole(c.Request().Context(), principalFrom(c), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, role)
}

func (h *CenterHandler) DeleteRole(c echo.Context) error {
	id, err := pathID(c, "roleId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.roles.DeleteRole(c.Request().Context(), principalFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return respond[any](c, http.StatusOK, nil)
}

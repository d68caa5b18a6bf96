package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"carconnect/internal/domain"
	"carconnect/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves login, registration, logout and password routes
type AuthHandler struct {
	auth         service.AuthService
	registration service.RegistrationService
	passwords    service.PasswordService
	logger       *zap.Logger
}

func NewAuthHandler(
	auth service.AuthService,
	registration service.RegistrationService,
	passwords service.PasswordService,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{auth: auth, registration: registration, passwords: passwords, logger: logger}
}

// Login POST /login
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	req.IPAddress = c.RealIP()

	resp, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, resp)
}

// Register POST /register. isOwner selects the owner or the center branch.
func (h *AuthHandler) Register(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return writeError(c, fmt.Errorf("%w: unreadable request body", domain.ErrValidation))
	}
	var kind struct {
		IsOwner *bool `json:"isOwner"`
	}
	if err := json.Unmarshal(body, &kind); err != nil || kind.IsOwner == nil {
		return writeError(c, fmt.Errorf("%w: isOwner is required", domain.ErrValidation))
	}

	ctx := c.Request().Context()
	var resp *service.RegisterResponse
	if *kind.IsOwner {
		var req service.RegisterOwnerRequest
		if err := decodeAndValidate(c, body, &req); err != nil {
			return writeError(c, err)
		}
		req.IP = c.RealIP()
		resp, err = h.registration.RegisterOwner(ctx, req)
	} else {
		var req service.RegisterCenterRequest
		if err := decodeAndValidate(c, body, &req); err != nil {
			return writeError(c, err)
		}
		req.IP = c.RealIP()
		resp, err = h.registration.RegisterCenter(ctx, req)
	}
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusCreated, resp)
}

// Logout POST /logout
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), principalFrom(c)); err != nil {
		return writeError(c, err)
	}
	return respond[any](c, http.StatusOK, nil)
}

// VerifyPassword POST /password/verify
func (h *AuthHandler) VerifyPassword(c echo.Context) error {
	var req service.VerifyPasswordRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := h.passwords.Verify(c.Request().Context(), principalFrom(c), req.Password); err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, map[string]bool{"valid": true})
}

// ChangePassword PATCH /password
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req service.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := h.passwords.Change(c.Request().Context(), principalFrom(c), req); err != nil {
		return writeError(c, err)
	}
	return respond[any](c, http.StatusOK, nil)
}

func decodeAndValidate(c echo.Context, body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}
	return c.Validate(dst)
}

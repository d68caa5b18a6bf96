package httpapi

import (
	"fmt"
	"strconv"

	"carconnect/internal/domain"

	"github.com/labstack/echo/v4"
)

// pathID reads a positive integer path parameter
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, name)
	}
	return id, nil
}

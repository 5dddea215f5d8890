package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/core/ports"
)

// clientInfo describes the caller for the audit trail.
func clientInfo(c echo.Context) ports.ClientInfo {
	return ports.ClientInfo{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Take3Presents/RoomBot/internal/handler"
	"github.com/Take3Presents/RoomBot/internal/middleware"
	"github.com/Take3Presents/RoomBot/internal/utils"
)

// RegisterAdmin registers the operational endpoints under /v1/admin.  All
// routes require a valid JWT with the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)

	// Kill-switch for the whole swap feature.
	g.PUT("/swaps", a.SetSwaps)
	// Swap history, newest first.
	g.GET("/swaps/recent", a.RecentSwaps)

	// Room lookup by the identifiers operators actually have.
	g.GET("/rooms/by-number/:hotel/:number", a.LookupRoom)
	// Forced revocation of any room's active code.
	g.POST("/rooms/:id/revoke-code", a.RevokeRoomCode)

	// Consistency auditor.
	g.POST("/audit/scan", a.AuditScan)
	g.GET("/audit/findings", a.AuditFindings)
	g.POST("/audit/findings/:id/repair", a.AuditRepair)
	g.POST("/audit/findings/:id/dismiss", a.AuditDismiss)

	// Guest credential rotation.
	g.POST("/guests/rotate-credential", a.RotateCredential)

	// Maintenance window fencing bulk data operations off from swaps.
	g.POST("/maintenance", a.OpenMaintenance)
	g.DELETE("/maintenance", a.CloseMaintenance)
}

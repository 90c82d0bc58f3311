package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Take3Presents/RoomBot/internal/handler"
	"github.com/Take3Presents/RoomBot/internal/middleware"
	"github.com/Take3Presents/RoomBot/internal/utils"
)

// RegisterGuest registers guest-scoped endpoints under /v1.  All routes
// require a valid JWT; admins pass too, since staff occasionally hold
// rooms themselves.  Guests can list their rooms, issue and revoke swap
// codes on them, and redeem a code shared by another guest.
func RegisterGuest(e *echo.Echo, rooms *handler.RoomHandler, swaps *handler.SwapHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleGuest, utils.RoleAdmin),
	)
	g.GET("/my-rooms", rooms.MyRooms)
	g.POST("/rooms/:id/swap-code", swaps.IssueCode)
	g.DELETE("/rooms/:id/swap-code", swaps.RevokeCode)
	g.POST("/swaps/redeem", swaps.Redeem)
}

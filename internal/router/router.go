package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/Take3Presents/RoomBot/internal/handler"    // import the handlers that implement business logic
	"github.com/Take3Presents/RoomBot/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The health endpoint is used by load balancers and monitoring systems
	// to verify that the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  Unauthenticated
// operations live under /v1/auth, while the authenticated identity
// endpoint lives under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints.  These return
// sanitized room data only, with no occupant details, and are intended to
// sit behind the response cache middleware passed in cacheMW.
func RegisterPublic(e *echo.Echo, r *handler.RoomHandler, cacheMW echo.MiddlewareFunc) {
	e.GET("/v1/rooms", r.Browse, cacheMW)
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/iliyamo/resource-reservation/internal/handler"    // handlers implementing the endpoints
	"github.com/iliyamo/resource-reservation/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check
// used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only issues a new
	// access token and keeps the refresh token as is.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh token in the body or a bearer token
	// and therefore does not sit behind the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)
}

// RegisterCatalog registers the public resource browse endpoints. They
// require no authentication; when a cache middleware is supplied the
// responses are served from redis within their TTL.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/resources")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("", h.ListResources)
	g.GET("/:id", h.GetResource)
	g.GET("/:id/availability", h.Availability)
}

// RegisterReservations wires the reservation engine endpoints. All of
// them require a valid access token; the status-update and delete paths
// additionally require the ADMIN role.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, admin *handler.AdminReservationHandler, jwtSecret string) {
	g := e.Group("/v1/reservations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/cancel", h.Cancel)
	g.PATCH("/:id", h.Update)

	adm := e.Group("/v1/reservations")
	adm.Use(middleware.JWTAuth(jwtSecret))
	adm.Use(middleware.RequireRole("ADMIN"))
	adm.POST("/:id/status", admin.UpdateStatus)
	adm.DELETE("/:id", admin.Remove)
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/facility-booking/internal/handler"
	"github.com/iliyamo/facility-booking/internal/middleware"
	"github.com/iliyamo/facility-booking/internal/model"
)

// Deps carries everything the route table needs.  DB, RateLimit and
// CatalogCache may be nil; whatever needs them is then skipped.
type Deps struct {
	DB           handler.Pinger
	Auth         *handler.AuthHandler
	Booking      *handler.BookingHandler
	JWTSecret    string
	RateLimit    echo.MiddlewareFunc
	CatalogCache echo.MiddlewareFunc
}

// RegisterRoutes registers the health checks.  /readyz exists only when db is set.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers the token endpoints under /v1/auth and GET /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout takes either a refresh_token body or a bearer token, so it sits
	// outside the JWT group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleRegular, model.RolePrivileged))
	auth.GET("/me", a.Me)
}

// RegisterBooking registers the facility and booking endpoints.  Any
// authenticated account may browse, book and cancel its own bookings;
// the /v1/admin group requires the privileged role.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, rateLimit, catalogCache echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleRegular, model.RolePrivileged))
	g.GET("/facilities", h.ListFacilities, optional(catalogCache)...)
	g.GET("/facilities/:id/availability", h.Availability)
	g.POST("/bookings", h.CreateBooking, optional(rateLimit)...)
	g.GET("/my-bookings", h.MyBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)

	admin := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RolePrivileged))
	admin.POST("/facilities", h.CreateFacility)
	admin.DELETE("/facilities/:id", h.DeleteFacility)
	admin.GET("/facilities/summary", h.FacilitySummary)
	admin.GET("/bookings", h.ListBookings)
	admin.GET("/bookings/pending", h.PendingBookings)
	admin.POST("/bookings/:id/approve", h.ApproveBooking)
	admin.POST("/bookings/:id/reject", h.RejectBooking)
	admin.DELETE("/bookings/:id", h.CancelBooking)
}

// Register wires every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.JWTSecret)
	RegisterBooking(e, d.Booking, d.JWTSecret, d.RateLimit, d.CatalogCache)
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}

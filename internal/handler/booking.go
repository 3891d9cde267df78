package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/facility-booking/internal/booking"
	"github.com/iliyamo/facility-booking/internal/middleware"
	"github.com/iliyamo/facility-booking/internal/model"
)

// CatalogCache is purged whenever the facility catalog changes.
type CatalogCache interface {
	Purge(ctx context.Context) error
}

// BookingHandler exposes the booking service over HTTP.  Every endpoint
// reads the caller from the JWT context; permission checks happen in the
// service.
type BookingHandler struct {
	Svc   *booking.Service
	Cache CatalogCache
	Log   logrus.FieldLogger
}

// NewBookingHandler panics on a nil service.  cache may be nil.
func NewBookingHandler(svc *booking.Service, cache CatalogCache, log logrus.FieldLogger) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BookingHandler{Svc: svc, Cache: cache, Log: log}
}

type bookingReq struct {
	FacilityID uint64 `json:"facility_id"`
	Date       string `json:"date"`
	Start      string `json:"start_time"`
	End        string `json:"end_time"`
}

type facilityReq struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// CreateBooking handles POST /v1/bookings.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	adm, err := h.Svc.RequestBooking(c.Request().Context(), middleware.Actor(c), model.BookingInput{
		FacilityID: req.FacilityID,
		Date:       req.Date,
		Start:      req.Start,
		End:        req.End,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, adm)
}

// MyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	actor := middleware.Actor(c)
	items, err := h.Svc.ListReservations(c.Request().Context(), actor, model.ReservationFilter{
		AccountID: actor.ID,
		Status:    model.Status(c.QueryParam("status")),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	r, err := h.Svc.Reservation(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// CancelBooking handles DELETE /v1/bookings/:id and DELETE
// /v1/admin/bookings/:id.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Svc.Cancel(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBookings handles GET /v1/admin/bookings?status=&facility_id=.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	filter := model.ReservationFilter{Status: model.Status(c.QueryParam("status"))}
	if raw := c.QueryParam("facility_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility_id"})
		}
		filter.FacilityID = id
	}
	items, err := h.Svc.ListReservations(c.Request().Context(), middleware.Actor(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// PendingBookings handles GET /v1/admin/bookings/pending.
func (h *BookingHandler) PendingBookings(c echo.Context) error {
	items, err := h.Svc.PendingApprovals(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// ApproveBooking handles POST /v1/admin/bookings/:id/approve.
func (h *BookingHandler) ApproveBooking(c echo.Context) error {
	return h.decide(c, model.StatusApproved)
}

// RejectBooking handles POST /v1/admin/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c echo.Context) error {
	return h.decide(c, model.StatusRejected)
}

func (h *BookingHandler) decide(c echo.Context, to model.Status) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	r, err := h.Svc.Decide(c.Request().Context(), middleware.Actor(c), id, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// ListFacilities handles GET /v1/facilities.
func (h *BookingHandler) ListFacilities(c echo.Context) error {
	items, err := h.Svc.ListFacilities(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Availability handles
// GET /v1/facilities/:id/availability?date=&start_time=&end_time=.  The query
// names match the booking body so validation errors point at them.
func (h *BookingHandler) Availability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	v, admissible, err := h.Svc.CheckAvailability(c.Request().Context(), model.BookingInput{
		FacilityID: id,
		Date:       c.QueryParam("date"),
		Start:      c.QueryParam("start_time"),
		End:        c.QueryParam("end_time"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"verdict":    v,
		"admissible": admissible,
		"policy":     h.Svc.Policy(),
	})
}

// FacilitySummary handles GET /v1/admin/facilities/summary.
func (h *BookingHandler) FacilitySummary(c echo.Context) error {
	items, err := h.Svc.FacilitySummaries(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// CreateFacility handles POST /v1/admin/facilities.
func (h *BookingHandler) CreateFacility(c echo.Context) error {
	var req facilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	f, err := h.Svc.AddResource(c.Request().Context(), middleware.Actor(c), req.Name, req.Capacity)
	if err != nil {
		return writeError(c, err)
	}
	h.purgeCatalog(c.Request().Context())
	return c.JSON(http.StatusCreated, f)
}

// DeleteFacility handles DELETE /v1/admin/facilities/:id.
func (h *BookingHandler) DeleteFacility(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	removed, err := h.Svc.RemoveResource(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	h.purgeCatalog(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"facility_id": id, "removed_reservations": removed})
}

func (h *BookingHandler) purgeCatalog(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(context.WithoutCancel(ctx)); err != nil {
		h.Log.WithError(err).Warn("purge facility cache failed")
	}
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/booking"
	"github.com/iliyamo/resource-reservation/internal/model"
)

// ReservationHandler exposes the reservation engine to authenticated
// callers. JWT authentication and role validation have already been
// performed by middleware; methods return 401 when the user ID cannot
// be extracted from the context. Transactional discipline lives in the
// engine, not here.
type ReservationHandler struct {
	Engine *booking.Engine
}

// NewReservationHandler constructs a ReservationHandler. The engine must
// be non-nil.
func NewReservationHandler(engine *booking.Engine) *ReservationHandler {
	if engine == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine}
}

type createReservationReq struct {
	ResourceID uint64 `json:"resource_id"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at"`
	Occupancy  uint32 `json:"occupancy"`
	// Internal marks an administrative booking with no owning requester
	// (maintenance blocks, walk-ins). Ignored for non-admin callers.
	Internal bool `json:"internal,omitempty"`
}

// Create handles POST /v1/reservations. It parses the requested interval,
// delegates to the engine and returns 201 with the persisted reservation
// in PENDING status. The total price is always the engine's computation;
// any amount in the request body is ignored.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ResourceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_id is required"})
	}
	start, err := parseRFC3339(req.StartAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
	}
	end, err := parseRFC3339(req.EndAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_at must be RFC3339"})
	}

	in := booking.CreateInput{
		ResourceID:  req.ResourceID,
		RequesterID: &userID,
		Interval:    booking.Interval{Start: start, End: end},
		Occupancy:   req.Occupancy,
	}
	if req.Internal && isAdmin(c) {
		in.RequesterID = nil
	}
	rsv, err := h.Engine.Create(c.Request().Context(), in)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResp(rsv))
}

// Get handles GET /v1/reservations/:id. Customers only see their own
// reservations; admins see everything.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	rsv, err := h.Engine.Get(c.Request().Context(), id, userID, isAdmin(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(rsv))
}

// List handles GET /v1/reservations. Customers always get their own
// reservations, optionally narrowed by ?status=. Admins may additionally
// filter by ?requester_id= and ?resource_id=; without a requester filter
// they see all reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var f booking.Filter
	if s := c.QueryParam("status"); s != "" {
		status := model.Status(s)
		f.Status = &status
	}
	if isAdmin(c) {
		if v := c.QueryParam("requester_id"); v != "" {
			if rid, err := strconv.ParseUint(v, 10, 64); err == nil && rid != 0 {
				f.RequesterID = &rid
			}
		}
		if v := c.QueryParam("resource_id"); v != "" {
			if rid, err := strconv.ParseUint(v, 10, 64); err == nil && rid != 0 {
				f.ResourceID = &rid
			}
		}
	} else {
		f.RequesterID = &userID
	}
	rows, err := h.Engine.List(c.Request().Context(), f)
	if err != nil {
		return engineError(c, err)
	}
	out := make([]reservationResp, 0, len(rows))
	for i := range rows {
		out = append(out, toReservationResp(&rows[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Cancel handles POST /v1/reservations/:id/cancel. Self-service
// cancellation is limited to PENDING reservations owned by the caller;
// admins may also cancel CONFIRMED ones.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	rsv, err := h.Engine.Cancel(c.Request().Context(), id, userID, isAdmin(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(rsv))
}

type updateReservationReq struct {
	StartAt   *string `json:"start_at"`
	EndAt     *string `json:"end_at"`
	Occupancy *uint32 `json:"occupancy"`
}

// Update handles PATCH /v1/reservations/:id. Only interval and occupancy
// may change; the engine re-validates both and recomputes the price.
func (h *ReservationHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var ch booking.Change
	if req.StartAt != nil {
		t, err := parseRFC3339(*req.StartAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
		}
		ch.StartAt = &t
	}
	if req.EndAt != nil {
		t, err := parseRFC3339(*req.EndAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_at must be RFC3339"})
		}
		ch.EndAt = &t
	}
	ch.Occupancy = req.Occupancy

	rsv, err := h.Engine.Update(c.Request().Context(), id, ch, userID, isAdmin(c))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(rsv))
}

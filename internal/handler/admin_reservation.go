package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/booking"
	"github.com/iliyamo/resource-reservation/internal/model"
	q "github.com/iliyamo/resource-reservation/internal/queue"
	"github.com/iliyamo/resource-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/resource-reservation/internal/service"
)

// AdminReservationHandler exposes the administrative lifecycle paths:
// table-driven status updates and physical removal. Routes using it are
// guarded by the ADMIN role middleware.
type AdminReservationHandler struct {
	Engine    *booking.Engine
	Resources *repository.ResourceRepo
}

// NewAdminReservationHandler constructs the handler; both dependencies
// must be non-nil.
func NewAdminReservationHandler(engine *booking.Engine, resources *repository.ResourceRepo) *AdminReservationHandler {
	if engine == nil || resources == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Engine: engine, Resources: resources}
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /v1/reservations/:id/status. The requested
// status is checked against the resource family's transition table; an
// illegal transition returns 409 with the current and requested status.
// A transition into CONFIRMED publishes a reservation.confirmed event
// after the commit; publish failures are logged by the publisher and do
// not fail the request.
func (h *AdminReservationHandler) UpdateStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	rsv, err := h.Engine.UpdateStatus(c.Request().Context(), id, model.Status(req.Status))
	if err != nil {
		return engineError(c, err)
	}
	if rsv.Status == model.StatusConfirmed {
		h.publishConfirmed(rsv)
	}
	return c.JSON(http.StatusOK, toReservationResp(rsv))
}

// Remove handles DELETE /v1/reservations/:id. Deletion is reserved for
// reservations that never took effect (PENDING, CANCELLED, REJECTED);
// anything confirmed must be cancelled instead to preserve history.
func (h *AdminReservationHandler) Remove(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Engine.Remove(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// publishConfirmed builds and publishes the confirmation event in the
// background. The reservation is already committed; the event is best
// effort and downstream consumers tolerate gaps.
func (h *AdminReservationHandler) publishConfirmed(rsv *model.Reservation) {
	ev := q.ReservationConfirmedEvent{
		ReservationID:   rsv.ID,
		RequesterID:     rsv.RequesterID,
		ResourceID:      rsv.ResourceID,
		StartAt:         rsv.StartAt.UTC().Format(time.RFC3339),
		EndAt:           rsv.EndAt.UTC().Format(time.RFC3339),
		Occupancy:       rsv.Occupancy,
		TotalPriceCents: rsv.TotalPriceCents,
		ConfirmedAt:     rsv.UpdatedAt.UTC().Format(time.RFC3339),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if res, err := h.Resources.Resource(ctx, rsv.ResourceID); err == nil {
		ev.ResourceName = res.Name
		ev.Family = string(res.Family)
	}
	go func() {
		defer cancel()
		_ = queue_publisher.PublishReservationConfirmed(ctx, ev)
	}()
}

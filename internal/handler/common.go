package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/booking"
	"github.com/iliyamo/resource-reservation/internal/model"
)

// getUserID extracts the user_id set by the JWT middleware and converts
// it to uint64. Claims decoded from JSON arrive as float64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated caller carries the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// parseRFC3339 parses a request timestamp and normalizes it to UTC.
func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// reservationResp is the wire shape of a reservation. Timestamps are
// RFC 3339 in UTC; the price is in the resource currency's minor unit.
type reservationResp struct {
	ID              uint64  `json:"id"`
	ResourceID      uint64  `json:"resource_id"`
	RequesterID     *uint64 `json:"requester_id,omitempty"`
	StartAt         string  `json:"start_at"`
	EndAt           string  `json:"end_at"`
	Occupancy       uint32  `json:"occupancy"`
	TotalPriceCents uint64  `json:"total_price_cents"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:              r.ID,
		ResourceID:      r.ResourceID,
		RequesterID:     r.RequesterID,
		StartAt:         r.StartAt.UTC().Format(time.RFC3339),
		EndAt:           r.EndAt.UTC().Format(time.RFC3339),
		Occupancy:       r.Occupancy,
		TotalPriceCents: r.TotalPriceCents,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// engineError translates the engine's typed failures into HTTP
// responses. Conflicts (slot taken, capacity, illegal state or
// transition) map to 409 so clients distinguish retryable slot errors
// from business-rule rejections by the error body, not the code.
func engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interval"})
	case errors.Is(err, booking.ErrResourceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	case errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, booking.ErrNotOwned):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "occupancy exceeds capacity", "retryable": true})
	case errors.Is(err, booking.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable", "retryable": true})
	case errors.Is(err, booking.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "operation not allowed in current status", "retryable": false})
	}
	if te, ok := booking.IsTransitionError(err); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "invalid status transition",
			"from":      string(te.From),
			"to":        string(te.To),
			"retryable": false,
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/booking"
	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/repository"
)

// CatalogHandler serves the public, read-only view of bookable
// resources plus an advisory availability probe. These routes need no
// authentication and sit behind the redis response cache.
type CatalogHandler struct {
	Resources *repository.ResourceRepo
	Engine    *booking.Engine
}

// NewCatalogHandler constructs a CatalogHandler with non-nil dependencies.
func NewCatalogHandler(resources *repository.ResourceRepo, engine *booking.Engine) *CatalogHandler {
	if resources == nil || engine == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Resources: resources, Engine: engine}
}

type resourceResp struct {
	ID             uint64 `json:"id"`
	Family         string `json:"family"`
	Name           string `json:"name"`
	Capacity       uint32 `json:"capacity"`
	UnitPriceCents uint64 `json:"unit_price_cents"`
	Currency       string `json:"currency"`
	Granularity    string `json:"granularity"`
	FreeOccupancy  uint32 `json:"free_occupancy"`
	SurchargeBps   uint32 `json:"surcharge_bps"`
}

func toResourceResp(r *model.Resource) resourceResp {
	return resourceResp{
		ID:             r.ID,
		Family:         string(r.Family),
		Name:           r.Name,
		Capacity:       r.Capacity,
		UnitPriceCents: r.UnitPriceCents,
		Currency:       r.Currency,
		Granularity:    string(r.Granularity),
		FreeOccupancy:  r.FreeOccupancy,
		SurchargeBps:   r.SurchargeBps,
	}
}

// ListResources handles GET /v1/resources and returns active catalog
// entries.
func (h *CatalogHandler) ListResources(c echo.Context) error {
	rows, err := h.Resources.List(c.Request().Context(), true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]resourceResp, 0, len(rows))
	for i := range rows {
		out = append(out, toResourceResp(&rows[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"resources": out})
}

// GetResource handles GET /v1/resources/:id.
func (h *CatalogHandler) GetResource(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	res, err := h.Resources.Resource(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	}
	return c.JSON(http.StatusOK, toResourceResp(res))
}

// Availability handles GET /v1/resources/:id/availability?start=&end=.
// It runs the conflict detector read-only and reports whether the
// interval is currently free. The answer is advisory: booking may still
// fail with 409 if somebody takes the slot in between.
func (h *CatalogHandler) Availability(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	start, err := parseRFC3339(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be RFC3339"})
	}
	end, err := parseRFC3339(c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be RFC3339"})
	}
	available, err := h.Engine.Available(c.Request().Context(), id, booking.Interval{Start: start, End: end})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"resource_id": id,
		"start":       start.Format(time.RFC3339),
		"end":         end.Format(time.RFC3339),
		"available":   available,
	})
}

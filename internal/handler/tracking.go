package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-seat-booking/internal/tracking"
)

// LocationStore keeps the latest GPS fix per train.
type LocationStore interface {
	Update(loc tracking.Location) (bool, error)
	Get(trainID uint64) (tracking.Location, bool)
	Snapshot() []tracking.Location
}

type TrackingHandler struct {
	Locations LocationStore
}

func NewTrackingHandler(s LocationStore) *TrackingHandler {
	return &TrackingHandler{Locations: s}
}

type locationRequest struct {
	Latitude   *float64   `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude  *float64   `json:"longitude" validate:"required,gte=-180,lte=180"`
	SpeedKmh   float64    `json:"speed_kmh" validate:"gte=0"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// UpdateLocation handles PUT /v1/trains/:id/location.  A fix older than the
// stored one is accepted but ignored; the response says which happened.
func (h *TrackingHandler) UpdateLocation(c echo.Context) error {
	trainID, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	var req locationRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	loc := tracking.Location{
		TrainID:   trainID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		SpeedKmh:  req.SpeedKmh,
	}
	if req.RecordedAt != nil {
		loc.RecordedAt = *req.RecordedAt
	}
	applied, err := h.Locations.Update(loc)
	if err != nil {
		if errors.Is(err, tracking.ErrInvalidFix) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	current, _ := h.Locations.Get(trainID)
	return c.JSON(http.StatusOK, echo.Map{"applied": applied, "location": current})
}

// GetLocation handles GET /v1/trains/:id/location.
func (h *TrackingHandler) GetLocation(c echo.Context) error {
	trainID, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	loc, found := h.Locations.Get(trainID)
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no location reported for this train"})
	}
	return c.JSON(http.StatusOK, loc)
}

// ListLocations handles GET /v1/trains/locations.
func (h *TrackingHandler) ListLocations(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"locations": h.Locations.Snapshot()})
}

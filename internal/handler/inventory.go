package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/model"
	"github.com/iliyamo/rail-seat-booking/internal/service"
)

// Inventory lists and provisions schedule seat maps.
type Inventory interface {
	ListSeats(ctx context.Context, scheduleID uint64) ([]model.SeatRecord, error)
	ProvisionSeats(ctx context.Context, scheduleID uint64, coaches []service.CoachLayout) ([]model.SeatRecord, error)
}

type InventoryHandler struct {
	Inventory Inventory
	Log       logrus.FieldLogger
}

func NewInventoryHandler(inv Inventory, log logrus.FieldLogger) *InventoryHandler {
	if inv == nil {
		panic("nil inventory passed to NewInventoryHandler")
	}
	return &InventoryHandler{Inventory: inv, Log: log}
}

// ListSeats handles GET /v1/schedules/:id/seats.
func (h *InventoryHandler) ListSeats(c echo.Context) error {
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	seats, err := h.Inventory.ListSeats(c.Request().Context(), scheduleID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if seats == nil {
		seats = []model.SeatRecord{}
	}
	return c.JSON(http.StatusOK, echo.Map{"schedule_id": scheduleID, "seats": seats})
}

type coachLayoutRequest struct {
	CoachNumber int    `json:"coach_number" validate:"required,gt=0"`
	ClassType   string `json:"class_type" validate:"required,max=32"`
	Rows        int    `json:"rows" validate:"required,gt=0"`
	Columns     int    `json:"columns" validate:"required,gt=0"`
}

type provisionRequest struct {
	Coaches []coachLayoutRequest `json:"coaches" validate:"required,min=1,dive"`
}

// ProvisionSeats handles POST /v1/schedules/:id/seats.  A schedule is
// provisioned once; a second call gets 409.
func (h *InventoryHandler) ProvisionSeats(c echo.Context) error {
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var req provisionRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	layouts := make([]service.CoachLayout, 0, len(req.Coaches))
	for _, co := range req.Coaches {
		layouts = append(layouts, service.CoachLayout{
			CoachNumber: co.CoachNumber,
			ClassType:   co.ClassType,
			Rows:        co.Rows,
			Columns:     co.Columns,
		})
	}
	seats, err := h.Inventory.ProvisionSeats(c.Request().Context(), scheduleID, layouts)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"schedule_id": scheduleID, "created": len(seats), "seats": seats})
}

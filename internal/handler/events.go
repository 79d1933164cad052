package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/repository"
)

// EventHandler serves studio events and sign-ups.
type EventHandler struct {
	Events *repository.EventRepo
	Now    func() time.Time
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: events}
}

type eventView struct {
	model.Event
	Date string `json:"date"`
}

// List returns upcoming events.
func (h *EventHandler) List(c echo.Context) error {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Events.ListUpcoming(ctx, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]eventView, 0, len(list))
	for _, e := range list {
		out = append(out, eventView{Event: e, Date: e.Date.Format(repository.DateLayout)})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// Register signs the token's student up for an event.
func (h *EventHandler) Register(c echo.Context) error {
	id := identityFrom(c)
	if !id.Resolved() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Authentication required"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Events.Register(ctx, id.UserID, eventID); {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Registered for event"})
	case errors.Is(err, repository.ErrAlreadyRegistered):
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "Already registered for this event"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Event not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Registration failed"})
	}
}

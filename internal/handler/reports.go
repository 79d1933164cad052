package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-booking/internal/repository"
)

// ReportHandler exposes the read-only analytics queries.
type ReportHandler struct {
	Reports *repository.ReportRepo
}

func NewReportHandler(r *repository.ReportRepo) *ReportHandler { return &ReportHandler{Reports: r} }

// TopSpenders ranks students by total spend.  ?limit overrides the default
// of 50.
func (h *ReportHandler) TopSpenders(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	rows, err := h.Reports.TopSpenders(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

// ClassUtilization reports booked seats per class and the daily rank.
func (h *ReportHandler) ClassUtilization(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	rows, err := h.Reports.ClassUtilization(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

// TrainingPopularityMonthly ranks trainings by bookings within each month.
func (h *ReportHandler) TrainingPopularityMonthly(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	rows, err := h.Reports.TrainingPopularityMonthly(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

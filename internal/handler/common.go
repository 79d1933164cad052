package handler // handler defines http handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-booking/internal/middleware"
	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/service"
)

// identityFrom builds the booking identity from the verified token only.
// Anything else in the request (body, query) is never consulted.
func identityFrom(c echo.Context) service.Identity {
	id, role, ok := middleware.SubjectFrom(c)
	if !ok {
		return service.Identity{}
	}
	return service.Identity{UserID: id, Role: role}
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	return id, err == nil && id > 0
}

// bookingStatus maps a booking outcome to its HTTP status.
func bookingStatus(code model.BookingCode) int {
	switch code {
	case "", model.CodeOK:
		return http.StatusOK
	case model.CodeAlreadyBooked, model.CodeClassFull:
		return http.StatusConflict
	case model.CodeClassNotFound, model.CodeNotBooked:
		return http.StatusNotFound
	case model.CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}

// writeBookingResult renders res with its status.  Retryable failures carry
// Retry-After so clients back off before repeating the request.
func writeBookingResult(c echo.Context, res service.Result) error {
	if res.Code.Retryable() {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(bookingStatus(res.Code), res)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-booking/internal/handler"
	"github.com/iliyamo/studio-booking/internal/middleware"
	"github.com/iliyamo/studio-booking/internal/model"
)

// RegisterStudent registers the student endpoints under /v1.
//
// Booking and event sign-up only parse the token when present: the handlers
// answer an anonymous or non-student caller with the UNAUTHENTICATED result
// instead of the generic 401 body.
func RegisterStudent(e *echo.Echo, classes *handler.ClassHandler, events *handler.EventHandler, jwtSecret string) {
	opt := e.Group("/v1", middleware.OptionalJWT(jwtSecret))
	opt.POST("/classes/:id/book", classes.Book)
	opt.DELETE("/classes/:id/book", classes.Cancel)
	opt.POST("/events/:id/register", events.Register)

	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	)
	g.GET("/my-bookings", classes.MyBookings)
}

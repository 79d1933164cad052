package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-booking/internal/handler"
	"github.com/iliyamo/studio-booking/internal/middleware"
	"github.com/iliyamo/studio-booking/internal/model"
)

// RegisterInstructor registers instructor-only endpoints: scheduling classes
// and the studio reports.  Report responses pass through cache, which is
// the Redis response cache (a pass-through when Redis is unavailable).
func RegisterInstructor(e *echo.Echo, classes *handler.ClassHandler, reports *handler.ReportHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleInstructor),
	)
	g.POST("/classes", classes.Create)

	r := g.Group("/reports", cache)
	r.GET("/top-spenders", reports.TopSpenders)
	r.GET("/class-utilization", reports.ClassUtilization)
	r.GET("/training-pop-monthly", reports.TrainingPopularityMonthly)
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-booking/internal/handler"
	"github.com/iliyamo/studio-booking/internal/middleware"
	"github.com/iliyamo/studio-booking/internal/model"
)

// RegisterRoutes registers the unauthenticated probes.  /healthz answers
// while the process runs; /readyz also pings the database.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the account routes.  Everything under /v1/auth
// goes through limiter (the Redis token bucket); /v1/me requires a valid
// access token of either role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register-student", a.RegisterStudent)
	g.POST("/register-instructor", a.RegisterInstructor)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout works with either a refresh token in the body or a bearer token
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleUser, model.RoleInstructor))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers browse endpoints that need no token.
func RegisterPublic(e *echo.Echo, classes *handler.ClassHandler, events *handler.EventHandler) {
	e.GET("/v1/classes", classes.List)
	e.GET("/v1/classes/:id", classes.Get)
	e.GET("/v1/events", events.List)
}

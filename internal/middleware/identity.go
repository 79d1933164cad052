package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth and OptionalJWT.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// SubjectFrom returns the authenticated account id and role, and false
// when the request carries no verified token.
func SubjectFrom(c echo.Context) (uint64, string, bool) {
	id, ok := c.Get(ContextUserID).(uint64)
	if !ok || id == 0 {
		return 0, "", false
	}
	role, _ := c.Get(ContextRole).(string)
	return id, role, true
}

// currentUserID renders the subject for rate-limit keys; "anon" when the
// request is unauthenticated.
func currentUserID(c echo.Context) string {
	id, role, ok := SubjectFrom(c)
	if !ok {
		return "anon"
	}
	return role + "-" + strconv.FormatUint(id, 10)
}

package middleware

// Helpers that read the identity JWTAuth placed in the echo context.  JSON
// numbers decode as float64, so a numeric "sub" claim arrives that way;
// string subjects are accepted too.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Subject returns the authenticated user id, or false when the request is
// anonymous or the subject is not a positive integer.
func Subject(c echo.Context) (uint64, bool) {
	return subjectFrom(c.Get("user_id"))
}

// Role returns the role claim or "" when absent.
func Role(c echo.Context) string {
	s, _ := c.Get("role").(string)
	return s
}

func subjectFrom(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 && t == float64(uint64(t)) {
			return uint64(t), true
		}
	case int64:
		if t > 0 {
			return uint64(t), true
		}
	case int:
		if t > 0 {
			return uint64(t), true
		}
	case uint64:
		if t > 0 {
			return t, true
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// userKey identifies the caller for rate limiting.
func userKey(c echo.Context) string {
	if id, ok := Subject(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role names used across the application.
const (
	RoleSuperAdmin    = "super_admin"
	RoleHospitalAdmin = "hospital_admin"
	RoleDoctor        = "doctor"
	RoleNurse         = "nurse"
	RoleReceptionist  = "receptionist"
)

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles. Super admins pass every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range userRoles {
					if has == required || has == RoleSuperAdmin {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequireClinical is shorthand for endpoints restricted to clinical staff.
func RequireClinical() echo.MiddlewareFunc {
	return RequireRole(RoleDoctor, RoleNurse, RoleHospitalAdmin)
}

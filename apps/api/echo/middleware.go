package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/auth"
)

// claimsMiddleware lets through the callers whose claims satisfy `allowed`.
func claimsMiddleware(allowed func(ctx echo.Context, claims auth.Claims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(ctx, claims) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// adminMiddleware allows admins holding any of `roles` (any admin if empty).
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return claimsMiddleware(func(_ echo.Context, claims auth.Claims) bool {
		return claims.IsAdmin && claims.HasAnyRole(roles...)
	})
}

func staffMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(_ echo.Context, claims auth.Claims) bool {
		return claims.IsAdmin || claims.IsTeacher
	})
}

// staffOrOwnStudentMiddleware also lets a student through to their own `:id` resources.
func staffOrOwnStudentMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(ctx echo.Context, claims auth.Claims) bool {
		return claims.IsAdmin || claims.IsTeacher || (claims.IsStudent && claims.Subject == ctx.Param("id"))
	})
}

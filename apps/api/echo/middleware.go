package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// sessionMiddleware derives the read-only session of the request from the JWT claims.
// It must run after the JWT middleware.
func sessionMiddleware(validate *validator.Validate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			sess := claims.Session()
			if err := sess.Validate(validate); err != nil {
				return errInvalidToken
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

package middleware

import (
	"context"

	"calshare/core/constants"
	"calshare/core/controller"
	"calshare/core/errors"
	"calshare/core/utils"

	"github.com/labstack/echo/v4"
)

// TokenValidator is implemented by the auth service. It checks the blacklist
// and parses the token in one step.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*utils.TokenClaims, *errors.AppError)
}

type Middleware struct {
	authService TokenValidator
	base        controller.BaseController
}

func NewMiddleware(authService TokenValidator) *Middleware {
	return &Middleware{
		authService: authService,
		base:        controller.NewBaseController(),
	}
}

// AuthMiddleware authenticates the request and stores the token claims under
// constants.ContextTokenData for downstream handlers.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := utils.GetTokenFromHeader(c)
			if err != nil {
				return m.base.Unauthorized(errors.ErrMissingAuthorizationHeader, "Missing or malformed authorization header", nil)
			}

			claims, appErr := m.authService.ValidateAccessToken(c.Request().Context(), token)
			if appErr != nil {
				return m.base.Unauthorized(appErr.Code, appErr.Message, nil)
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// RequestID attaches a short random id to every request for log correlation.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = utils.GenerateID()
			}
			c.Set(constants.ContextRequestID, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

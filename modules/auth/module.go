package auth

import (
	"calshare/core/middleware"
	"calshare/modules/auth/controller"
	"calshare/modules/auth/router"
	"calshare/modules/auth/service"

	"github.com/labstack/echo/v4"
)

// Init registers the auth routes. The service is built by the caller because
// it also backs the auth middleware's token validation.
func Init(g *echo.Group, svc *service.AuthService, mw *middleware.Middleware) {
	ctrl := controller.NewAuthController(svc)
	r := router.NewAuthRouter(ctrl)

	r.Register(g, mw)
}

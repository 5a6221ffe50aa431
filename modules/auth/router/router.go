package router

import (
	"calshare/core/middleware"
	"calshare/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	controller *controller.AuthController
}

func NewAuthRouter(controller *controller.AuthController) *AuthRouter {
	return &AuthRouter{controller: controller}
}

func (r *AuthRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	auth := g.Group("/auth")

	auth.POST("/register", r.controller.Register)
	auth.POST("/login", r.controller.Login)
	auth.POST("/refresh", r.controller.RefreshToken)
	auth.POST("/logout", r.controller.Logout)

	me := auth.Group("/me")
	me.Use(mw.AuthMiddleware())
	me.GET("", r.controller.GetMe)

	users := g.Group("/users")
	users.Use(mw.AuthMiddleware())
	users.GET("/search", r.controller.SearchUsers)
}

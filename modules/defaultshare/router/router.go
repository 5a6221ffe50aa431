package router

import (
	"calshare/core/middleware"
	"calshare/modules/defaultshare/controller"

	"github.com/labstack/echo/v4"
)

type DefaultShareRouter struct {
	controller *controller.DefaultShareController
}

func NewDefaultShareRouter(controller *controller.DefaultShareController) *DefaultShareRouter {
	return &DefaultShareRouter{controller: controller}
}

func (r *DefaultShareRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	shares := g.Group("/labels/:label_id/default-shares")
	shares.Use(mw.AuthMiddleware())

	shares.POST("", r.controller.Create)
	shares.GET("", r.controller.List)
	shares.PUT("/:event_id", r.controller.Update)
	shares.DELETE("/:event_id", r.controller.Delete)
}

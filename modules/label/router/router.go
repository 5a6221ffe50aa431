package router

import (
	"calshare/core/middleware"
	"calshare/modules/label/controller"

	"github.com/labstack/echo/v4"
)

type LabelRouter struct {
	controller *controller.LabelController
}

func NewLabelRouter(controller *controller.LabelController) *LabelRouter {
	return &LabelRouter{controller: controller}
}

func (r *LabelRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	labels := g.Group("/labels")
	labels.Use(mw.AuthMiddleware())

	labels.POST("", r.controller.Create)
	labels.GET("", r.controller.List)
	labels.PUT("/:label_id", r.controller.Rename)
	labels.DELETE("/:label_id", r.controller.Delete)
}

package access

import (
	"calshare/core/database"
	"calshare/core/middleware"
	"calshare/modules/access/controller"
	"calshare/modules/access/repository"
	"calshare/modules/access/router"
	"calshare/modules/access/service"
	notifService "calshare/modules/notification/service"

	"github.com/labstack/echo/v4"
)

// Init wires the access module and returns the service and repository for use
// by the event, label and default-share modules.
func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, notificationService *notifService.NotificationService) (*service.AccessService, repository.AccessRepositoryInterface) {
	repo := repository.NewAccessRepository(db)
	svc := service.NewAccessService(&db, repo, notificationService)
	ctrl := controller.NewAccessController(svc)
	r := router.NewAccessRouter(ctrl)

	r.Register(g, mw)

	return svc, repo
}

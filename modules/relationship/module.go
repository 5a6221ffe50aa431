package relationship

import (
	"calshare/core/database"
	"calshare/core/middleware"
	labelRepo "calshare/modules/label/repository"
	notifService "calshare/modules/notification/service"
	"calshare/modules/relationship/controller"
	"calshare/modules/relationship/repository"
	"calshare/modules/relationship/router"
	"calshare/modules/relationship/service"

	"github.com/labstack/echo/v4"
)

// Init wires the relationship module. The repository is built by the caller
// because the label and default-share modules read label membership through it.
func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, repo repository.RelationshipRepositoryInterface, labels labelRepo.LabelRepositoryInterface, notificationService *notifService.NotificationService) *service.RelationshipService {
	svc := service.NewRelationshipService(&db, repo, labels, notificationService)
	ctrl := controller.NewRelationshipController(svc)
	r := router.NewRelationshipRouter(ctrl)

	r.Register(g, mw)

	return svc
}

package notification

import (
	"calshare/core/database"
	"calshare/core/middleware"
	"calshare/modules/notification/controller"
	"calshare/modules/notification/repository"
	"calshare/modules/notification/router"
	"calshare/modules/notification/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

func Init(e *echo.Group, db database.Database, mw *middleware.Middleware, queue *asynq.Client) *service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, queue)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Register(e, mw)

	return svc
}

package routes

import (
	"net/http"

	"StoryVault/handlers"
	"StoryVault/middlewares"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BodyLimit caps request bodies under /api. Snapshots are sent whole.
const BodyLimit = "32M"

// NewRouter builds the echo instance with every route and middleware.
func NewRouter(backupHandler *handlers.BackupHandler, jwtSecret []byte) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middlewares.ErrorHandler()

	e.Use(middlewares.RequestLogger())
	e.Use(middlewares.RecoveryMiddleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", middleware.BodyLimit(BodyLimit), middlewares.RequireAuth(jwtSecret))

	api.POST("/chats/:id/backup", backupHandler.BackupChat)
	api.POST("/groups/:id/backup", backupHandler.BackupGroupChat)
	api.POST("/chats/:id/archive", backupHandler.ArchiveChat)
	api.POST("/groups/:id/archive", backupHandler.ArchiveGroupChat)

	api.POST("/backups/verify", backupHandler.Verify)
	api.POST("/backups/restore", backupHandler.Restore)

	api.GET("/archives", backupHandler.ListArchives)
	api.POST("/archives/:id/restore", backupHandler.RestoreArchive)
	api.DELETE("/archives/:id", backupHandler.DeleteArchive)

	return e
}

package router

import (
	"tripmatch/internal/middleware"
	"tripmatch/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetRankRoutes(api *echo.Group, handler *rest.RankHandler) {
	api.POST("/rank", handler.Rank)
}

func SetEventRoutes(api *echo.Group, handler *rest.EventHandler) {
	events := api.Group("/events", middleware.AuthMiddleware())
	events.POST("", handler.LogImpression)
}

func SetAdminRoutes(api *echo.Group, handler *rest.AdminHandler) {
	admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.GET("/weights/active", handler.GetActiveWeights)
	admin.GET("/weights/history", handler.GetWeightHistory)
	admin.POST("/weights/rollback", handler.RollbackWeights)
	admin.POST("/training/run", handler.RunTraining)
	admin.GET("/training/state", handler.GetTrainingState)
}

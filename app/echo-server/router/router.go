package router

import (
	"shopsense/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupRecommendationRoutes(api *echo.Group, recommendHandler *rest.RecommendHandler, trendingHandler *rest.TrendingHandler, apiKeyAuth echo.MiddlewareFunc) {
	api.POST("/recommendations", recommendHandler.Recommend, apiKeyAuth)
	api.GET("/trending", trendingHandler.Trending, apiKeyAuth)
}

func SetupTrackingRoutes(api *echo.Group, handler *rest.TrackHandler, apiKeyAuth echo.MiddlewareFunc) {
	api.POST("/track", handler.Track, apiKeyAuth)
}

func SetupExperimentAdminRoutes(api *echo.Group, handler *rest.ExperimentAdminHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin/experiments", authRequired, adminOnly)

	admin.POST("", handler.Create)
	admin.GET("/:id", handler.Get)
	admin.POST("/:id/activate", handler.Activate)
	admin.POST("/:id/pause", handler.Pause)
	admin.POST("/:id/complete", handler.Complete)
	admin.GET("/:id/results", handler.Results)
	admin.GET("/:id/significance", handler.Significance)
}

func SetupCatalogAdminRoutes(api *echo.Group, handler *rest.CatalogAdminHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin/products", authRequired, adminOnly)

	admin.PUT("", handler.Upsert)
}

func SetupDigestRoutes(api *echo.Group, handler *rest.DigestHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin/digest", authRequired, adminOnly)

	admin.POST("", handler.Send)
}

package router

import (
	"github.com/gouqi/novelai-bot/controller"
	"github.com/gouqi/novelai-bot/middleware"
	"github.com/gouqi/novelai-bot/monitor"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func SetApiRouter(router *gin.Engine) {
	router.Use(middleware.CORS())
	apiRouter := router.Group("/api")
	apiRouter.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		apiRouter.GET("/status", controller.GetStatus)
		apiRouter.GET("/monitor/health", controller.GetHealth)
		apiRouter.GET("/monitor/metrics", gin.WrapH(monitor.Handler()))

		adminRoute := apiRouter.Group("/")
		adminRoute.Use(middleware.AdminAuth())
		{
			adminRoute.GET("/option", controller.GetOptions)
			adminRoute.PUT("/option", controller.UpdateOption)
			adminRoute.GET("/log", controller.GetLogs)
		}
	}
}

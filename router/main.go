package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/common/logger"
)

func SetRouter(router *gin.Engine) {
	SetApiRouter(router)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "not found",
		})
	})
	logger.SysLog("admin api enabled at /api")
}

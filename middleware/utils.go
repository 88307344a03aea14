package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/common/helper"
	"github.com/gouqi/novelai-bot/common/logger"
)

func abortWithMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"message": helper.MessageWithRequestId(message, c.GetString(logger.RequestIdKey)),
	})
	c.Abort()
	logger.Warn(c.Request.Context(), message)
}

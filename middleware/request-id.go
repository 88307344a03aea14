package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/common/helper"
	"github.com/gouqi/novelai-bot/common/logger"
)

const maxRequestIdLength = 64

// RequestId 沿用调用方的 X-Request-ID，过长或缺失时重新生成
func RequestId() func(c *gin.Context) {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIdKey)
		if id == "" || len(id) > maxRequestIdLength {
			id = helper.GenRequestID()
		}
		c.Set(logger.RequestIdKey, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIdKey, id))
		c.Header(logger.RequestIdKey, id)
		c.Next()
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/common/config"
)

// AdminAuth 校验 Authorization: Bearer <ADMIN_TOKEN>，未配置 ADMIN_TOKEN 时管理接口不可用
func AdminAuth() func(c *gin.Context) {
	return func(c *gin.Context) {
		if config.AdminToken == "" {
			abortWithMessage(c, http.StatusForbidden, "admin api is disabled, set ADMIN_TOKEN to enable it")
			return
		}
		accessToken := strings.TrimPrefix(c.Request.Header.Get("Authorization"), "Bearer ")
		if accessToken == "" {
			abortWithMessage(c, http.StatusUnauthorized, "Not authorized for this operation, no access token provided")
			return
		}
		if subtle.ConstantTimeCompare([]byte(accessToken), []byte(config.AdminToken)) != 1 {
			abortWithMessage(c, http.StatusUnauthorized, "Not authorized to perform this operation, access token is invalid")
			return
		}
		c.Next()
	}
}

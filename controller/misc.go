package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/common"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/monitor"
)

// BotStatus 由 main 注入，返回 OneBot 连接状态与机器人 QQ 号
var BotStatus = func() (connected bool, selfID string) {
	return false, ""
}

func GetStatus(c *gin.Context) {
	connected, selfID := BotStatus()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"version":          common.Version,
			"start_time":       common.StartTime,
			"system_name":      config.SystemName,
			"onebot_connected": connected,
			"self_id":          selfID,
		},
	})
}

func GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"metrics": monitor.GetSnapshot(),
	})
}

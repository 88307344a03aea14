package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/common/logger"
)

// AccessLogEntry 管理接口访问日志，JSON 一行一条
type AccessLogEntry struct {
	Ts        string `json:"ts"`
	Level     string `json:"level"`
	RequestId string `json:"request_id"`
	Status    int    `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	ClientIP  string `json:"client_ip"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Service   string `json:"service"`
	Instance  string `json:"instance"`
}

func accessLogLevel(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "warn"
	}
	return "info"
}

// SetUpLogger 默认只记录非 2xx 请求，调试模式下全部记录，健康检查不记录
func SetUpLogger(server *gin.Engine) {
	server.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/monitor/health"},
		Formatter: func(param gin.LogFormatterParams) string {
			if param.StatusCode < 300 && !config.DebugEnabled {
				return ""
			}
			requestID, _ := param.Keys[logger.RequestIdKey].(string)
			entry := AccessLogEntry{
				Ts:        param.TimeStamp.Format(time.RFC3339Nano),
				Level:     accessLogLevel(param.StatusCode),
				RequestId: requestID,
				Status:    param.StatusCode,
				LatencyMs: param.Latency.Milliseconds(),
				ClientIP:  param.ClientIP,
				Method:    param.Method,
				Path:      param.Path,
				Service:   config.ServiceName,
				Instance:  config.InstanceId,
			}
			jsonBytes, err := json.Marshal(entry)
			if err != nil {
				return `{"level":"error","msg":"access log marshal error"}` + "\n"
			}
			return string(jsonBytes) + "\n"
		},
	}))
}

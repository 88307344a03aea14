package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/bot"
	"github.com/gouqi/novelai-bot/common"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/common/logger"
	"github.com/gouqi/novelai-bot/controller"
	"github.com/gouqi/novelai-bot/middleware"
	"github.com/gouqi/novelai-bot/model"
	"github.com/gouqi/novelai-bot/onebot"
	"github.com/gouqi/novelai-bot/relay/channel/novelai"
	"github.com/gouqi/novelai-bot/router"
	"github.com/gouqi/novelai-bot/service"
)

// monitorGoroutines 定期监控 goroutine 数量
func monitorGoroutines() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		count := runtime.NumGoroutine()
		if count > 5000 {
			logger.SysError(fmt.Sprintf("⚠️ High goroutine count detected: %d", count))
		} else if count > 2000 {
			logger.SysLog(fmt.Sprintf("⚠️ Goroutine count elevated: %d", count))
		} else if config.DebugEnabled {
			logger.SysLog(fmt.Sprintf("Goroutine count: %d, command workers: %s", count, common.CommandPoolWorkers()))
		}
	}
}

func newDeduper() onebot.Deduper {
	if common.RedisEnabled {
		logger.SysLog("using redis for message dedup")
		return &onebot.RedisDeduper{Client: common.RDB, TTL: config.OneBotDedupTTL, Prefix: "onebot:msg:"}
	}
	return onebot.NewRingDeduper(1024)
}

func registerCommands(commander *bot.Commander, base *service.Base) error {
	nai, err := controller.NewNovelAI(base, nil)
	if err != nil {
		return err
	}
	for _, cmd := range []*bot.Command{
		nai.Command(),
		controller.DemoCommand(base),
		controller.HelpCommand(commander),
	} {
		if err := commander.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	common.Init()
	logger.SetupLogger()
	logger.SysLog(fmt.Sprintf("NovelAI Bot %s started", common.Version))
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.DebugEnabled {
		logger.SysLog("running in debug mode")
	}

	var err error
	model.DB, err = model.InitDB("SQL_DSN")
	if err != nil {
		logger.FatalLog("failed to initialize database: " + err.Error())
	}
	defer func() {
		err := model.CloseDB()
		if err != nil {
			logger.FatalLog("failed to close database: " + err.Error())
		}
	}()

	err = common.InitRedisClient()
	if err != nil {
		logger.FatalLog("failed to initialize Redis: " + err.Error())
	}

	model.InitOptionMap()
	go model.SyncOptions(config.SyncFrequency)

	downloadClient, err := service.NewProxyHttpClient("", config.DownloadTimeout)
	if err != nil {
		logger.FatalLog("failed to create download client: " + err.Error())
	}
	base := &service.Base{Client: downloadClient}
	if model.GetSettings().TranslateModel == novelai.TranslateYD && base.Translator == nil {
		logger.SysError("translate_model is translator_yd but no translator is configured, prompts containing Chinese will fail")
	}

	commander := bot.NewCommander()
	if err := registerCommands(commander, base); err != nil {
		logger.FatalLog("failed to register commands: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := onebot.NewClient(config.OneBotWSURL, config.OneBotAccessToken, commander, newDeduper())
	client.ReconnectInterval = time.Duration(config.OneBotReconnectInterval) * time.Second
	client.APITimeout = config.OneBotAPITimeout
	if err := client.Start(ctx); err != nil {
		logger.FatalLog("failed to start onebot client: " + err.Error())
	}
	defer client.Stop()
	controller.BotStatus = func() (bool, string) {
		selfID := ""
		if id := client.SelfID(); id != 0 {
			selfID = strconv.FormatInt(id, 10)
		}
		return client.Connected(), selfID
	}

	go monitorGoroutines()

	server := gin.New()
	server.Use(middleware.PanicRecover())
	server.Use(middleware.RequestId())
	middleware.SetUpLogger(server)
	router.SetRouter(server)

	var port = os.Getenv("PORT")
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	go func() {
		if err := server.Run(":" + port); err != nil {
			logger.FatalLog("failed to start HTTP server: " + err.Error())
		}
	}()

	<-ctx.Done()
	logger.SysLog("shutting down")
}

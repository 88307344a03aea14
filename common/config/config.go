package config

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gouqi/novelai-bot/common/env"
)

var SystemName = "NovelAI Bot"
var ServiceName = env.String("SERVICE_NAME", "novelai-bot")
var InstanceId = env.String("INSTANCE_ID", uuid.New().String()[:8])

// Any options with "Secret", "Token" in its key won't be returned in plain text by the option API

var OptionMap map[string]string
var OptionMapRWMutex sync.RWMutex

var DebugEnabled = env.Bool("DEBUG", false)
var DebugSQLEnabled = env.Bool("DEBUG_SQL", false)

var SyncFrequency = env.Int("SYNC_FREQUENCY", 60) // unit is second

var AdminToken = os.Getenv("ADMIN_TOKEN")

// OneBot forward websocket
var (
	OneBotWSURL             = env.String("ONEBOT_WS_URL", "ws://127.0.0.1:3001")
	OneBotAccessToken       = os.Getenv("ONEBOT_ACCESS_TOKEN")
	OneBotReconnectInterval = env.Int("ONEBOT_RECONNECT_INTERVAL", 10) // unit is second, 0 disables reconnect
	OneBotAPITimeout        = time.Duration(env.Int("ONEBOT_API_TIMEOUT", 8)) * time.Second
	OneBotDedupTTL          = time.Duration(env.Int("ONEBOT_DEDUP_TTL", 120)) * time.Second
)

// 生成请求走的代理，支持 http/https/socks5
var NovelAIProxy = os.Getenv("NOVELAI_PROXY")

// 生成请求超时，默认 990 秒
var RelayTimeout = time.Duration(env.Int("RELAY_TIMEOUT", 990)) * time.Second

var DownloadTimeout = time.Duration(env.Int("DOWNLOAD_TIMEOUT", 60)) * time.Second

// 交互式指令等待用户输入的时间
var PromptTimeout = 20 * time.Second

// 敏感词配置（一行一个关键词，忽略大小写）
var SensitiveWords = `nsfw
nude
naked
nipples
sex
hentai
涩图
色图`

package bot

import (
	"context"
	"time"

	"github.com/gouqi/novelai-bot/common/image"
)

type Author struct {
	UserID   string
	Nickname string
}

type StrangerInfo struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// Session 一次消息事件的上下文
type Session interface {
	UserID() string
	ChannelID() string
	Author() Author
	Send(ctx context.Context, fragment Fragment) error
	// Prompt 等待同一用户在同一频道的下一条消息，超时返回空 Fragment
	Prompt(ctx context.Context, timeout time.Duration) (Fragment, error)
	Bot() Bot
}

type Bot interface {
	GetStrangerInfo(ctx context.Context, userID string) (*StrangerInfo, error)
}

type SensitiveChecker interface {
	HasSensitiveWords(text string) bool
}

type TextMerger interface {
	GetMergedText(fragment Fragment) string
}

type AvatarFetcher interface {
	GetAvatar64(ctx context.Context, userID string) (*image.Image, error)
}

type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Base 宿主提供的公共能力
type Base interface {
	SensitiveChecker
	TextMerger
	AvatarFetcher
	HasChinese(text string) bool
	TranslateYD(ctx context.Context, text string) (string, error)
}

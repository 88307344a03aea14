package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gouqi/novelai-bot/bot"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/common/image"
	"github.com/pkg/errors"
)

const AvatarURLFormat = "https://q1.qlogo.cn/g?b=qq&nk=%s&s=640"

// Base 指令依赖的公共能力：敏感词、文本合并、头像、翻译
type Base struct {
	Client     *http.Client
	Translator bot.Translator
	// AvatarURLFormat 为空时使用 QQ 头像地址
	AvatarURLFormat string
	// SensitiveWords 为空时读取 config.SensitiveWords
	SensitiveWords func() string
}

var _ bot.Base = (*Base)(nil)

func sensitiveWords() string {
	config.OptionMapRWMutex.RLock()
	defer config.OptionMapRWMutex.RUnlock()
	return config.SensitiveWords
}

func (b *Base) HasSensitiveWords(text string) bool {
	words := sensitiveWords
	if b.SensitiveWords != nil {
		words = b.SensitiveWords
	}
	keywords := words()
	if keywords == "" {
		return false
	}
	message := strings.ToLower(text)
	for _, keyword := range strings.Split(keywords, "\n") {
		keyword = strings.TrimSpace(strings.ToLower(keyword))
		if keyword != "" && strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}

// GetMergedText 拼接所有文本元素，图片和 at 不参与
func (b *Base) GetMergedText(fragment bot.Fragment) string {
	var builder strings.Builder
	for _, e := range bot.Select(fragment, bot.TypeText) {
		builder.WriteString(e.Attr("content"))
	}
	return strings.TrimSpace(builder.String())
}

func (b *Base) HasChinese(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func (b *Base) GetAvatar64(ctx context.Context, userID string) (*image.Image, error) {
	format := b.AvatarURLFormat
	if format == "" {
		format = AvatarURLFormat
	}
	img, err := image.Download(ctx, b.Client, fmt.Sprintf(format, userID), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "get avatar of %s", userID)
	}
	return img, nil
}

func (b *Base) TranslateYD(ctx context.Context, text string) (string, error) {
	if b.Translator == nil {
		return "", errors.WithStack(ErrTranslatorUnavailable)
	}
	translated, err := b.Translator.Translate(ctx, text)
	if err != nil {
		return "", errors.Wrap(err, "translate")
	}
	return translated, nil
}

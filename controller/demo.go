package controller

import (
	"context"
	"strings"

	"github.com/gouqi/novelai-bot/bot"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/common/logger"
)

const replyRude = "粗口"

// DemoCommand 先后等待标题和图片，再原样发回
func DemoCommand(base bot.TextMerger) *bot.Command {
	return &bot.Command{
		Name: "反正就是一个指令",
		Handler: func(ctx context.Context, argv *bot.Argv) (bot.Fragment, error) {
			session := argv.Session
			if err := session.Send(ctx, text("请输入标题")); err != nil {
				return nil, err
			}
			title, err := session.Prompt(ctx, config.PromptTimeout)
			if err != nil {
				return nil, err
			}
			if isBlank(base, title) {
				return text(replyRude), nil
			}

			if err := session.Send(ctx, text("请输入图片")); err != nil {
				return nil, err
			}
			reply, err := session.Prompt(ctx, config.PromptTimeout)
			if err != nil {
				return nil, err
			}
			images := bot.Select(reply, bot.TypeImage)
			if len(images) == 0 {
				return text(replyRude), nil
			}
			logger.Infof(ctx, "demo image: %s", images[0].Attr("src"))
			return append(bot.Fragment{bot.Image(images[0].Attr("src"))}, title...), nil
		},
	}
}

// isBlank 只有空白文本时才算空，图片等元素都算有内容
func isBlank(base bot.TextMerger, fragment bot.Fragment) bool {
	for _, e := range fragment {
		if e.Type != bot.TypeText {
			return false
		}
	}
	return strings.TrimSpace(base.GetMergedText(fragment)) == ""
}

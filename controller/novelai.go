package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gouqi/novelai-bot/bot"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/common/helper"
	"github.com/gouqi/novelai-bot/common/image"
	"github.com/gouqi/novelai-bot/common/logger"
	"github.com/gouqi/novelai-bot/model"
	"github.com/gouqi/novelai-bot/monitor"
	"github.com/gouqi/novelai-bot/relay/channel/novelai"
	"github.com/gouqi/novelai-bot/service"
)

const (
	replyNoToken        = "没有token"
	replySensitive      = "不可以涩涩！"
	replyImageForbidden = "不允许输入图片"
	replyDownloadError  = "Download error"
	replyProgress       = "很快很快..."
	replyErrorPrefix    = "发生错误: "
	maxErrorReplyLength = 200
)

// NovelAI nai-img 指令
type NovelAI struct {
	Base bot.Base
	// Translator 为 default_translator 使用的翻译器，可为空
	Translator     bot.Translator
	Builder        *novelai.Builder
	Adaptor        *novelai.Adaptor
	DownloadClient *http.Client
	Settings       func() novelai.Settings
}

// NewNovelAI 使用进程配置创建下载与生成所需的 HTTP 客户端
func NewNovelAI(base bot.Base, translator bot.Translator) (*NovelAI, error) {
	relayClient, err := service.NewProxyHttpClient(config.NovelAIProxy, config.RelayTimeout)
	if err != nil {
		return nil, err
	}
	downloadClient, err := service.NewProxyHttpClient("", config.DownloadTimeout)
	if err != nil {
		return nil, err
	}
	return &NovelAI{
		Base:           base,
		Translator:     translator,
		Builder:        novelai.NewBuilder(),
		Adaptor:        &novelai.Adaptor{Client: relayClient, Timeout: config.RelayTimeout},
		DownloadClient: downloadClient,
		Settings:       model.GetSettings,
	}, nil
}

func (n *NovelAI) Command() *bot.Command {
	return &bot.Command{
		Name:        "nai-img",
		Aliases:     []string{"设计"},
		Description: "NovelAI 画图",
		Options: []bot.OptionSpec{
			{Name: "s", Short: "s", Description: "strength"},
			{Name: "strength", Description: "strength，越高 ai 发挥的空间就越多"},
		},
		Handler: n.GenerateImage,
	}
}

func (n *NovelAI) settings() novelai.Settings {
	if n.Settings == nil {
		return model.GetSettings()
	}
	return n.Settings()
}

// strengthOverride --strength 优先于 -s
func strengthOverride(argv *bot.Argv) novelai.Override[float64] {
	override := novelai.None[float64]()
	if v, ok := argv.Option("s"); ok {
		override = novelai.Some(novelai.ParseStrength(v))
	}
	if v, ok := argv.Option("strength"); ok {
		override = novelai.Some(novelai.ParseStrength(v))
	}
	return override
}

func (n *NovelAI) GenerateImage(ctx context.Context, argv *bot.Argv) (bot.Fragment, error) {
	monitor.IncrementConcurrent()
	defer monitor.DecrementConcurrent()
	startTime := time.Now()

	session := argv.Session
	settings := n.settings()
	if settings.Token == "" {
		monitor.RecordGeneration(time.Since(startTime), monitor.OutcomeRejected)
		return text(replyNoToken), nil
	}

	merged := n.Base.GetMergedText(argv.Input)
	if n.Base.HasSensitiveWords(merged) {
		monitor.RecordGeneration(time.Since(startTime), monitor.OutcomeRejected)
		n.scold(ctx, session)
		return nil, nil
	}
	if !settings.AllowImage && len(bot.Select(argv.Input, bot.TypeImage)) > 0 {
		monitor.RecordGeneration(time.Since(startTime), monitor.OutcomeRejected)
		return nil, bot.NewSessionError(replyImageForbidden)
	}

	prompt, err := n.translate(ctx, settings, merged)
	if err != nil {
		monitor.RecordGeneration(time.Since(startTime), monitor.OutcomeTranslateError)
		return nil, err
	}

	img, err := n.resolveImage(ctx, argv.Input)
	if err != nil {
		logger.Errorf(ctx, "resolve input image failed: %+v", err)
		monitor.RecordGeneration(time.Since(startTime), monitor.OutcomeDownloadError)
		return text(replyDownloadError), nil
	}

	if err := session.Send(ctx, text(replyProgress)); err != nil {
		logger.Warnf(ctx, "send progress message failed: %s", err.Error())
	}

	req := n.Builder.Build(ctx, settings, novelai.BuildInput{Prompt: prompt, Image: img, Strength: strengthOverride(argv)})
	result, err := n.Adaptor.Submit(ctx, settings, req)

	generationLog := &model.Log{
		UserId:    session.UserID(),
		ChannelId: session.ChannelID(),
		ModelName: req.Model,
		Action:    req.Action,
		Prompt:    req.Input,
		Success:   err == nil,
		Duration:  time.Since(startTime).Seconds(),
	}
	if req.Parameters.Strength != nil {
		generationLog.Strength = strconv.FormatFloat(req.Parameters.Strength.Float64(), 'f', -1, 64)
	}
	if err != nil {
		logger.Errorf(ctx, "novelai generate failed: %+v", err)
		generationLog.Content = err.Error()
		model.RecordGenerationLog(ctx, generationLog)
		monitor.RecordGeneration(time.Since(startTime), monitor.OutcomeUpstreamError)
		return text(replyErrorPrefix + helper.Truncate(err.Error(), maxErrorReplyLength)), nil
	}
	model.RecordGenerationLog(ctx, generationLog)
	monitor.RecordGeneration(time.Since(startTime), monitor.OutcomeSuccess)

	if width, height, format, err := image.DecodeConfig(result.Image); err == nil {
		logger.Debugf(ctx, "generated %s: %dx%d %s", result.Name, width, height, format)
	}

	if !settings.CollapseResponse {
		return bot.Fragment{bot.Image(result.DataURL)}, nil
	}
	author := session.Author()
	return bot.Fragment{bot.Figure(
		bot.Message(author.UserID, author.Nickname, bot.Text("prompts: "+req.Input)),
		bot.Message(author.UserID, author.Nickname, bot.Image(result.DataURL)),
	)}, nil
}

func (n *NovelAI) scold(ctx context.Context, session bot.Session) {
	message := replySensitive
	if b := session.Bot(); b != nil {
		if info, err := b.GetStrangerInfo(ctx, session.UserID()); err == nil {
			message = replySensitive + "打屎" + info.Nickname + "!!!"
		} else {
			logger.Warnf(ctx, "get stranger info failed: %s", err.Error())
		}
	}
	if err := session.Send(ctx, text(message)); err != nil {
		logger.Warnf(ctx, "send message failed: %s", err.Error())
	}
}

// translate default_translator 失败时沿用原文，translator_yd 只翻译含中文的文本
func (n *NovelAI) translate(ctx context.Context, settings novelai.Settings, merged string) (string, error) {
	switch settings.TranslateModel {
	case novelai.TranslateDefault:
		if n.Translator == nil {
			return merged, nil
		}
		translated, err := n.Translator.Translate(ctx, merged)
		if err != nil {
			logger.Warnf(ctx, "translate failed: %s", err.Error())
			return merged, nil
		}
		return translated, nil
	case novelai.TranslateYD:
		if !n.Base.HasChinese(merged) {
			return merged, nil
		}
		return n.Base.TranslateYD(ctx, merged)
	}
	return merged, nil
}

// resolveImage 优先取第一张图片，其次取第一个 at 用户的头像
func (n *NovelAI) resolveImage(ctx context.Context, input bot.Fragment) (*image.Image, error) {
	if images := bot.Select(input, bot.TypeImage); len(images) > 0 {
		return image.Download(ctx, n.DownloadClient, images[0].Attr("src"), nil)
	}
	if ats := bot.Select(input, bot.TypeAt); len(ats) > 0 {
		return n.Base.GetAvatar64(ctx, ats[0].Attr("id"))
	}
	return nil, nil
}

func text(content string) bot.Fragment {
	return bot.Fragment{bot.Text(content)}
}

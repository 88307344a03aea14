package controller

import (
	"context"

	"github.com/gouqi/novelai-bot/bot"
)

func HelpCommand(commander *bot.Commander) *bot.Command {
	return &bot.Command{
		Name:        "help",
		Aliases:     []string{"帮助"},
		Description: "显示指令列表",
		Handler: func(ctx context.Context, argv *bot.Argv) (bot.Fragment, error) {
			return text(commander.Help()), nil
		},
	}
}

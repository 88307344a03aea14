package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/gouqi/novelai-bot/common/logger"
	"github.com/pkg/errors"
)

// ReplyOnError 指令执行出错时的回复
const ReplyOnError = "发生错误"

type Handler func(ctx context.Context, argv *Argv) (Fragment, error)

type OptionSpec struct {
	Name        string
	Short       string
	Description string
}

type Command struct {
	Name        string
	Aliases     []string
	Description string
	Options     []OptionSpec
	Handler     Handler
}

func (c *Command) findOption(token string) (OptionSpec, bool) {
	for _, opt := range c.Options {
		if token == "--"+opt.Name || (opt.Short != "" && token == "-"+opt.Short) {
			return opt, true
		}
	}
	return OptionSpec{}, false
}

// Argv 一次指令调用的参数，Input 为去掉指令名和选项后剩余的内容
type Argv struct {
	Session Session
	Command *Command
	Options map[string]string
	Input   Fragment
}

func (a *Argv) Option(name string) (string, bool) {
	if a == nil || a.Options == nil {
		return "", false
	}
	v, ok := a.Options[name]
	return v, ok
}

type Commander struct {
	mu       sync.RWMutex
	commands []*Command
	index    map[string]*Command
}

func NewCommander() *Commander {
	return &Commander{index: make(map[string]*Command)}
}

func (c *Commander) Register(cmd *Command) error {
	if cmd == nil || cmd.Name == "" || cmd.Handler == nil {
		return errors.New("command name and handler are required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	names := append([]string{cmd.Name}, cmd.Aliases...)
	for _, name := range names {
		if _, ok := c.index[name]; ok {
			return errors.Errorf("command %s already registered", name)
		}
	}
	for _, name := range names {
		c.index[name] = cmd
	}
	c.commands = append(c.commands, cmd)
	return nil
}

func (c *Commander) Commands() []*Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*Command, len(c.commands))
	copy(result, c.commands)
	return result
}

// Match 首个元素必须是以指令名或别名开头的文本，名字后面只能是空白或结尾
func (c *Commander) Match(session Session, input Fragment) (*Argv, bool) {
	if len(input) == 0 || input[0].Type != TypeText {
		return nil, false
	}
	head := strings.TrimLeftFunc(input[0].Attr("content"), unicode.IsSpace)

	c.mu.RLock()
	var (
		matched *Command
		rest    string
		longest int
	)
	for name, cmd := range c.index {
		if len(name) <= longest || !strings.HasPrefix(head, name) {
			continue
		}
		remain := head[len(name):]
		if remain != "" && !startsWithSpace(remain) {
			continue
		}
		matched, rest, longest = cmd, remain, len(name)
	}
	c.mu.RUnlock()
	if matched == nil {
		return nil, false
	}

	options, rest := parseOptions(matched, rest)
	argv := &Argv{
		Session: session,
		Command: matched,
		Options: options,
	}
	if text := strings.TrimLeftFunc(rest, unicode.IsSpace); text != "" {
		argv.Input = append(argv.Input, Text(text))
	}
	argv.Input = append(argv.Input, input[1:]...)
	return argv, true
}

// Execute 匹配并执行指令，返回是否命中。SessionError 原样回复，其余错误回复 ReplyOnError
func (c *Commander) Execute(ctx context.Context, session Session, input Fragment) bool {
	argv, ok := c.Match(session, input)
	if !ok {
		return false
	}
	logger.Infof(ctx, "command %s from %s in %s", argv.Command.Name, session.UserID(), session.ChannelID())

	reply, err := argv.Command.Handler(ctx, argv)
	if err != nil {
		if sessionErr, ok := AsSessionError(err); ok {
			reply = Fragment{Text(sessionErr.Message)}
		} else {
			logger.Errorf(ctx, "command %s failed: %+v", argv.Command.Name, err)
			reply = Fragment{Text(ReplyOnError)}
		}
	}
	if len(reply) == 0 {
		return true
	}
	if err := session.Send(ctx, reply); err != nil {
		logger.Errorf(ctx, "send reply failed: %s", err.Error())
	}
	return true
}

// Help 列出已注册的指令
func (c *Commander) Help() string {
	commands := c.Commands()
	sort.Slice(commands, func(i, j int) bool { return commands[i].Name < commands[j].Name })
	var b strings.Builder
	b.WriteString("当前可用的指令有：")
	for _, cmd := range commands {
		b.WriteString("\n    " + cmd.Name)
		if len(cmd.Aliases) > 0 {
			b.WriteString(" (" + strings.Join(cmd.Aliases, ", ") + ")")
		}
		if cmd.Description != "" {
			b.WriteString("  " + cmd.Description)
		}
		for _, opt := range cmd.Options {
			flag := "--" + opt.Name
			if opt.Short != "" {
				flag = fmt.Sprintf("-%s, %s", opt.Short, flag)
			}
			b.WriteString("\n        " + flag + "  " + opt.Description)
		}
	}
	return b.String()
}

// parseOptions 只解析开头的选项，遇到第一个非选项的词即停止
func parseOptions(cmd *Command, text string) (map[string]string, string) {
	options := make(map[string]string)
	rest := text
	for {
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if !strings.HasPrefix(trimmed, "-") {
			return options, rest
		}
		token, after := nextToken(trimmed)
		name, value, hasValue := strings.Cut(token, "=")
		if !strings.HasPrefix(name, "--") {
			hasValue = false
			name = token
		}
		opt, ok := cmd.findOption(name)
		if !ok {
			return options, rest
		}
		if !hasValue {
			value, after = nextToken(strings.TrimLeftFunc(after, unicode.IsSpace))
		}
		options[opt.Name] = value
		rest = after
	}
}

func nextToken(s string) (string, string) {
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

func startsWithSpace(s string) bool {
	for _, r := range s {
		return unicode.IsSpace(r)
	}
	return false
}

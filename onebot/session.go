package onebot

import (
	"context"
	"strconv"
	"time"

	"github.com/gouqi/novelai-bot/bot"
)

type Session struct {
	client *Client
	event  *Event
}

var _ bot.Session = (*Session)(nil)

func newSession(client *Client, event *Event) *Session {
	return &Session{client: client, event: event}
}

func (s *Session) Event() *Event {
	return s.event
}

func (s *Session) UserID() string {
	return strconv.FormatInt(s.event.UserID, 10)
}

func (s *Session) ChannelID() string {
	return s.event.ChannelID()
}

func (s *Session) Author() bot.Author {
	return bot.Author{UserID: s.UserID(), Nickname: s.event.Nickname()}
}

func (s *Session) Send(ctx context.Context, fragment bot.Fragment) error {
	t := target{MessageType: s.event.MessageType, GroupID: s.event.GroupID, UserID: s.event.UserID}
	return s.client.send(ctx, t, fragment)
}

func (s *Session) Prompt(ctx context.Context, timeout time.Duration) (bot.Fragment, error) {
	return s.client.waitPrompt(ctx, s.promptKey(), timeout)
}

func (s *Session) Bot() bot.Bot {
	return s.client
}

func (s *Session) promptKey() string {
	return s.ChannelID() + "|" + s.UserID()
}

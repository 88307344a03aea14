package onebot

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gouqi/novelai-bot/bot"
	"github.com/pkg/errors"
)

const (
	MessageTypeGroup   = "group"
	MessageTypePrivate = "private"
)

type rawEvent struct {
	PostType      string          `json:"post_type"`
	MessageType   string          `json:"message_type"`
	SubType       string          `json:"sub_type"`
	MessageID     json.RawMessage `json:"message_id"`
	UserID        json.RawMessage `json:"user_id"`
	GroupID       json.RawMessage `json:"group_id"`
	SelfID        json.RawMessage `json:"self_id"`
	Time          json.RawMessage `json:"time"`
	RawMessage    string          `json:"raw_message"`
	Message       json.RawMessage `json:"message"`
	Sender        json.RawMessage `json:"sender"`
	MetaEventType string          `json:"meta_event_type"`
	Echo          json.RawMessage `json:"echo"`
}

type Sender struct {
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
}

// Event 归一化后的消息事件
type Event struct {
	MessageType string
	SubType     string
	MessageID   string
	UserID      int64
	GroupID     int64
	SelfID      int64
	Time        int64
	Sender      Sender
	RawMessage  string
	Fragment    bot.Fragment
}

// ChannelID 群聊为 group:<群号>，私聊为 private:<QQ号>
func (e *Event) ChannelID() string {
	if e.MessageType == MessageTypeGroup {
		return "group:" + strconv.FormatInt(e.GroupID, 10)
	}
	return "private:" + strconv.FormatInt(e.UserID, 10)
}

func (e *Event) Nickname() string {
	if e.Sender.Card != "" {
		return e.Sender.Card
	}
	return e.Sender.Nickname
}

func normalizeMessageEvent(raw *rawEvent) (*Event, error) {
	userID, err := parseJSONInt64(raw.UserID)
	if err != nil {
		return nil, errors.Wrapf(err, "parse user_id (raw: %s)", string(raw.UserID))
	}
	groupID, _ := parseJSONInt64(raw.GroupID)
	selfID, _ := parseJSONInt64(raw.SelfID)
	ts, _ := parseJSONInt64(raw.Time)

	var sender Sender
	if len(raw.Sender) > 0 {
		_ = json.Unmarshal(raw.Sender, &sender)
	}

	return &Event{
		MessageType: raw.MessageType,
		SubType:     raw.SubType,
		MessageID:   parseJSONString(raw.MessageID),
		UserID:      userID,
		GroupID:     groupID,
		SelfID:      selfID,
		Time:        ts,
		Sender:      sender,
		RawMessage:  raw.RawMessage,
		Fragment:    parseMessage(raw.Message, raw.RawMessage, selfID),
	}, nil
}

func parseJSONInt64(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(s, 10, 64)
	}
	return 0, fmt.Errorf("cannot parse as int64: %s", string(raw))
}

func parseJSONString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type segment struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// parseMessage 支持数组格式与 CQ 码字符串，@机器人自身、回复和未知消息段会被丢弃
func parseMessage(raw json.RawMessage, rawMessage string, selfID int64) bot.Fragment {
	if len(raw) == 0 {
		return parseCQMessage(rawMessage, selfID)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseCQMessage(s, selfID)
	}
	var segments []segment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return parseCQMessage(rawMessage, selfID)
	}

	selfIDStr := strconv.FormatInt(selfID, 10)
	var fragment bot.Fragment
	for _, seg := range segments {
		switch seg.Type {
		case "text":
			text, _ := seg.Data["text"].(string)
			fragment = appendText(fragment, text)
		case "at":
			if qq := dataString(seg.Data["qq"]); qq != selfIDStr && qq != "all" {
				fragment = append(fragment, bot.At(qq))
			}
		case "image":
			if src := imageSource(dataString(seg.Data["url"]), dataString(seg.Data["file"])); src != "" {
				fragment = append(fragment, bot.Image(src))
			}
		}
	}
	return fragment
}

var cqPattern = regexp.MustCompile(`\[CQ:([a-zA-Z0-9_]+)(?:,([^\]]*))?\]`)

func parseCQMessage(content string, selfID int64) bot.Fragment {
	matches := cqPattern.FindAllStringSubmatchIndex(content, -1)
	selfIDStr := strconv.FormatInt(selfID, 10)
	var fragment bot.Fragment
	cursor := 0
	for _, m := range matches {
		if m[0] > cursor {
			fragment = appendText(fragment, cqUnescape(content[cursor:m[0]]))
		}
		segType := content[m[2]:m[3]]
		paramsRaw := ""
		if m[4] >= 0 && m[5] >= 0 {
			paramsRaw = content[m[4]:m[5]]
		}
		params := parseCQParams(paramsRaw)
		switch segType {
		case "at":
			if qq := params["qq"]; qq != selfIDStr && qq != "all" {
				fragment = append(fragment, bot.At(qq))
			}
		case "image":
			if src := imageSource(params["url"], params["file"]); src != "" {
				fragment = append(fragment, bot.Image(src))
			}
		}
		cursor = m[1]
	}
	if cursor < len(content) {
		fragment = appendText(fragment, cqUnescape(content[cursor:]))
	}
	return fragment
}

func parseCQParams(params string) map[string]string {
	result := make(map[string]string)
	for _, item := range strings.Split(params, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		result[strings.TrimSpace(key)] = cqUnescape(strings.TrimSpace(value))
	}
	return result
}

var cqUnescaper = strings.NewReplacer("&#91;", "[", "&#93;", "]", "&#44;", ",", "&amp;", "&")

func cqUnescape(s string) string {
	return cqUnescaper.Replace(s)
}

// appendText 相邻的文本段合并为一个元素
func appendText(fragment bot.Fragment, text string) bot.Fragment {
	if text == "" {
		return fragment
	}
	if n := len(fragment); n > 0 && fragment[n-1].Type == bot.TypeText {
		fragment[n-1] = bot.Text(fragment[n-1].Attr("content") + text)
		return fragment
	}
	return append(fragment, bot.Text(text))
}

func imageSource(url, file string) string {
	if url != "" {
		return url
	}
	if strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://") {
		return file
	}
	return ""
}

func dataString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

package onebot

import (
	"strconv"

	"github.com/gouqi/novelai-bot/bot"
	"github.com/gouqi/novelai-bot/common/image"
)

// outgoing 一次发送对应的 OneBot API 调用
type outgoing struct {
	Action string
	Params map[string]any
}

type target struct {
	MessageType string
	GroupID     int64
	UserID      int64
}

func (t target) params() map[string]any {
	if t.MessageType == MessageTypeGroup {
		return map[string]any{"message_type": MessageTypeGroup, "group_id": t.GroupID}
	}
	return map[string]any{"message_type": MessageTypePrivate, "user_id": t.UserID}
}

// render 普通元素合并为一次 send_msg，figure 单独作为合并转发发送
func render(t target, fragment bot.Fragment) []outgoing {
	var (
		result  []outgoing
		pending []segment
	)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		params := t.params()
		params["message"] = pending
		result = append(result, outgoing{Action: "send_msg", Params: params})
		pending = nil
	}
	for _, e := range fragment {
		if e.Type != bot.TypeFigure {
			pending = append(pending, renderSegments(bot.Fragment{e})...)
			continue
		}
		flush()
		result = append(result, renderForward(t, e))
	}
	flush()
	return result
}

func renderForward(t target, figure bot.Element) outgoing {
	nodes := make([]segment, 0, len(figure.Children))
	for _, child := range figure.Children {
		if child.Type != bot.TypeMessage {
			continue
		}
		userID, _ := strconv.ParseInt(child.Attr("userId"), 10, 64)
		nodes = append(nodes, segment{Type: "node", Data: map[string]any{
			"user_id":  userID,
			"nickname": child.Attr("nickname"),
			"content":  renderSegments(child.Children),
		}})
	}
	if t.MessageType == MessageTypeGroup {
		return outgoing{Action: "send_group_forward_msg", Params: map[string]any{"group_id": t.GroupID, "messages": nodes}}
	}
	return outgoing{Action: "send_private_forward_msg", Params: map[string]any{"user_id": t.UserID, "messages": nodes}}
}

func renderSegments(fragment bot.Fragment) []segment {
	segments := make([]segment, 0, len(fragment))
	for _, e := range fragment {
		switch e.Type {
		case bot.TypeText:
			if content := e.Attr("content"); content != "" {
				segments = append(segments, segment{Type: "text", Data: map[string]any{"text": content}})
			}
		case bot.TypeImage:
			segments = append(segments, segment{Type: "image", Data: map[string]any{"file": imageFile(e.Attr("src"))}})
		case bot.TypeAt:
			segments = append(segments, segment{Type: "at", Data: map[string]any{"qq": e.Attr("id")}})
		case bot.TypeMessage, bot.TypeFigure:
			segments = append(segments, renderSegments(e.Children)...)
		}
	}
	return segments
}

// imageFile data URL 转为 OneBot 的 base64:// 形式
func imageFile(src string) string {
	if _, data, ok := image.FromDataURL(src); ok {
		return "base64://" + data
	}
	return src
}

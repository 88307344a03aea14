package onebot

import (
	"encoding/json"
	"testing"

	"github.com/gouqi/novelai-bot/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		rawMessage string
		want       bot.Fragment
	}{
		{
			name:    "数组格式",
			message: `[{"type":"text","data":{"text":"nai-img "}},{"type":"image","data":{"file":"abc.image","url":"https://gchat.qpic.cn/a"}}]`,
			want:    bot.Fragment{bot.Text("nai-img "), bot.Image("https://gchat.qpic.cn/a")},
		},
		{
			name:    "at 自己被移除，相邻文本合并",
			message: `[{"type":"at","data":{"qq":"999"}},{"type":"text","data":{"text":" nai-img"}},{"type":"text","data":{"text":" cat"}}]`,
			want:    bot.Fragment{bot.Text(" nai-img cat")},
		},
		{
			name:    "at 他人保留，数字 qq",
			message: `[{"type":"reply","data":{"id":"1"}},{"type":"text","data":{"text":"nai-img "}},{"type":"at","data":{"qq":12345}}]`,
			want:    bot.Fragment{bot.Text("nai-img "), bot.At("12345")},
		},
		{
			name:    "CQ 码字符串",
			message: `"nai-img [CQ:at,qq=12345] cat&#44; dog [CQ:image,file=x.jpg,url=https://example.com/x.jpg?a=1&amp;b=2]"`,
			want: bot.Fragment{
				bot.Text("nai-img "), bot.At("12345"), bot.Text(" cat, dog "),
				bot.Image("https://example.com/x.jpg?a=1&b=2"),
			},
		},
		{
			name:       "message 缺失时使用 raw_message",
			rawMessage: "nai-img [CQ:face,id=1]cat",
			want:       bot.Fragment{bot.Text("nai-img cat")},
		},
		{
			name:    "没有 url 的本地图片被忽略",
			message: `[{"type":"image","data":{"file":"/tmp/a.png"}}]`,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			if tt.message != "" {
				raw = json.RawMessage(tt.message)
			}
			assert.Equal(t, tt.want, parseMessage(raw, tt.rawMessage, 999))
		})
	}
}

func TestNormalizeMessageEvent(t *testing.T) {
	payload := `{
		"post_type": "message",
		"message_type": "group",
		"sub_type": "normal",
		"message_id": -2147483000,
		"user_id": "10001",
		"group_id": 20002,
		"self_id": 999,
		"time": 1700000000,
		"raw_message": "nai-img cat",
		"message": [{"type":"text","data":{"text":"nai-img cat"}}],
		"sender": {"user_id": 10001, "nickname": "alice", "card": "群名片"}
	}`
	var raw rawEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	evt, err := normalizeMessageEvent(&raw)
	require.NoError(t, err)
	assert.Equal(t, "-2147483000", evt.MessageID)
	assert.Equal(t, int64(10001), evt.UserID)
	assert.Equal(t, int64(20002), evt.GroupID)
	assert.Equal(t, int64(999), evt.SelfID)
	assert.Equal(t, "group:20002", evt.ChannelID())
	assert.Equal(t, "群名片", evt.Nickname())
	assert.Equal(t, bot.Fragment{bot.Text("nai-img cat")}, evt.Fragment)

	evt.MessageType = MessageTypePrivate
	evt.Sender.Card = ""
	assert.Equal(t, "private:10001", evt.ChannelID())
	assert.Equal(t, "alice", evt.Nickname())
}

func TestNormalizeMessageEventBadUserID(t *testing.T) {
	raw := rawEvent{PostType: "message", UserID: json.RawMessage(`{"x":1}`)}
	_, err := normalizeMessageEvent(&raw)
	assert.Error(t, err)
}

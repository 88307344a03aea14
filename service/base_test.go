package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gouqi/novelai-bot/bot"
	"github.com/gouqi/novelai-bot/common/image"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTranslator struct {
	out string
	err error
}

func (s stubTranslator) Translate(ctx context.Context, text string) (string, error) {
	return s.out, s.err
}

func TestHasSensitiveWords(t *testing.T) {
	base := &Base{SensitiveWords: func() string { return "nsfw\n  Nude \n\n涩图" }}
	tests := []struct {
		text string
		want bool
	}{
		{"a cute cat", false},
		{"NSFW cat", true},
		{"nude", true},
		{"来张涩图", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, base.HasSensitiveWords(tt.text))
		})
	}

	empty := &Base{SensitiveWords: func() string { return "" }}
	assert.False(t, empty.HasSensitiveWords("nsfw"))
}

func TestGetMergedText(t *testing.T) {
	base := &Base{}
	fragment := bot.Fragment{bot.Text(" cat, "), bot.Image("https://example.com/a.png"), bot.At("1"), bot.Text("cute ")}
	assert.Equal(t, "cat, cute", base.GetMergedText(fragment))
	assert.Equal(t, "", base.GetMergedText(nil))
}

func TestHasChinese(t *testing.T) {
	base := &Base{}
	assert.True(t, base.HasChinese("一只猫"))
	assert.True(t, base.HasChinese("cat 猫"))
	assert.False(t, base.HasChinese("cat"))
	assert.False(t, base.HasChinese("ねこ"))
}

func TestGetAvatar64(t *testing.T) {
	body := []byte("jpeg-bytes")
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RawQuery
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}))
	defer server.Close()

	base := &Base{Client: server.Client(), AvatarURLFormat: server.URL + "/g?nk=%s&s=640"}
	img, err := base.GetAvatar64(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "nk=12345&s=640", gotPath)
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, body, img.Buffer)
}

func TestGetAvatar64UnsupportedType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write([]byte("GIF89a"))
	}))
	defer server.Close()

	base := &Base{Client: server.Client(), AvatarURLFormat: server.URL + "/%s"}
	_, err := base.GetAvatar64(context.Background(), "1")
	assert.ErrorIs(t, err, image.ErrUnsupportedFileType)
}

func TestTranslateYD(t *testing.T) {
	ctx := context.Background()

	_, err := (&Base{}).TranslateYD(ctx, "猫")
	assert.ErrorIs(t, err, ErrTranslatorUnavailable)

	out, err := (&Base{Translator: stubTranslator{out: "cat"}}).TranslateYD(ctx, "猫")
	require.NoError(t, err)
	assert.Equal(t, "cat", out)

	_, err = (&Base{Translator: stubTranslator{err: errors.New("quota")}}).TranslateYD(ctx, "猫")
	assert.Error(t, err)
}

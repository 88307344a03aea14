package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"regexp"
	"sync"

	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

// 10M
const MaxContentSize = 10485760

var AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Image 下载得到的图片，只在一次指令调用内存活
type Image struct {
	Buffer   []byte
	Base64   string
	DataURL  string
	MimeType string
}

// Regex to match data URL pattern
var dataURLPattern = regexp.MustCompile(`^data:([^;]+);base64,(.*)$`)

// Download 下载图片并校验大小与类型。大小取自 content-length 响应头，
// 校验发生在完整读取之后，并不限制实际传输的字节数。
func Download(ctx context.Context, client *http.Client, url string, headers map[string]string) (*Image, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new download request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("download image: unexpected status code %d", resp.StatusCode)
	}
	buffer, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read image body")
	}

	if resp.ContentLength > MaxContentSize {
		return nil, errors.WithStack(ErrFileTooLarge)
	}
	mimeType := resp.Header.Get("Content-Type")
	if !IsAllowedType(mimeType) {
		return nil, errors.WithStack(ErrUnsupportedFileType)
	}
	return FromBytes(buffer, mimeType), nil
}

func FromBytes(buffer []byte, mimeType string) *Image {
	b64 := base64.StdEncoding.EncodeToString(buffer)
	return &Image{
		Buffer:   buffer,
		Base64:   b64,
		DataURL:  DataURL(mimeType, b64),
		MimeType: mimeType,
	}
}

func IsAllowedType(mimeType string) bool {
	for _, t := range AllowedTypes {
		if mimeType == t {
			return true
		}
	}
	return false
}

func DataURL(mimeType string, b64 string) string {
	return "data:" + mimeType + ";base64," + b64
}

// FromDataURL 解析 data URL，返回 mime 与 base64 数据
func FromDataURL(url string) (mimeType string, data string, ok bool) {
	matches := dataURLPattern.FindStringSubmatch(url)
	if len(matches) != 3 {
		return "", "", false
	}
	return matches[1], matches[2], true
}

var readerPool = sync.Pool{
	New: func() interface{} {
		return &bytes.Reader{}
	},
}

func DecodeConfig(buffer []byte) (width int, height int, format string, err error) {
	reader := readerPool.Get().(*bytes.Reader)
	defer readerPool.Put(reader)
	reader.Reset(buffer)

	cfg, format, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, "", err
	}
	return cfg.Width, cfg.Height, format, nil
}

package novelai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gouqi/novelai-bot/common/helper"
	"github.com/gouqi/novelai-bot/common/image"
	"github.com/gouqi/novelai-bot/common/logger"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

const maxErrorBodyLength = 200

type Adaptor struct {
	Client  *http.Client
	Timeout time.Duration
}

// Result 压缩包中第一个文件，按 PNG 处理
type Result struct {
	Name    string
	Image   []byte
	DataURL string
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (a *Adaptor) client() *http.Client {
	if a.Client == nil {
		return http.DefaultClient
	}
	return a.Client
}

// SetupRequestHeader 设置请求头
func (a *Adaptor) SetupRequestHeader(req *http.Request, settings Settings) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+settings.Token)
}

func (a *Adaptor) DoRequest(ctx context.Context, settings Settings, request *Request) (*http.Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	a.SetupRequestHeader(req, settings)

	resp, err := a.client().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// Submit 提交请求并解包返回的压缩包
func (a *Adaptor) Submit(ctx context.Context, settings Settings, request *Request) (*Result, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	resp, err := a.DoRequest(ctx, settings, request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readErrorResponse(resp)
	}
	if !IsArchiveResponse(resp.Header) {
		logger.Warnf(ctx, "unexpected response, content-type: %s, content-disposition: %s",
			resp.Header.Get("Content-Type"), resp.Header.Get("Content-Disposition"))
		return nil, errors.WithStack(ErrUnsupportedHeader)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	return Unpack(data)
}

func IsArchiveResponse(header http.Header) bool {
	return header.Get("Content-Type") == ZipContentType ||
		strings.Contains(header.Get("Content-Disposition"), ".zip")
}

// Unpack 只读取压缩包的第一个文件
func Unpack(data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	if len(reader.File) == 0 {
		return nil, errors.WithStack(ErrEmptyArchive)
	}
	first := reader.File[0]
	rc, err := first.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", first.Name)
	}
	defer rc.Close()
	buffer, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", first.Name)
	}
	return &Result{
		Name:    first.Name,
		Image:   buffer,
		DataURL: image.DataURL(ResultMimeType, base64.StdEncoding.EncodeToString(buffer)),
	}, nil
}

func readErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errResp errorResponse
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		message = errResp.Message
	}
	if message == "" {
		return errors.Errorf("request failed with status code %d", resp.StatusCode)
	}
	return errors.Errorf("request failed with status code %d: %s", resp.StatusCode, helper.Truncate(message, maxErrorBodyLength))
}

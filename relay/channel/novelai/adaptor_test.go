package novelai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string][]byte, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range order {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestSubmit(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	archive := buildArchive(t, map[string][]byte{"image_0.png": png, "image_1.png": []byte("second")}, "image_0.png", "image_1.png")

	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    []byte
		wantErr error
		errText string
	}{
		{
			name:    "zip content-type",
			status:  http.StatusOK,
			headers: map[string]string{"Content-Type": ZipContentType},
			body:    archive,
		},
		{
			name:    "zip content-disposition",
			status:  http.StatusOK,
			headers: map[string]string{"Content-Type": "binary/octet-stream", "Content-Disposition": `attachment; filename="results.zip"`},
			body:    archive,
		},
		{
			name:    "unsupported header",
			status:  http.StatusOK,
			headers: map[string]string{"Content-Type": "application/json"},
			body:    []byte(`{}`),
			wantErr: ErrUnsupportedHeader,
		},
		{
			name:    "error body",
			status:  http.StatusUnauthorized,
			headers: map[string]string{"Content-Type": "application/json"},
			body:    []byte(`{"statusCode":401,"message":"Invalid accessToken."}`),
			errText: "Invalid accessToken.",
		},
		{
			name:    "plain error body",
			status:  http.StatusInternalServerError,
			headers: map[string]string{"Content-Type": "text/plain"},
			body:    []byte("upstream exploded"),
			errText: "status code 500: upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			var gotBody Request
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				data, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(data, &gotBody)
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			settings := DefaultSettings()
			settings.URL = server.URL
			settings.Token = "tok"
			req := NewBuilder().Build(context.Background(), settings, BuildInput{Prompt: "cat"})

			adaptor := &Adaptor{Client: server.Client(), Timeout: 5 * time.Second}
			result, err := adaptor.Submit(context.Background(), settings, req)

			assert.Equal(t, "Bearer tok", gotAuth)
			assert.Equal(t, req.Input, gotBody.Input)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, "image_0.png", result.Name)
				assert.Equal(t, png, result.Image)
				assert.True(t, strings.HasPrefix(result.DataURL, "data:image/png;base64,"))
			}
		})
	}
}

func TestSubmitUnsupportedHeaderStack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	settings := DefaultSettings()
	settings.URL = server.URL
	req := NewBuilder().Build(context.Background(), settings, BuildInput{Prompt: "cat"})
	_, err := (&Adaptor{Client: server.Client()}).Submit(context.Background(), settings, req)
	require.ErrorIs(t, err, ErrUnsupportedHeader)

	// 堆栈来自返回处，而不是包初始化
	trace := fmt.Sprintf("%+v", err)
	assert.Contains(t, trace, "(*Adaptor).Submit")
	assert.NotContains(t, trace, "novelai.init")
}

func TestSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	settings := DefaultSettings()
	settings.URL = server.URL
	adaptor := &Adaptor{Client: server.Client(), Timeout: 50 * time.Millisecond}

	_, err := adaptor.Submit(context.Background(), settings, &Request{})
	assert.Error(t, err)
}

func TestErrorMessageTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("x", 500)))
	}))
	defer server.Close()

	settings := DefaultSettings()
	settings.URL = server.URL
	_, err := (&Adaptor{}).Submit(context.Background(), settings, &Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), strings.Repeat("x", 200)+"...")
	assert.NotContains(t, err.Error(), strings.Repeat("x", 201))
}

func TestUnpack(t *testing.T) {
	t.Run("empty archive", func(t *testing.T) {
		_, err := Unpack(buildArchive(t, nil))
		assert.ErrorIs(t, err, ErrEmptyArchive)
	})
	t.Run("not an archive", func(t *testing.T) {
		_, err := Unpack([]byte("definitely not zip"))
		assert.Error(t, err)
	})
	t.Run("first entry only", func(t *testing.T) {
		data := buildArchive(t, map[string][]byte{"a.png": []byte("A"), "b.png": []byte("B")}, "a.png", "b.png")
		result, err := Unpack(data)
		require.NoError(t, err)
		assert.Equal(t, "a.png", result.Name)
		assert.Equal(t, "data:image/png;base64,QQ==", result.DataURL)
	})
}

func TestIsArchiveResponse(t *testing.T) {
	tests := []struct {
		contentType        string
		contentDisposition string
		want               bool
	}{
		{ZipContentType, "", true},
		{"application/zip", "", false},
		{"", "attachment; filename=out.zip", true},
		{"image/png", "inline", false},
	}
	for _, tt := range tests {
		h := http.Header{}
		h.Set("Content-Type", tt.contentType)
		h.Set("Content-Disposition", tt.contentDisposition)
		assert.Equal(t, tt.want, IsArchiveResponse(h), "%s / %s", tt.contentType, tt.contentDisposition)
	}
}

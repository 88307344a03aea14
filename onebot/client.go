package onebot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gouqi/novelai-bot/bot"
	"github.com/gouqi/novelai-bot/common"
	"github.com/gouqi/novelai-bot/common/logger"
	"github.com/pkg/errors"
)

var (
	ErrNotConnected = errors.New("onebot websocket not connected")
	ErrStopped      = errors.New("onebot client stopped")
)

const defaultAPITimeout = 8 * time.Second

type apiRequest struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo,omitempty"`
}

type APIResponse struct {
	Status  string          `json:"status"`
	RetCode int64           `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Wording string          `json:"wording"`
	Echo    string          `json:"echo"`
}

// Client OneBot v11 正向 websocket 客户端
type Client struct {
	URL               string
	AccessToken       string
	ReconnectInterval time.Duration
	APITimeout        time.Duration
	Commander         *bot.Commander
	Dedup             Deduper

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	echoCounter atomic.Int64
	selfID      atomic.Int64

	apiWaitMu  sync.Mutex
	apiWaiters map[string]chan APIResponse

	promptMu sync.Mutex
	prompts  map[string]chan bot.Fragment
}

func NewClient(url, accessToken string, commander *bot.Commander, dedup Deduper) *Client {
	if dedup == nil {
		dedup = NewRingDeduper(1024)
	}
	return &Client{
		URL:         url,
		AccessToken: accessToken,
		APITimeout:  defaultAPITimeout,
		Commander:   commander,
		Dedup:       dedup,
		apiWaiters:  make(map[string]chan APIResponse),
		prompts:     make(map[string]chan bot.Fragment),
	}
}

func (c *Client) Start(ctx context.Context) error {
	if c.URL == "" {
		return errors.New("onebot ws url not configured")
	}
	logger.SysLogf("starting onebot client, ws_url: %s", c.URL)
	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.connect(); err != nil {
		logger.SysErrorf("initial onebot connection failed: %s", err.Error())
		if c.ReconnectInterval <= 0 {
			return errors.Wrap(err, "connect onebot and reconnect is disabled")
		}
	} else {
		go c.listen()
	}
	if c.ReconnectInterval > 0 {
		go c.reconnectLoop()
	}
	return nil
}

func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
	logger.SysLog("onebot client stopped")
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) SelfID() int64 {
	return c.selfID.Load()
}

func (c *Client) connect() error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	header := http.Header{}
	if c.AccessToken != "" {
		header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	conn, _, err := dialer.DialContext(c.ctx, c.URL, header)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	logger.SysLog("onebot websocket connected")
	return nil
}

func (c *Client) reconnectLoop() {
	ticker := time.NewTicker(c.ReconnectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if c.Connected() {
				continue
			}
			logger.SysLog("attempting to reconnect onebot...")
			if err := c.connect(); err != nil {
				logger.SysErrorf("onebot reconnect failed: %s", err.Error())
				continue
			}
			go c.listen()
		}
	}
}

func (c *Client) listen() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				logger.SysErrorf("onebot websocket read error: %s", err.Error())
			}
			c.mu.Lock()
			if c.conn == conn {
				_ = c.conn.Close()
				c.conn = nil
			}
			c.mu.Unlock()
			return
		}

		var raw rawEvent
		if err := json.Unmarshal(message, &raw); err != nil {
			logger.SysErrorf("failed to unmarshal onebot event: %s", err.Error())
			continue
		}
		if len(raw.Echo) > 0 && raw.PostType == "" {
			c.dispatchAPIResponse(message)
			continue
		}
		c.handleRawEvent(&raw)
	}
}

func (c *Client) handleRawEvent(raw *rawEvent) {
	if selfID, err := parseJSONInt64(raw.SelfID); err == nil && selfID != 0 {
		c.selfID.Store(selfID)
	}
	switch raw.PostType {
	case "message":
		evt, err := normalizeMessageEvent(raw)
		if err != nil {
			logger.SysErrorf("failed to normalize message event: %s", err.Error())
			return
		}
		c.handleMessage(evt)
	case "meta_event":
		switch raw.MetaEventType {
		case "lifecycle":
			logger.SysLogf("onebot lifecycle event: %s", raw.SubType)
		case "heartbeat":
		default:
			logger.SysLogf("unknown meta_event_type: %s", raw.MetaEventType)
		}
	}
}

func (c *Client) handleMessage(evt *Event) {
	ctx := logger.WithRequestId(c.ctx)
	if c.Dedup != nil && c.Dedup.Seen(ctx, evt.MessageID) {
		logger.Debugf(ctx, "duplicate message %s, skipping", evt.MessageID)
		return
	}
	session := newSession(c, evt)
	if c.deliverPrompt(session.promptKey(), evt.Fragment) {
		return
	}
	if c.Commander == nil {
		return
	}
	common.CommandGo(ctx, func() {
		c.Commander.Execute(ctx, session, evt.Fragment)
	}, func(any) {
		_ = session.Send(ctx, bot.Fragment{bot.Text(bot.ReplyOnError)})
	})
}

func (c *Client) dispatchAPIResponse(payload []byte) {
	var resp APIResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		logger.SysErrorf("failed to unmarshal onebot api response: %s", err.Error())
		return
	}
	c.apiWaitMu.Lock()
	waiter := c.apiWaiters[resp.Echo]
	c.apiWaitMu.Unlock()
	if waiter == nil {
		return
	}
	select {
	case waiter <- resp:
	default:
	}
}

func (c *Client) nextEcho() string {
	return fmt.Sprintf("api_%d", c.echoCounter.Add(1))
}

// CallAPI 发送一次 API 调用并等待 echo 相同的响应
func (c *Client) CallAPI(ctx context.Context, action string, params any) (*APIResponse, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	echo := c.nextEcho()
	waiter := make(chan APIResponse, 1)
	c.apiWaitMu.Lock()
	c.apiWaiters[echo] = waiter
	c.apiWaitMu.Unlock()
	defer func() {
		c.apiWaitMu.Lock()
		delete(c.apiWaiters, echo)
		c.apiWaitMu.Unlock()
	}()

	payload, err := json.Marshal(apiRequest{Action: action, Params: params, Echo: echo})
	if err != nil {
		return nil, errors.Wrap(err, "marshal onebot api request")
	}
	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "write onebot api request")
	}

	timeout := c.APITimeout
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var stopped <-chan struct{}
	if c.ctx != nil {
		stopped = c.ctx.Done()
	}

	select {
	case resp := <-waiter:
		if resp.Status == "failed" || resp.RetCode != 0 {
			return &resp, errors.Errorf("onebot api %s failed: retcode=%d %s %s", action, resp.RetCode, resp.Message, resp.Wording)
		}
		return &resp, nil
	case <-timer.C:
		return nil, errors.Errorf("onebot api request timeout: action=%s", action)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-stopped:
		return nil, ErrStopped
	}
}

func (c *Client) GetStrangerInfo(ctx context.Context, userID string) (*bot.StrangerInfo, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid user id %s", userID)
	}
	resp, err := c.CallAPI(ctx, "get_stranger_info", map[string]any{"user_id": id})
	if err != nil {
		return nil, err
	}
	var data struct {
		UserID   int64  `json:"user_id"`
		Nickname string `json:"nickname"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, errors.Wrap(err, "decode stranger info")
	}
	return &bot.StrangerInfo{UserID: strconv.FormatInt(data.UserID, 10), Nickname: data.Nickname}, nil
}

// send 逐条发送渲染结果，遇到错误即停止
func (c *Client) send(ctx context.Context, t target, fragment bot.Fragment) error {
	for _, out := range render(t, fragment) {
		if _, err := c.CallAPI(ctx, out.Action, out.Params); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) waitPrompt(ctx context.Context, key string, timeout time.Duration) (bot.Fragment, error) {
	ch := make(chan bot.Fragment, 1)
	c.promptMu.Lock()
	c.prompts[key] = ch
	c.promptMu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case fragment := <-ch:
		return fragment, nil
	case <-timer.C:
		fragment, _ := c.cancelPrompt(key, ch)
		return fragment, nil
	case <-ctx.Done():
		if fragment, ok := c.cancelPrompt(key, ch); ok {
			return fragment, nil
		}
		return nil, ctx.Err()
	}
}

// cancelPrompt 注销等待者；若消息已被投递则取回该消息
func (c *Client) cancelPrompt(key string, ch chan bot.Fragment) (bot.Fragment, bool) {
	c.promptMu.Lock()
	defer c.promptMu.Unlock()
	if c.prompts[key] == ch {
		delete(c.prompts, key)
		return nil, false
	}
	select {
	case fragment := <-ch:
		return fragment, true
	default:
		return nil, false
	}
}

// deliverPrompt 在锁内投递，cancelPrompt 拿到锁时消息必然已在 ch 中
func (c *Client) deliverPrompt(key string, fragment bot.Fragment) bool {
	c.promptMu.Lock()
	defer c.promptMu.Unlock()
	ch, ok := c.prompts[key]
	if !ok {
		return false
	}
	delete(c.prompts, key)
	ch <- fragment
	return true
}

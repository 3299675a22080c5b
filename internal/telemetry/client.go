// Package telemetry 封装对 Smart Box 后端 REST API 的访问。
// 后端是黑盒：MQTT 侧的数据采集、SQLite 存储都在那边，这里只读。
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// TokenSource 返回当前会话持有的 Bearer token；空串表示未登录。
// 核心只透传 token，token 是否有效由后端裁决。
type TokenSource interface {
	Token() string
}

// StaticToken 固定 token（后台监控等非交互场景）
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// FetchError 遥测拉取的类型化失败。调用方（轮询器）把它降级为 Offline，绝不向上抛崩
type FetchError struct {
	BoxID      string
	StatusCode int // 0 表示传输层失败（没拿到响应）
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: backend returned %d: %s", e.BoxID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.BoxID, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client Smart Box 后端 API 客户端
type Client struct {
	httpClient *resty.Client
	tokens     TokenSource
	logger     *zap.Logger
}

// NewClient 创建客户端。不做内部重试：重试策略是下一个轮询周期
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
	}
}

// FetchLatest 拉取一台设备最近的 limit 条记录（后端按时间倒序返回）
// GET /api/data/{boxID}?limit={n}
func (c *Client) FetchLatest(ctx context.Context, boxID string, limit int) ([]models.Reading, error) {
	if boxID == "" {
		return nil, &FetchError{BoxID: boxID, Message: "box id must not be empty"}
	}
	if limit < 1 {
		return nil, &FetchError{BoxID: boxID, Message: fmt.Sprintf("limit must be >= 1, got %d", limit)}
	}

	resp, err := c.request(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		Get("/api/data/" + boxID)
	if err != nil {
		return nil, &FetchError{BoxID: boxID, Message: "backend unreachable", Err: err}
	}
	if resp.IsError() {
		return nil, &FetchError{
			BoxID:      boxID,
			StatusCode: resp.StatusCode(),
			Message:    truncate(resp.String(), 200),
		}
	}

	var readings []models.Reading
	if err := json.Unmarshal(resp.Body(), &readings); err != nil {
		return nil, &FetchError{BoxID: boxID, Message: "non-parseable payload", Err: err}
	}
	return readings, nil
}

// ListDevices 获取后端权威设备注册表（仅超级管理员视图使用）
// GET /api/admin/devices
func (c *Client) ListDevices(ctx context.Context) ([]string, error) {
	resp, err := c.request(ctx).Get("/api/admin/devices")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to list devices: backend returned %d", resp.StatusCode())
	}

	var ids []string
	if err := json.Unmarshal(resp.Body(), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode device list: %w", err)
	}
	return ids, nil
}

// LoginResult 登录响应
type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

// Login 向后端换取会话 token
// POST /api/auth/login
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var result LoginResult
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&result).
		Post("/api/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.IsError() {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(resp.Body(), &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = fmt.Sprintf("backend returned %d", resp.StatusCode())
		}
		return nil, fmt.Errorf("login failed: %s", apiErr.Error)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login failed: backend response missing token")
	}
	return &result, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.httpClient.R().SetContext(ctx)
	if token := c.tokens.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

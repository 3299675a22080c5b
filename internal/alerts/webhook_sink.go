package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// WebhookSink 把报警事件 POST 到外部 webhook（值班群机器人等）
type WebhookSink struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookSink 创建 webhook 出口。通知允许短暂重试，丢报警比丢一轮遥测严重
func NewWebhookSink(url string, logger *zap.Logger) *WebhookSink {
	httpClient := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &WebhookSink{
		httpClient: httpClient,
		url:        url,
		logger:     logger,
	}
}

func (s *WebhookSink) Notify(ctx context.Context, event models.AlertEvent) error {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("failed to deliver alert webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("alert webhook returned %d", resp.StatusCode())
	}

	s.logger.Debug("Alert webhook delivered",
		zap.String("box_id", event.BoxID),
		zap.String("action", string(event.Action)),
	)
	return nil
}

package alerts

import (
	"context"

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// Sink 报警事件出口（对应旧版仪表盘的响铃+Toast：这里换成日志/webhook/MQTT）
type Sink interface {
	Notify(ctx context.Context, event models.AlertEvent) error
}

// LogSink 结构化日志出口，始终启用
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, event models.AlertEvent) error {
	fields := []zap.Field{
		zap.String("action", string(event.Action)),
		zap.String("box_id", event.BoxID),
		zap.String("alert_id", event.AlertID),
	}
	if event.Reading != nil {
		if event.Reading.Temperature != nil {
			fields = append(fields, zap.Float64("temperature", *event.Reading.Temperature))
		}
		if event.Reading.Humidity != nil {
			fields = append(fields, zap.Float64("humidity", *event.Reading.Humidity))
		}
	}
	if event.Action == models.AlertCreated {
		s.logger.Warn("DANGER alert", fields...)
	} else {
		s.logger.Info("Alert cleared", fields...)
	}
	return nil
}

// Fanout 把事件分发给所有出口；单个出口失败只记日志，不影响其它出口
func Fanout(ctx context.Context, sinks []Sink, events []models.AlertEvent, logger *zap.Logger) {
	for _, event := range events {
		for _, sink := range sinks {
			if err := sink.Notify(ctx, event); err != nil {
				logger.Error("Alert sink delivery failed",
					zap.String("box_id", event.BoxID),
					zap.Error(err),
				)
			}
		}
	}
}

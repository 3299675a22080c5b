package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// MQTTSink 把报警事件发布回 MQTT broker。
// 设备侧固件走 smartbox/kelompok11/data 上行，报警走同一 broker 的 alerts 主题下行，
// 现场的声光报警器直接订阅即可
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger *zap.Logger
}

// MQTTOptions MQTT 出口配置
type MQTTOptions struct {
	Broker   string
	Topic    string
	Username string
	Password string
	QoS      byte
}

// NewMQTTSink 连接 broker 并创建出口
func NewMQTTSink(opts MQTTOptions, logger *zap.Logger) (*MQTTSink, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID("smartbox-monitor-" + uuid.New().String()[:8])

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	clientOpts.SetAutoReconnect(true)
	clientOpts.SetCleanSession(true)

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTSink{
		client: client,
		topic:  opts.Topic,
		qos:    opts.QoS,
		logger: logger,
	}, nil
}

func (s *MQTTSink) Notify(_ context.Context, event models.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	token := s.client.Publish(s.topic, s.qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", s.topic, token.Error())
	}

	s.logger.Debug("Alert published to MQTT",
		zap.String("topic", s.topic),
		zap.String("box_id", event.BoxID),
	)
	return nil
}

// Close 断开 broker 连接
func (s *MQTTSink) Close() {
	s.client.Disconnect(250) // 250ms等待时间
}

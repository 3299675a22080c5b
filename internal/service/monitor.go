// Package service 整合各层：遥测客户端 → 车队轮询器 → 报警状态机 → 报警出口。
package service

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/alerts"
	"github.com/andrewkristofer/SmartBox-IoT/internal/classifier"
	"github.com/andrewkristofer/SmartBox-IoT/internal/config"
	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
	"github.com/andrewkristofer/SmartBox-IoT/internal/poller"
	"github.com/andrewkristofer/SmartBox-IoT/internal/store"
	"github.com/andrewkristofer/SmartBox-IoT/internal/telemetry"
	"github.com/andrewkristofer/SmartBox-IoT/internal/visibility"
)

// MonitorService 车队监控服务（后台通知监控的 Go 版本）
type MonitorService struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	telemetryClient *telemetry.Client
	fleetPoller     *poller.FleetPoller
	alertManager    *alerts.Manager
	sinks           []alerts.Sink
	mqttSink        *alerts.MQTTSink
	sessionStore    *store.SessionStore
	resolver        *visibility.Resolver
}

// NewMonitorService 创建监控服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 2. 遥测客户端（后台监控用服务 token）
	telemetryClient := telemetry.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.Timeout,
		telemetry.StaticToken(cfg.Backend.ServiceToken),
		logger,
	)

	// 3. 阈值选择
	thresholds, err := resolveThresholds(cfg.Monitor.ThresholdBand)
	if err != nil {
		return nil, err
	}

	// 4. 轮询器：后台监控盯固定车队
	fleetIDs := cfg.Monitor.FleetIDs
	fleetPoller := poller.New(
		telemetryClient,
		func() []string { return fleetIDs },
		thresholds,
		cfg.Monitor.PollInterval,
		logger,
	)

	// 5. 报警管理器 + 出口
	alertManager := alerts.NewManager(logger)
	sinks := []alerts.Sink{alerts.NewLogSink(logger)}

	if cfg.Alerts.WebhookURL != "" {
		sinks = append(sinks, alerts.NewWebhookSink(cfg.Alerts.WebhookURL, logger))
		logger.Info("Alert webhook sink enabled")
	}

	var mqttSink *alerts.MQTTSink
	if cfg.Alerts.MQTT.Broker != "" {
		mqttSink, err = alerts.NewMQTTSink(alerts.MQTTOptions{
			Broker:   cfg.Alerts.MQTT.Broker,
			Topic:    cfg.Alerts.MQTT.Topic,
			Username: cfg.Alerts.MQTT.Username,
			Password: cfg.Alerts.MQTT.Password,
			QoS:      cfg.Alerts.MQTT.QoS,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create mqtt sink: %w", err)
		}
		sinks = append(sinks, mqttSink)
		logger.Info("Alert MQTT sink enabled",
			zap.String("broker", cfg.Alerts.MQTT.Broker),
			zap.String("topic", cfg.Alerts.MQTT.Topic),
		)
	}

	// 6. 会话存储 + 可见性裁决
	sessionStore := store.NewSessionStore(store.NewRedisKVStore(redisClient), logger)
	resolver := visibility.NewResolver(cfg.AccessRules)

	return &MonitorService{
		config:          cfg,
		redisClient:     redisClient,
		logger:          logger,
		telemetryClient: telemetryClient,
		fleetPoller:     fleetPoller,
		alertManager:    alertManager,
		sinks:           sinks,
		mqttSink:        mqttSink,
		sessionStore:    sessionStore,
		resolver:        resolver,
	}, nil
}

// Start 启动轮询循环（阻塞直到 ctx 取消）
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting fleet monitor",
		zap.Strings("fleet_ids", s.config.Monitor.FleetIDs),
		zap.Duration("poll_interval", s.config.Monitor.PollInterval),
	)

	s.fleetPoller.Run(ctx, func(snapshot *models.FleetSnapshot) {
		events := s.alertManager.Tick(snapshot)
		alerts.Fanout(ctx, s.sinks, events, s.logger)
	})
	return nil
}

// Stop 停止服务并释放连接
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping fleet monitor")

	if s.mqttSink != nil {
		s.mqttSink.Close()
	}
	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis client",
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Telemetry 遥测客户端（HTTP 层复用）
func (s *MonitorService) Telemetry() *telemetry.Client { return s.telemetryClient }

// Poller 车队轮询器
func (s *MonitorService) Poller() *poller.FleetPoller { return s.fleetPoller }

// Alerts 报警管理器
func (s *MonitorService) Alerts() *alerts.Manager { return s.alertManager }

// Sessions 会话存储
func (s *MonitorService) Sessions() *store.SessionStore { return s.sessionStore }

// Visibility 可见性裁决器
func (s *MonitorService) Visibility() *visibility.Resolver { return s.resolver }

// Thresholds 当前生效的阈值
func (s *MonitorService) Thresholds() classifier.Thresholds {
	t, _ := resolveThresholds(s.config.Monitor.ThresholdBand)
	return t
}

func resolveThresholds(band string) (classifier.Thresholds, error) {
	switch band {
	case "", "standard":
		return classifier.DefaultThresholds, nil
	case "legacy-notifier":
		return classifier.LegacyNotifierThresholds, nil
	default:
		return classifier.Thresholds{}, fmt.Errorf("unknown threshold band %q (want \"standard\" or \"legacy-notifier\")", band)
	}
}

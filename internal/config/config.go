package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 服务配置。优先级：环境变量 > YAML 配置文件 > 默认值
type Config struct {
	Backend struct {
		BaseURL string        `yaml:"base_url"` // Smart Box 后端地址
		Timeout time.Duration `yaml:"timeout"`
		// ServiceToken 后台监控用的固定 Bearer token；交互会话的 token 走会话存储
		ServiceToken string `yaml:"service_token"`
	} `yaml:"backend"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitor struct {
		// FleetIDs 通知监控轮询的固定车队；表格视图按会话的跟踪列表轮询
		FleetIDs     []string      `yaml:"fleet_ids"`
		PollInterval time.Duration `yaml:"poll_interval"`
		// ThresholdBand "standard" 或 "legacy-notifier"（旧通知监控的 20-60% 湿度带）
		ThresholdBand string `yaml:"threshold_band"`
	} `yaml:"monitor"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Alerts struct {
		WebhookURL string `yaml:"webhook_url"` // 为空则不启用 webhook sink
		MQTT       struct {
			Broker   string `yaml:"broker"` // 为空则不启用 MQTT publisher
			Topic    string `yaml:"topic"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			QoS      byte   `yaml:"qos"`
		} `yaml:"mqtt"`
	} `yaml:"alerts"`

	// AccessRules 受保护设备的按用户名白名单（SMARTBOX- 前缀设备）
	AccessRules map[string][]string `yaml:"access_rules"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load 加载配置：先读 .env（如果有），再读 CONFIG_FILE 指向的 YAML，最后环境变量覆盖
func Load() (*Config, error) {
	// .env 不存在不是错误
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required (BACKEND_BASE_URL)")
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Backend.BaseURL = "http://localhost:5000"
	cfg.Backend.Timeout = 10 * time.Second

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.DB = 0

	cfg.Monitor.FleetIDs = []string{"SMARTBOX-001", "SMARTBOX-002", "SMARTBOX-003"}
	cfg.Monitor.PollInterval = 5 * time.Second
	cfg.Monitor.ThresholdBand = "standard"

	cfg.HTTP.Addr = ":8080"

	cfg.Alerts.MQTT.Topic = "smartbox/kelompok11/alerts"
	cfg.Alerts.MQTT.QoS = 1

	// 与后端约定的静态授权规则；生产环境用 YAML 覆盖
	cfg.AccessRules = map[string][]string{
		"mitra_padang": {"SMARTBOX-001"},
		"mitra_gudang": {"SMARTBOX-002", "SMARTBOX-003"},
	}

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = d
		}
	}
	if v := os.Getenv("BACKEND_SERVICE_TOKEN"); v != "" {
		cfg.Backend.ServiceToken = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Monitor.PollInterval = d
		}
	}
	if v := os.Getenv("THRESHOLD_BAND"); v != "" {
		cfg.Monitor.ThresholdBand = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Alerts.WebhookURL = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		cfg.Alerts.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_TOPIC"); v != "" {
		cfg.Alerts.MQTT.Topic = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		cfg.Alerts.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		cfg.Alerts.MQTT.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	CargoBox CargoBoxConfig `yaml:"cargobox"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ConnString builds a pgx URL, sslmode defaults to disable.
func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	NotificationsTopicName string `yaml:"notifications_topic_name"`
	ConsumerGroup          string `yaml:"consumer_group"`
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type TelegramConfig struct {
	BaseURL        string `yaml:"base_url"`
	BotToken       string `yaml:"bot_token"`
	OperatorChatID string `yaml:"operator_chat_id"`
}

type CargoBoxConfig struct {
	HTTPAddr        string `yaml:"http_addr"`
	AdminExternalID string `yaml:"admin_external_id"`

	// memory | redis | postgres
	Store       string `yaml:"store"`
	RedisPrefix string `yaml:"redis_prefix"`

	// log | telegram | kafka
	NotificationsMode string `yaml:"notifications_mode"`

	DispatcherQueueSize       int    `yaml:"dispatcher_queue_size"`
	DispatcherConcurrency     int    `yaml:"dispatcher_concurrency"`
	NotifyRateLimitPerMinute  int    `yaml:"notify_rate_limit_per_minute"`
	NotifySendTimeoutSeconds  int    `yaml:"notify_send_timeout_seconds"`
	NotifyThrottleDelayMillis int    `yaml:"notify_throttle_delay_millis"`
	WorkerRestartDelaySeconds int    `yaml:"worker_restart_delay_seconds"`
	WorkerHTTPAddr            string `yaml:"worker_http_addr"`

	LogDir string `yaml:"log_dir"`
	Debug  bool   `yaml:"debug"`
}

// LoadConfig reads the YAML file, then applies secrets from the environment
// (.env is loaded first when present).
func LoadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Секреты не храним в yaml.
func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_OPERATOR_CHAT_ID"); v != "" {
		c.Telegram.OperatorChatID = v
	}
	if v := os.Getenv("CARGOBOX_ADMIN_EXTERNAL_ID"); v != "" {
		c.CargoBox.AdminExternalID = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("CARGOBOX_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CARGOBOX_DEBUG: %w", err)
		}
		c.CargoBox.Debug = b
	}
	return nil
}

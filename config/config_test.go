package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "cargobox"
kafka:
  host: "localhost"
  port: 9092
  notifications_topic_name: "cargo.notifications"
  consumer_group: "notify-worker"
redis:
  host: "localhost"
  port: 6379
telegram:
  base_url: "https://api.telegram.org"
  operator_chat_id: "-100200300"
cargobox:
  http_addr: ":8080"
  admin_external_id: "777"
  store: "redis"
  redis_prefix: "cargobox"
  notifications_mode: "kafka"
  dispatcher_queue_size: 64
  notify_rate_limit_per_minute: 20
  worker_http_addr: ":8082"
`

func writeConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sampleYAML), 0o600))
	return p
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "cargo.notifications", cfg.Kafka.NotificationsTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.CargoBox.HTTPAddr)
	require.Equal(t, "777", cfg.CargoBox.AdminExternalID)
	require.Equal(t, "kafka", cfg.CargoBox.NotificationsMode)
	require.Equal(t, 64, cfg.CargoBox.DispatcherQueueSize)
	require.Equal(t, "-100200300", cfg.Telegram.OperatorChatID)

	require.Equal(t, "postgres://u:p@localhost:5432/cargobox?sslmode=disable", cfg.Database.ConnString())
	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers())
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("CARGOBOX_ADMIN_EXTERNAL_ID", "999")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("CARGOBOX_DEBUG", "true")

	cfg, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.Telegram.BotToken)
	require.Equal(t, "999", cfg.CargoBox.AdminExternalID)
	require.Equal(t, "secret", cfg.Database.Password)
	require.True(t, cfg.CargoBox.Debug)
}

func TestLoadConfig_BadDebugEnv(t *testing.T) {
	t.Setenv("CARGOBOX_DEBUG", "sometimes")
	_, err := LoadConfig(writeConfig(t))
	require.Error(t, err)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("database: [unclosed"), 0o600))
	_, err = LoadConfig(p)
	require.Error(t, err)
}

func TestDatabaseConfig_SSLMode(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1, Username: "u", Password: "p", DBName: "d", SSLMode: "require"}
	require.Equal(t, "postgres://u:p@h:1/d?sslmode=require", d.ConnString())
}

func TestDatabaseConfig_ConnStringEscapesCredentials(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Username: "cargo user", Password: "p@ss/w:rd", DBName: "cargobox"}

	raw := d.ConnString()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "db:5432", u.Host)
	require.Equal(t, "/cargobox", u.Path)
	require.Equal(t, "cargo user", u.User.Username())
	pass, set := u.User.Password()
	require.True(t, set)
	require.Equal(t, "p@ss/w:rd", pass)
	require.Equal(t, "disable", u.Query().Get("sslmode"))
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT 推送配置（可选的推送通道）
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Topic    string
}

// Config 监控服务配置
type Config struct {
	// 面向操作员的 API（basic auth 凭证与前端共享）
	API struct {
		Username string
		Password string
		Host     string
		Port     int
		Title    string
	}

	// 中心统计服务器
	StatsServer struct {
		Host string
		Port int
	}

	// 现场设备（Pi）自带的 API 端口
	FieldDevice struct {
		Port int
	}

	// 网络共享（文件计数的根目录）
	Share struct {
		BasePath string
	}

	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 监控节奏与阈值
	Monitor struct {
		FileCountInterval  time.Duration // 文件计数轮询间隔
		StatisticsInterval time.Duration // 统计服务器轮询间隔
		PiStatusInterval   time.Duration // 健康探测间隔
		BroadcastInterval  time.Duration // 推送通道广播间隔

		StaleThreshold       time.Duration // 计数不变多久视为 done
		StatusStaleThreshold time.Duration // 状态多久没更新参与闪烁判定
		FlashInterval        time.Duration // 闪烁检查间隔（与视觉闪烁频率 1:1）
		ProcessedThreshold   int           // 外部计数偏差阈值

		StatsTimeout  time.Duration // 统计接口超时
		HealthTimeout time.Duration // 健康接口超时
	}

	// 设备注册表（可选的 Excel 设备清单，覆盖 PI_n_IP 环境变量）
	Registry struct {
		ExcelPath string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（未设置时使用默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.API.Username = getEnv("API_USERNAME", "admin")
	cfg.API.Password = getEnv("API_PASSWORD", "changeme")
	cfg.API.Host = getEnv("API_HOST", "0.0.0.0")
	cfg.API.Port = getEnvInt("API_PORT", 8000)
	cfg.API.Title = getEnv("DASHBOARD_TITLE", "Pi Monitoring Dashboard")

	cfg.StatsServer.Host = getEnv("STATS_SERVER_HOST", "localhost")
	cfg.StatsServer.Port = getEnvInt("STATS_SERVER_PORT", 8000)

	cfg.FieldDevice.Port = getEnvInt("FIELD_DEVICE_PORT", 8000)

	cfg.Share.BasePath = getEnv("PRE_DEST_DIR", "/media/pre-processing")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "logmonitor")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "web-logmonitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 0))
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "logmonitor/status")

	cfg.Monitor.FileCountInterval = getEnvSeconds("FILE_COUNT_UPDATE_INTERVAL", 30)
	cfg.Monitor.StatisticsInterval = getEnvSeconds("FILES_PROCESSED_UPDATE_INTERVAL", 10)
	cfg.Monitor.PiStatusInterval = getEnvSeconds("PI_STATUS_UPDATE_INTERVAL", 10)
	cfg.Monitor.BroadcastInterval = getEnvSeconds("BROADCAST_INTERVAL", 2)

	cfg.Monitor.StaleThreshold = getEnvSeconds("STALE_THRESHOLD", 10*60)
	cfg.Monitor.StatusStaleThreshold = getEnvSeconds("STATUS_STALE_THRESHOLD", 15*60)
	cfg.Monitor.FlashInterval = time.Duration(getEnvInt("STATUS_FLASH_INTERVAL", 500)) * time.Millisecond
	cfg.Monitor.ProcessedThreshold = getEnvInt("STATUS_PROCESSED_THRESHOLD", 4)

	cfg.Monitor.StatsTimeout = getEnvSeconds("STATS_TIMEOUT", 20)
	cfg.Monitor.HealthTimeout = getEnvSeconds("HEALTH_TIMEOUT", 5)

	cfg.Registry.ExcelPath = getEnv("DEVICE_LIST_XLSX", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

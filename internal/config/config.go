package config

import (
	"time"

	"github.com/spf13/viper"
)

type ServerCfg struct {
	Port                string `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	Development         bool   `mapstructure:"development"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTCfg struct {
	Secret              string `mapstructure:"secret"`
	AccessTTLMinutes    int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLDays      int    `mapstructure:"refresh_ttl_days"`
	OTPTTLMinutes       int    `mapstructure:"otp_ttl_minutes"`
	OTPRateLimitPerHour int    `mapstructure:"otp_rate_limit_per_hour"`
}

type WSCfg struct {
	RateLimitPerSec      int   `mapstructure:"rate_limit_per_sec"`
	SendBuffer           int   `mapstructure:"send_buffer"`
	MaxMessageBytes      int64 `mapstructure:"max_message_bytes"`
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	PresenceTTLSeconds   int   `mapstructure:"presence_ttl_seconds"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type S3Cfg struct {
	Region     string `mapstructure:"region"`
	Bucket     string `mapstructure:"bucket"`
	PublicRead bool   `mapstructure:"public_read"`
}

type Config struct {
	Server ServerCfg `mapstructure:"server"`
	Mongo  MongoCfg  `mapstructure:"mongo"`
	Redis  RedisCfg  `mapstructure:"redis"`
	JWT    JWTCfg    `mapstructure:"jwt"`
	WS     WSCfg     `mapstructure:"ws"`
	Kafka  KafkaCfg  `mapstructure:"kafka"`
	S3     S3Cfg     `mapstructure:"s3"`

	// Derived
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	OTPTTL        time.Duration
	PingInterval  time.Duration
	WriteDeadline time.Duration
	PresenceTTL   time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 15
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "whisper"
	}
	if cfg.JWT.AccessTTLMinutes == 0 {
		cfg.JWT.AccessTTLMinutes = 15
	}
	if cfg.JWT.RefreshTTLDays == 0 {
		cfg.JWT.RefreshTTLDays = 7
	}
	if cfg.JWT.OTPTTLMinutes == 0 {
		cfg.JWT.OTPTTLMinutes = 5
	}
	if cfg.JWT.OTPRateLimitPerHour == 0 {
		cfg.JWT.OTPRateLimitPerHour = 5
	}
	if cfg.WS.RateLimitPerSec == 0 {
		cfg.WS.RateLimitPerSec = 20
	}
	if cfg.WS.SendBuffer == 0 {
		cfg.WS.SendBuffer = 256
	}
	if cfg.WS.MaxMessageBytes == 0 {
		cfg.WS.MaxMessageBytes = 64 * 1024
	}
	if cfg.WS.PingIntervalSeconds == 0 {
		cfg.WS.PingIntervalSeconds = 30
	}
	if cfg.WS.WriteDeadlineSeconds == 0 {
		cfg.WS.WriteDeadlineSeconds = 10
	}
	if cfg.WS.PresenceTTLSeconds == 0 {
		cfg.WS.PresenceTTLSeconds = 60
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "chat.message.persisted"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "whisper-notify"
	}

	cfg.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	cfg.AccessTTL = time.Duration(cfg.JWT.AccessTTLMinutes) * time.Minute
	cfg.RefreshTTL = time.Duration(cfg.JWT.RefreshTTLDays) * 24 * time.Hour
	cfg.OTPTTL = time.Duration(cfg.JWT.OTPTTLMinutes) * time.Minute
	cfg.PingInterval = time.Duration(cfg.WS.PingIntervalSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.WS.WriteDeadlineSeconds) * time.Second
	cfg.PresenceTTL = time.Duration(cfg.WS.PresenceTTLSeconds) * time.Second
}

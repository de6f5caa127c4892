package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host         string   `yaml:"host"`
		Port         int      `yaml:"port"`
		Env          string   `yaml:"env"`
		ReadTimeout  int      `yaml:"read_timeout"`  // seconds
		WriteTimeout int      `yaml:"write_timeout"` // seconds
		Debug        bool     `yaml:"debug"`
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"server"`

	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`

	JWT struct {
		Secret     string `yaml:"secret"`
		TTL        int    `yaml:"ttl"`         // minutes
		RefreshTTL int    `yaml:"refresh_ttl"` // hours
	} `yaml:"jwt"`

	Auth struct {
		LoginDomain        string `yaml:"login_domain"`
		FirstAdminEmail    string `yaml:"first_admin_email"`
		FirstAdminPassword string `yaml:"first_admin_password"`
	} `yaml:"auth"`

	Storage struct {
		Type       string `yaml:"type"` // local, s3, cloudflare_r2
		BasePath   string `yaml:"base_path"`
		BaseURL    string `yaml:"base_url"`
		Bucket     string `yaml:"bucket"`
		Region     string `yaml:"region"`
		AccessKey  string `yaml:"access_key"`
		SecretKey  string `yaml:"secret_key"`
		Endpoint   string `yaml:"endpoint"`
		AccountID  string `yaml:"account_id"` // R2
		UseSSL     bool   `yaml:"use_ssl"`
		PublicRead bool   `yaml:"public_read"`
		SignedTTL  int    `yaml:"signed_ttl"` // seconds
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"` // bytes
		AllowedTypes []string `yaml:"allowed_types"`
		ImageQuality int      `yaml:"image_quality"`
		MaxImageSide int      `yaml:"max_image_side"`
	} `yaml:"upload"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Email struct {
		SMTPHost     string   `yaml:"smtp_host"`
		SMTPPort     int      `yaml:"smtp_port"`
		SMTPUsername string   `yaml:"smtp_user"`
		SMTPPassword string   `yaml:"smtp_password"`
		FromEmail    string   `yaml:"from_email"`
		FromName     string   `yaml:"from_name"`
		AdminEmails  []string `yaml:"admin_emails"`
	} `yaml:"email"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Gate struct {
		ExemptPrefixes []string `yaml:"exempt_prefixes"`
	} `yaml:"gate"`

	SiteStatus struct {
		PollInterval int `yaml:"poll_interval"` // seconds
	} `yaml:"site_status"`

	RateLimit struct {
		Requests int `yaml:"requests"`
		Window   int `yaml:"window"` // seconds
	} `yaml:"rate_limit"`

	Workers struct {
		ProofSweepInterval int `yaml:"proof_sweep_interval"` // minutes
	} `yaml:"workers"`
}

var AppConfig *Config

// DefaultExemptPrefixes - пути, доступные при выключенном сайте
var DefaultExemptPrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/session",
	"/dashboard",
	"/api/v1/site-status",
	"/metrics",
	"/healthz",
	"/ws",
}

// LoadConfig загружает .env (если есть), затем yaml, затем переменные окружения поверх
func LoadConfig() error {
	_ = godotenv.Load()

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if f, err := os.Open(configPath); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to open config file at %s: %w", configPath, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database url is not configured")
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is not configured")
	}

	AppConfig = &cfg
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "SERVER_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.Auth.LoginDomain, "LOGIN_DOMAIN")
	setString(&cfg.Auth.FirstAdminEmail, "FIRST_ADMIN_EMAIL")
	setString(&cfg.Auth.FirstAdminPassword, "FIRST_ADMIN_PASSWORD")
	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&cfg.Storage.AccountID, "R2_ACCOUNT_ID")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.JWT.RefreshTTL == 0 {
		cfg.JWT.RefreshTTL = 24 * 30
	}
	if cfg.Auth.LoginDomain == "" {
		cfg.Auth.LoginDomain = "directory.local"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/uploads"
	}
	if cfg.Storage.SignedTTL == 0 {
		cfg.Storage.SignedTTL = 3600
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 10 * 1024 * 1024 // 10MB
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	if cfg.Upload.ImageQuality == 0 {
		cfg.Upload.ImageQuality = 85
	}
	if cfg.Upload.MaxImageSide == 0 {
		cfg.Upload.MaxImageSide = 1600
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "directory.events"
	}
	if cfg.Gate.ExemptPrefixes == nil {
		cfg.Gate.ExemptPrefixes = DefaultExemptPrefixes
	}
	if cfg.SiteStatus.PollInterval <= 0 {
		cfg.SiteStatus.PollInterval = 30
	}
	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 10
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = 60
	}
	if cfg.Workers.ProofSweepInterval <= 0 {
		cfg.Workers.ProofSweepInterval = 60
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// SignedURLTTL - время жизни подписанных ссылок на пруфы
func (c *Config) SignedURLTTL() time.Duration {
	return time.Duration(c.Storage.SignedTTL) * time.Second
}

func GetConfig() *Config {
	if AppConfig == nil {
		if err := LoadConfig(); err != nil {
			panic(err)
		}
	}
	return AppConfig
}

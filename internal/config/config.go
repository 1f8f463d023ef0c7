package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default upstream endpoint: report API yang jadi sumber dataset.
const defaultUpstreamBaseURL = "https://prod-backend.infomind.ai/automation-reports/reports"

type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"apiKey"`
		// CORSOrigins daftar origin yang diizinkan, default semua
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Database struct {
		// Driver: postgres, mysql, atau sqlite
		Driver string `yaml:"driver"`
		// URL set = dipakai apa adanya sebagai DSN, field lain diabaikan
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		// Path file database untuk sqlite
		Path string `yaml:"path"`
	} `yaml:"database"`

	Upstream struct {
		BaseURL        string `yaml:"baseURL"`
		BearerToken    string `yaml:"bearerToken"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		// Concurrency batas paralel fetch report per run
		Concurrency int `yaml:"concurrency"`
	} `yaml:"upstream"`

	OpenAI struct {
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"openai"`

	Refresh struct {
		MaxAgeHours int `yaml:"maxAgeHours"`
		// TimeoutSeconds budget refresh inline sebelum request menyerah
		TimeoutSeconds int `yaml:"timeoutSeconds"`
	} `yaml:"refresh"`

	RateLimit struct {
		Enabled      bool `yaml:"enabled"`
		Capacity     int  `yaml:"capacity"`
		RefillPerSec int  `yaml:"refillPerSec"`
	} `yaml:"ratelimit"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca file config.yaml lalu timpa dengan environment variables.
// File boleh tidak ada, deploy lama cuma pakai env.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	overlayEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 5000
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Log.Level = "info"
	cfg.Database.Driver = "postgres"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Name = "scenarios"
	cfg.Database.SSLMode = "disable"
	cfg.Database.Path = "scenarios.db"
	cfg.Upstream.BaseURL = defaultUpstreamBaseURL
	cfg.Upstream.TimeoutSeconds = 30
	cfg.Upstream.Concurrency = 4
	cfg.OpenAI.Model = "gpt-4o-mini"
	cfg.OpenAI.TimeoutSeconds = 15
	cfg.Refresh.MaxAgeHours = 24
	cfg.Refresh.TimeoutSeconds = 300
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Capacity = 60
	cfg.RateLimit.RefillPerSec = 1
	return cfg
}

func overlayEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("API_BEARER_TOKEN"); v != "" {
		cfg.Upstream.BearerToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("REFRESH_MAX_AGE_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.Refresh.MaxAgeHours = h
		}
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.Minio.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.Minio.BucketName = v
	}
}

// DSN balikin (driver, dsn) siap dioper ke connector sesuai driver.
func (c *Config) DSN() (string, string) {
	switch c.Database.Driver {
	case "mysql":
		return "mysql", c.MySQLDSN()
	case "sqlite":
		return "sqlite", c.Database.Path
	default:
		return "postgres", c.PostgresDSN()
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// MaxAge umur maksimum dataset sebelum query memicu refresh.
func (c *Config) MaxAge() time.Duration {
	h := c.Refresh.MaxAgeHours
	if h <= 0 {
		h = 24
	}
	return time.Duration(h) * time.Hour
}

// RefreshTimeout budget satu refresh inline.
func (c *Config) RefreshTimeout() time.Duration {
	s := c.Refresh.TimeoutSeconds
	if s <= 0 {
		s = 300
	}
	return time.Duration(s) * time.Second
}

// UpstreamTimeout batas waktu satu request ke report API.
func (c *Config) UpstreamTimeout() time.Duration {
	s := c.Upstream.TimeoutSeconds
	if s <= 0 {
		s = 30
	}
	return time.Duration(s) * time.Second
}

// InterpretTimeout batas waktu penerjemahan satu query.
func (c *Config) InterpretTimeout() time.Duration {
	s := c.OpenAI.TimeoutSeconds
	if s <= 0 {
		s = 15
	}
	return time.Duration(s) * time.Second
}

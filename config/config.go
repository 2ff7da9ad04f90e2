package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config 应用配置（由环境变量解析）
type Config struct {
	Mode     string `env:"GIN_MODE" envDefault:"debug"`
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Catalog  CatalogConfig
	Auth     AuthConfig
	Admin    AdminConfig
}

// ServerConfig 服务器配置结构
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowOrigins    []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173,http://localhost:4173"`
}

// DatabaseConfig 数据库配置结构
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"mysql"` // mysql 或 sqlite
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"3306"`
	User       string `env:"DB_USER" envDefault:"root"`
	Password   string `env:"DB_PASSWORD"`
	Name       string `env:"DB_NAME" envDefault:"readova"`
	Charset    string `env:"DB_CHARSET" envDefault:"utf8mb4"`
	SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"readova.db"`
}

// RedisConfig Redis配置结构
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// JWTConfig JWT配置结构
type JWTConfig struct {
	SecretKey      string        `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	ExpirationTime time.Duration `env:"JWT_EXPIRATION" envDefault:"168h"`
	Issuer         string        `env:"JWT_ISSUER" envDefault:"readova"`
}

// CatalogConfig 书目导入配置
type CatalogConfig struct {
	GoogleAPIKey    string             `env:"GOOGLE_BOOKS_API_KEY"`
	GoogleEndpoint  string             `env:"GOOGLE_BOOKS_ENDPOINT"`
	DefaultPrice    float64            `env:"CATALOG_DEFAULT_PRICE" envDefault:"5"`
	CategoryPrices  map[string]float64 `env:"CATALOG_CATEGORY_PRICES" envKeyValSeparator:"="`
	IngestRateLimit int                `env:"INGEST_RATE_LIMIT" envDefault:"30"` // 每分钟
	RefreshSchedule string             `env:"CATALOG_REFRESH_SCHEDULE"`
	RefreshQueries  []string           `env:"CATALOG_REFRESH_QUERIES" envSeparator:","`
	RefreshMax      int                `env:"CATALOG_REFRESH_MAX_RESULTS" envDefault:"20"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	MaxLoginAttempts   int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginBlockDuration time.Duration `env:"LOGIN_BLOCK_DURATION" envDefault:"15m"`
}

// AdminConfig 初始管理员账号
type AdminConfig struct {
	Name     string `env:"ADMIN_NAME" envDefault:"Administrator"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Load 加载 .env 并解析配置
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// IsDebug 是否为调试模式
func (c *Config) IsDebug() bool {
	return c.Mode == "" || c.Mode == "debug"
}

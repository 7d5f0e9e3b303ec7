package configs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string
	App       AppConfig
)

// AppConfig holds every setting read from the environment.
type AppConfig struct {
	Port string `env:"PORT" envDefault:"3000"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"require"`

	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`

	CorsOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5500"`

	RateLimitMax         int `env:"RATE_LIMIT_MAX" envDefault:"100"`
	LoginRateLimitMax    int `env:"LOGIN_RATE_LIMIT_MAX" envDefault:"5"`
	RegisterRateLimitMax int `env:"REGISTER_RATE_LIMIT_MAX" envDefault:"3"`

	RemediationRetentionDays int `env:"REMEDIATION_RETENTION_DAYS" envDefault:"7"`
	TokenBlacklistTTLDays    int `env:"TOKEN_BLACKLIST_TTL_DAYS" envDefault:"7"`

	SlowSQLThreshold time.Duration `env:"SLOW_SQL_THRESHOLD" envDefault:"500ms"`

	Seed    bool   `env:"SEED" envDefault:"false"`
	SeedDir string `env:"SEED_DIR" envDefault:"internals/seeds/data"`

	RailwayEnvironment string `env:"RAILWAY_ENVIRONMENT"`
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if GetEnv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ No .env file found, using system environment")
		} else {
			log.Println("✅ .env file loaded")
		}
	} else {
		log.Println("🚀 Running on Railway, using system environment")
	}

	cfg, err := ParseAppConfig()
	if err != nil {
		log.Printf("[ERROR] %v, falling back to defaults", err)
	}
	App = cfg
	JWTSecret = cfg.JWTSecret

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	} else {
		log.Println("✅ JWT_SECRET loaded.")
	}
}

// ParseAppConfig reads AppConfig from the current environment.
func ParseAppConfig() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return defaultAppConfig(), fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:                     "3000",
		DBHost:                   "localhost",
		DBPort:                   "5432",
		DBSSLMode:                "require",
		AccessTokenTTL:           24 * time.Hour,
		CorsOrigins:              []string{"http://localhost:5173", "http://127.0.0.1:5500"},
		RateLimitMax:             100,
		LoginRateLimitMax:        5,
		RegisterRateLimitMax:     3,
		RemediationRetentionDays: 7,
		TokenBlacklistTTLDays:    7,
		SlowSQLThreshold:         500 * time.Millisecond,
		SeedDir:                  "internals/seeds/data",
	}
}

// DSN builds the postgres connection string.
func (c AppConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=medcard&options=-c statement_timeout=3000",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger(slow time.Duration) gormLogger.Interface {
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &GormLogger{
		SlowThreshold: slow,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	JWTSecret string

	// Application
	AppEnv   string
	AppPort  string
	LogLevel string

	// Rate Limiting (API middleware)
	RateLimitPerPlayer int
	RateLimitPerIP     int
	TrustProxyHeaders  bool

	// Rewarded ads
	AdHourlyLimit       int
	AdMaxSpeedUpMinutes int
	AdEnergyRestore     int

	// Daily reward
	DailyRewardCrystals int64
	DailyStreakBonus    int64
	DailyStreakCap      int

	// Game
	DefaultCrystals int64
	ToolRepairCost  int64

	// Notifications (optional)
	TelegramBotToken string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "eldergrove"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "eldergrove_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET_KEY", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitPerPlayer: getEnvInt("RATE_LIMIT_PER_PLAYER", 30),
		RateLimitPerIP:     getEnvInt("RATE_LIMIT_PER_IP", 100),
		TrustProxyHeaders:  getEnvBool("TRUST_PROXY_HEADERS", false),

		AdHourlyLimit:       getEnvInt("AD_HOURLY_LIMIT", 5),
		AdMaxSpeedUpMinutes: getEnvInt("AD_MAX_SPEEDUP_MINUTES", 60),
		AdEnergyRestore:     getEnvInt("AD_ENERGY_RESTORE", 25),

		DailyRewardCrystals: getEnvInt64("DAILY_REWARD_CRYSTALS", 50),
		DailyStreakBonus:    getEnvInt64("DAILY_STREAK_BONUS", 10),
		DailyStreakCap:      getEnvInt("DAILY_STREAK_CAP", 7),

		DefaultCrystals: getEnvInt64("DEFAULT_CRYSTALS", 100),
		ToolRepairCost:  getEnvInt64("TOOL_REPAIR_COST", 25),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.AdHourlyLimit < 1 {
		return fmt.Errorf("AD_HOURLY_LIMIT must be at least 1")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// GetAdWindow returns the rolling eligibility window for rewarded ads.
func (c *Config) GetAdWindow() time.Duration {
	return time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

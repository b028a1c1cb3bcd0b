package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	InputPath        string
	SeedPath         string
	CurrencySymbol   string
	Lenient          bool
	Format           string
	LogLevel         string
	LogDevelopment   bool
	MySQLDSN         string
	RedisAddr        string
	HTTPAddr         string
	GRPCAddr         string
	RemoteAddr       string
	JournalQueueSize int
}

// LoadConfig reads the environment. Empty MYSQL_DSN or REDIS_ADDR disables
// the journal or the drawer mirror.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		InputPath:      getEnv("TILL_INPUT", "input.txt"),
		SeedPath:       getEnv("TILL_SEED", ""),
		CurrencySymbol: getEnv("TILL_CURRENCY", "R"),
		Format:         getEnv("TILL_FORMAT", "text"),
		LogLevel:       getEnv("TILL_LOG_LEVEL", "info"),
		MySQLDSN:       getEnv("MYSQL_DSN", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:       getEnv("GRPC_ADDR", ":50051"),
		RemoteAddr:     getEnv("TILL_REMOTE", ""),
	}

	var err error
	if cfg.Lenient, err = getBool("TILL_LENIENT", false); err != nil {
		return nil, err
	}
	if cfg.LogDevelopment, err = getBool("TILL_LOG_DEV", false); err != nil {
		return nil, err
	}
	if cfg.JournalQueueSize, err = getInt("JOURNAL_QUEUE_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.JournalQueueSize <= 0 {
		return nil, fmt.Errorf("JOURNAL_QUEUE_SIZE must be positive, got %d", cfg.JournalQueueSize)
	}
	return cfg, nil
}

// JournalEnabled reports whether records should be published for storage.
func (c *Config) JournalEnabled() bool {
	return c.MySQLDSN != "" || c.RedisAddr != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDriver     string
	DBDSN        string
	TemplatesDir string
	LogFile      string
	LogLevel     string
	SeedDemo     bool

	// Sale events; publishing is disabled when AMQPURL is empty.
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Write protection; disabled when AdminUser is empty.
	AdminUser         string
	AdminPasswordHash string

	RateLimitPerMin int
}

// Load reads an optional .env file, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:              getEnv("PORT", "8000"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:             getEnv("DB_DSN", "smarttrack.db"),
		TemplatesDir:      getEnv("TEMPLATES_DIR", "./web/templates"),
		LogFile:           getEnv("LOG_FILE", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SeedDemo:          getEnvBool("SEED_DEMO", false),
		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "smarttrack"),
		AMQPRoutingKey:    getEnv("AMQP_ROUTING_KEY", "sale.created"),
		AdminUser:         getEnv("ADMIN_USER", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MIN", 120),
	}
	return cfg
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case "sqlite", "mysql":
	default:
		problems = append(problems, fmt.Sprintf("invalid DB driver '%s': must be one of [sqlite mysql]", c.DBDriver))
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		problems = append(problems, "DB_DSN cannot be empty")
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AdminUser != "" && !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		problems = append(problems, "ADMIN_PASSWORD_HASH must be a bcrypt hash when ADMIN_USER is set")
	}

	if c.RateLimitPerMin < 0 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be >= 0", c.RateLimitPerMin))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Redacted is safe to log.
func (c Config) Redacted() map[string]any {
	amqp := ""
	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err == nil {
			amqp = u.Redacted()
		}
	}
	return map[string]any{
		"port":          c.Port,
		"db_driver":     c.DBDriver,
		"templates_dir": c.TemplatesDir,
		"log_file":      c.LogFile,
		"seed_demo":     c.SeedDemo,
		"amqp_url":      amqp,
		"write_auth":    c.AdminUser != "",
		"rate_limit":    c.RateLimitPerMin,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/carryhub/carry-service/internal/model"
	"github.com/joho/godotenv"
)

// DefaultModes — режимы carry по умолчанию; event требует 35+ уровень.
var DefaultModes = []model.Mode{
	{Value: "easy", Name: "Easy", MinLevel: 0},
	{Value: "fallen", Name: "Fallen", MinLevel: 0},
	{Value: "frost", Name: "Frost Invasion", MinLevel: 0},
	{Value: "event", Name: "Event", MinLevel: 35},
}

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// KafkaBrokers/KafkaTopic — если заданы, сервис шлёт события тикетов
	// в Kafka (best-effort, не блокирует API).
	KafkaBrokers string
	KafkaTopic   string

	// Modes — допустимые режимы carry с минимальным уровнем.
	Modes []model.Mode

	// MaxTicketsPerSession — сессия закрывается после стольких тикетов
	// (0 — без лимита).
	MaxTicketsPerSession int

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:      getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:     firstEnv("APP_PORT", "HTTP_PORT", "8098"),
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "carry.ticket.events"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "carry_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	modes, err := parseModes(getEnv("MODES", ""))
	if err != nil {
		return nil, err
	}
	cfg.Modes = modes

	max, err := strconv.Atoi(getEnv("MAX_TICKETS_PER_SESSION", "60"))
	if err != nil || max < 0 {
		return nil, fmt.Errorf("config: invalid MAX_TICKETS_PER_SESSION")
	}
	cfg.MaxTicketsPerSession = max

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if len(c.Modes) == 0 {
		return errors.New("config: at least one mode is required")
	}
	return nil
}

// Mode ищет режим по значению.
func (c *Config) Mode(value string) (model.Mode, bool) {
	for _, m := range c.Modes {
		if m.Value == value {
			return m, true
		}
	}
	return model.Mode{}, false
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// parseModes разбирает MODES="easy:Easy:0,event:Event:35"; пустая строка
// даёт DefaultModes.
func parseModes(s string) ([]model.Mode, error) {
	if strings.TrimSpace(s) == "" {
		out := make([]model.Mode, len(DefaultModes))
		copy(out, DefaultModes)
		return out, nil
	}
	var out []model.Mode
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("config: invalid MODES entry %q (want value:Name:minLevel)", entry)
		}
		min, err := strconv.Atoi(parts[2])
		if err != nil || min < 0 {
			return nil, fmt.Errorf("config: invalid min level in MODES entry %q", entry)
		}
		out = append(out, model.Mode{Value: parts[0], Name: parts[1], MinLevel: min})
	}
	if len(out) == 0 {
		return nil, errors.New("config: MODES parsed to an empty set")
	}
	return out, nil
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

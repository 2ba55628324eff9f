package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"remindbot/pkg/tz"
)

const (
	DefaultDatabaseURL      = "sqlite://bot.db"
	DefaultGeminiModel      = "gemini-2.0-flash"
	DefaultLocale           = "en"
	DefaultReminderInterval = 60 * time.Second
	DefaultRemindBefore     = 15 * time.Minute
	DefaultCommandPrefix    = "!"
)

// ErrMissingSecret is returned when a required credential is absent.
var ErrMissingSecret = errors.New("config: required secret is missing")

type Config struct {
	DiscordToken     string
	GeminiAPIKey     string
	GeminiModel      string
	DatabaseURL      string
	Locale           string
	Timezone         string
	Location         *time.Location
	ReminderInterval time.Duration
	// RemindBefore is the lead of the reminder created with each event; 0 disables it.
	RemindBefore  time.Duration
	CommandPrefix string
	GuildID       string
	MetricsAddr   string
	LogLevel      string
	LogFormat     string
}

// Load reads the configuration from the environment, after an optional .env
// file, and validates it.
func Load() (*Config, error) {
	// .env is optional when variables come from the environment (Docker, CI, etc.).
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:  os.Getenv("DISCORD_TOKEN"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   os.Getenv("GEMINI_MODEL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Locale:        os.Getenv("LOCALE"),
		Timezone:      os.Getenv("TIMEZONE"),
		CommandPrefix: os.Getenv("COMMAND_PREFIX"),
		GuildID:       os.Getenv("GUILD_ID"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogFormat:     os.Getenv("LOG_FORMAT"),
	}

	var err error
	if cfg.ReminderInterval, err = durationEnv("REMINDER_INTERVAL", DefaultReminderInterval); err != nil {
		return nil, err
	}
	if cfg.RemindBefore, err = durationEnv("REMIND_BEFORE", DefaultRemindBefore); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s is not a duration (%q): %w", key, raw, err)
	}
	return d, nil
}

// validate applies defaults and checks every field.
func (c *Config) validate() error {
	if strings.TrimSpace(c.DiscordToken) == "" {
		return fmt.Errorf("%w: DISCORD_TOKEN", ErrMissingSecret)
	}
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingSecret)
	}

	if strings.TrimSpace(c.GeminiModel) == "" {
		c.GeminiModel = DefaultGeminiModel
	}
	if strings.TrimSpace(c.CommandPrefix) == "" {
		c.CommandPrefix = DefaultCommandPrefix
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		c.DatabaseURL = DefaultDatabaseURL
	}
	if strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		parsed, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("config: invalid DATABASE_URL (%q): %w", c.DatabaseURL, err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("config: invalid DATABASE_URL (%q): missing host", c.DatabaseURL)
		}
	} else if strings.TrimPrefix(c.DatabaseURL, "sqlite://") == "" {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): missing file path", c.DatabaseURL)
	}

	if strings.TrimSpace(c.Locale) == "" {
		c.Locale = DefaultLocale
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("config: invalid LOCALE (%q): %w", c.Locale, err)
	}

	loc, err := tz.Load(c.Timezone)
	if err != nil {
		return fmt.Errorf("config: invalid TIMEZONE (%q): %w", c.Timezone, err)
	}
	c.Location = loc

	if c.ReminderInterval <= 0 {
		return fmt.Errorf("config: REMINDER_INTERVAL must be positive, got %s", c.ReminderInterval)
	}
	if c.RemindBefore < 0 {
		return fmt.Errorf("config: REMIND_BEFORE must not be negative, got %s", c.RemindBefore)
	}

	for _, r := range c.GuildID {
		if r < '0' || r > '9' {
			return fmt.Errorf("config: GUILD_ID must be a Discord server ID (digits only)")
		}
	}

	return nil
}

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"morningbot/internal/platform/pg"
)

// Config holds application configuration values.
type Config struct {
	Env      string `validate:"required,oneof=dev prod"`
	Telegram struct {
		Token         string `validate:"required"`
		WebhookURL    string
		WebhookSecret string
	}
	HTTP struct {
		Addr string `validate:"required"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
	Store struct {
		Driver        string `validate:"required,oneof=csv sqlite postgres"`
		Path          string
		DSN           string
		MigrationsURL string
	}
	Reminder struct {
		Timezone string `validate:"required,timezone"`
		// DefaultHour is the hour used by /set without arguments.
		DefaultHour int `validate:"min=0,max=23"`
		// Morning window bounds, inclusive. Requests outside are rejected.
		WindowEnabled bool
		WindowFloor   int `validate:"min=0,max=23"`
		WindowCutoff  int `validate:"min=0,max=23"`
		PhrasesFile   string
	}
	// AllowedIDs restricts the bot to the listed chat IDs. Empty = open.
	AllowedIDs []int64
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	var err error
	c.Env = getenv("ENV", "prod")
	c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.Telegram.WebhookURL = os.Getenv("TELEGRAM_WEBHOOK_URL")
	c.Telegram.WebhookSecret = os.Getenv("TELEGRAM_WEBHOOK_SECRET")
	c.HTTP.Addr = getenv("HTTP_ADDR", ":80")
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = getenv("LOG_FILE", "data/logs/bot.log")

	c.Store.Driver = strings.ToLower(getenv("STORE_DRIVER", "csv"))
	c.Store.Path = getenv("STORE_PATH", defaultStorePath(c.Store.Driver))
	c.Store.DSN, err = postgresDSN()
	if err != nil {
		return Config{}, err
	}
	c.Store.MigrationsURL = getenv("STORE_MIGRATIONS_URL", defaultMigrationsURL(c.Store.Driver))

	c.Reminder.Timezone = getenv("TIMEZONE", "Europe/Riga")

	c.Reminder.DefaultHour, err = getenvInt("DEFAULT_HOUR", 7)
	if err != nil {
		return Config{}, err
	}
	c.Reminder.WindowEnabled = getenvBool("MORNING_WINDOW_ENABLED", true)
	c.Reminder.WindowFloor, err = getenvInt("MORNING_WINDOW_FLOOR", 5)
	if err != nil {
		return Config{}, err
	}
	c.Reminder.WindowCutoff, err = getenvInt("MORNING_WINDOW_CUTOFF", 12)
	if err != nil {
		return Config{}, err
	}
	c.Reminder.PhrasesFile = os.Getenv("PHRASES_FILE")

	c.AllowedIDs, err = parseIDList(os.Getenv("ALLOWED_IDS"))
	if err != nil {
		return Config{}, err
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	if c.Telegram.WebhookURL != "" && c.Telegram.WebhookSecret == "" {
		return Config{}, errors.New("TELEGRAM_WEBHOOK_SECRET required when TELEGRAM_WEBHOOK_URL is set")
	}
	if c.Store.Driver == "postgres" {
		if c.Store.DSN == "" {
			return Config{}, errors.New("DATABASE_URL or PGHOST/PGDATABASE required when STORE_DRIVER=postgres")
		}
		if _, err := pg.ParseDSN(c.Store.DSN); err != nil {
			return Config{}, errors.New("DATABASE_URL is not a valid postgres DSN: " + err.Error())
		}
	}
	if c.Reminder.WindowEnabled && c.Reminder.WindowFloor > c.Reminder.WindowCutoff {
		return Config{}, errors.New("MORNING_WINDOW_FLOOR must not exceed MORNING_WINDOW_CUTOFF")
	}
	return c, nil
}

// postgresDSN returns DATABASE_URL when set, otherwise assembles a DSN from
// the discrete PG* variables. Returns "" when neither form is configured.
func postgresDSN() (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}
	if os.Getenv("PGHOST") == "" && os.Getenv("PGDATABASE") == "" {
		return "", nil
	}

	port, err := getenvInt("PGPORT", 5432)
	if err != nil {
		return "", err
	}
	return pg.BuildDSN(pg.DSNConfig{
		Host:            os.Getenv("PGHOST"),
		Port:            port,
		User:            os.Getenv("PGUSER"),
		Password:        os.Getenv("PGPASSWORD"),
		Database:        os.Getenv("PGDATABASE"),
		SSLMode:         os.Getenv("PGSSLMODE"),
		ApplicationName: "morningbot",
	}), nil
}

func defaultStorePath(driver string) string {
	if driver == "sqlite" {
		return "data/schedules.db"
	}
	return "data/schedules.csv"
}

func defaultMigrationsURL(driver string) string {
	switch driver {
	case "sqlite":
		return "file://migrations/sqlite"
	case "postgres":
		return "file://migrations/postgres"
	default:
		return ""
	}
}

func parseIDList(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.New("ALLOWED_IDS must be a comma-separated list of integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(k + " must be an integer")
	}
	return n, nil
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

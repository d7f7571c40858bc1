package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "log/slog"
    "os"      // os provides access to environment variables
    "strings"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    LogFile        string // slog destination for the interactive client
    LogLevel       string // debug | info | warn | error
    TicketSecret   string // HMAC secret for ticket codes; empty disables tickets
    TicketTTLHours int    // how long an issued ticket code stays valid
    AMQPURL        string // RabbitMQ URL; empty disables booking events in the client
}

// Load reads configuration values from the environment and returns a
// Config.  A .env file in the working directory is applied first when
// present; variables already set in the process environment win.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
    _ = godotenv.Load() // optional; absent .env is not an error
    return Config{
        Env:            getenv("APP_ENV", "dev"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        LogFile:        getenv("LOG_FILE", "logs/booking-app.log"),
        LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
        TicketSecret:   os.Getenv("TICKET_SECRET"),
        TicketTTLHours: envInt("TICKET_TTL_HOURS", 72),
        AMQPURL:        AMQPURL(""),
    }
}

// LoadFile applies the given env file before Load.  It is used by tools
// that accept an explicit --env-file flag.
func LoadFile(path string) (Config, error) {
    if path != "" {
        if err := godotenv.Load(path); err != nil {
            return Config{}, err
        }
    }
    return Load(), nil
}

// AMQPURL returns the broker URL from RABBITMQ_URL or AMQP_URL, falling
// back to def when neither is set.
func AMQPURL(def string) string {
    if url := os.Getenv("RABBITMQ_URL"); url != "" {
        return url
    }
    if url := os.Getenv("AMQP_URL"); url != "" {
        return url
    }
    return def
}

// SlogLevel maps LOG_LEVEL onto a slog level.  Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
    switch c.LogLevel {
    case "debug":
        return slog.LevelDebug
    case "warn", "warning":
        return slog.LevelWarn
    case "error":
        return slog.LevelError
    default:
        return slog.LevelInfo
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

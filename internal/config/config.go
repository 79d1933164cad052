package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBDriver       string // mysql, postgres or sqlite
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	SQLitePath     string // database file when DBDriver is sqlite
	AutoMigrate    bool   // apply the embedded schema at startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	BookingTxTimeout time.Duration // upper bound for one booking transaction
	CORSOrigins      []string      // allowed browser origins
	BodyLimit        string        // max request body, echo size syntax ("100K")
	LogLevel         string        // debug, info, warn, error, off
	RabbitMQURL      string        // broker URL for booking events; empty disables publishing
	LogDir           string        // directory the booking consumer writes to
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing or malformed required variables cause the program to
// exit with a fatal log message.
func Load() Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse is Load without the exit: every problem found is joined into the
// returned error.
func Parse() (Config, error) {
	p := &parser{}
	cfg := Config{
		Env:            p.must("APP_ENV"),
		Port:           p.must("APP_PORT"),
		DBDriver:       strings.ToLower(envStr("DB_DRIVER", "mysql")),
		DBPass:         os.Getenv("DB_PASS"),
		SQLitePath:     envStr("SQLITE_PATH", "data/studio.db"),
		AutoMigrate:    envBool("AUTO_MIGRATE", false),
		JWTSecret:      p.must("JWT_SECRET"),
		AccessTTLMin:   p.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: p.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     p.mustInt("BCRYPT_COST"),

		BookingTxTimeout: envDur("BOOKING_TX_TIMEOUT", 5*time.Second),
		CORSOrigins:      splitList(envStr("CORS_ORIGINS", "http://localhost:3000")),
		BodyLimit:        envStr("BODY_LIMIT", "100K"),
		LogLevel:         strings.ToLower(envStr("LOG_LEVEL", "info")),
		RabbitMQURL:      envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		LogDir:           envStr("BOOKING_LOG_DIR", "logs"),
	}
	// server databases need connection details; sqlite only needs a path
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "sqlite3" {
		cfg.DBUser = p.must("DB_USER")
		cfg.DBHost = p.must("DB_HOST")
		cfg.DBPort = p.must("DB_PORT")
		cfg.DBName = p.must("DB_NAME")
	}
	if cfg.BookingTxTimeout <= 0 {
		p.errs = append(p.errs, errors.New("BOOKING_TX_TIMEOUT must be positive"))
	}
	return cfg, errors.Join(p.errs...)
}

// parser collects missing and malformed keys instead of stopping at the
// first one.
type parser struct{ errs []error }

// must retrieves the value of a required environment variable.
func (p *parser) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		p.errs = append(p.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func (p *parser) mustInt(key string) int {
	s := p.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

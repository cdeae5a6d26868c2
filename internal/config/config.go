// Package config centralizes process configuration. All tunables live
// outside the code and are sourced from command-line flags with
// environment-variable fallbacks (12-factor friendly); a .env file is loaded
// first when present so local runs behave like deployed ones.
//
// Typical usage:
//
//	cfg := config.Load() // reads os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-csv=/tmp/x.csv"})
package config

import (
	"flag"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultCSVPath is used when neither CSV_FILE_PATH nor the -csv flag is set.
const DefaultCSVPath = "/app/data/usage_sample.csv"

// Config holds all process configuration derived from flags and environment
// variables. All fields are plain values so the struct can be copied freely
// after construction; no component reads ambient environment state directly.
type Config struct {
	// Input.
	CSVPath      string // path to the usage CSV; flag -csv overrides env CSV_FILE_PATH
	ExpectedCols int    // column count the structural validator and loader enforce

	// Database connection parts; the DSN is assembled by DSN().
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Retention policy.
	RetentionEnabled bool
	RetentionMonths  int

	// Alerting. Email delivery activates only when sender, receiver and
	// server are all present; otherwise alerts are log-only.
	AlertSender   string
	AlertReceiver string // comma-separated list accepted
	SMTPServer    string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string

	// Observability.
	PushgatewayURL string // empty disables metrics push
	LogLevel       string
}

// Load builds a Config from the real process environment and os.Args. A .env
// file next to the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	return LoadFromArgs(fs, os.Getenv, os.Args[1:])
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag to
// an environment-variable fallback via getenv, and then parsing args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	envOr := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOr := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOr := func(k string, d bool) bool {
		v := strings.ToLower(strings.TrimSpace(getenv(k)))
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		return d
	}

	cfg := &Config{}

	fs.StringVar(&cfg.CSVPath, "csv", envOr("CSV_FILE_PATH", DefaultCSVPath), "path to the input usage CSV")
	fs.IntVar(&cfg.ExpectedCols, "expected_columns", intEnvOr("EXPECTED_CSV_COLUMNS", 9), "expected column count per CSV row")

	fs.StringVar(&cfg.DBHost, "db_host", envOr("TELCO_DATABASE_HOST", "localhost"), "database host")
	fs.StringVar(&cfg.DBPort, "db_port", envOr("TELCO_DATABASE_PORT", "5432"), "database port")
	fs.StringVar(&cfg.DBUser, "db_user", envOr("TELCO_DATABASE_USER", "postgres"), "database user")
	fs.StringVar(&cfg.DBPassword, "db_password", envOr("TELCO_DATABASE_PASSWORD", ""), "database password")
	fs.StringVar(&cfg.DBName, "db_name", envOr("TELCO_DATABASE_NAME", "telco_database"), "database name")

	fs.BoolVar(&cfg.RetentionEnabled, "retention", boolEnvOr("ENABLE_RETENTION_POLICY", false), "enable age-based deletion of old records")
	fs.IntVar(&cfg.RetentionMonths, "retention_months", intEnvOr("RETENTION_PERIOD_MONTHS", 6), "retention horizon in months")

	fs.StringVar(&cfg.AlertSender, "alert_sender", envOr("ALERT_SENDER_EMAIL", ""), "alert sender address")
	fs.StringVar(&cfg.AlertReceiver, "alert_receiver", envOr("ALERT_RECEIVER_EMAIL", ""), "alert receiver address(es), comma-separated")
	fs.StringVar(&cfg.SMTPServer, "smtp_server", envOr("SMTP_SERVER", ""), "SMTP server host")
	fs.IntVar(&cfg.SMTPPort, "smtp_port", intEnvOr("SMTP_PORT", 587), "SMTP server port")
	fs.StringVar(&cfg.SMTPUser, "smtp_user", envOr("SMTP_USER", ""), "SMTP auth user")
	fs.StringVar(&cfg.SMTPPassword, "smtp_password", envOr("SMTP_PASSWORD", ""), "SMTP auth password")

	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", envOr("PUSHGATEWAY_URL", ""), "Prometheus Pushgateway base URL (empty disables metrics)")
	fs.StringVar(&cfg.LogLevel, "log_level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	_ = fs.Parse(args)
	return cfg
}

// DSN assembles a postgres:// connection string from the discrete parts,
// escaping credentials.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	if c.DBUser != "" {
		if c.DBPassword != "" {
			u.User = url.UserPassword(c.DBUser, c.DBPassword)
		} else {
			u.User = url.User(c.DBUser)
		}
	}
	return u.String()
}

// EmailConfigured reports whether alert emails can be attempted: sender,
// receiver and server must all be present.
func (c *Config) EmailConfigured() bool {
	return c.AlertSender != "" && c.AlertReceiver != "" && c.SMTPServer != ""
}

package config

import (
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string
	SiteID    string // stamped on change-log events

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	EnableAuth     bool
	AuthHMACSecret string

	AdminUser      string
	AdminPassHash  string // bcrypt
	EditorUser     string
	EditorPassHash string // bcrypt; empty disables the account

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	LogLevel       slog.Level
	RequestTimeout time.Duration
}

// CORSOrigins returns the allow-list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// LoadEnv reads a .env file from the working directory when there is one.
// Variables already set in the environment win.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Printf("config: no .env loaded (%v), using process environment", err)
	}
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/"),
		SiteID:    envOr("SITE_ID", "local"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		// offline installs run on a trusted LAN; online always needs a token
		EnableAuth:     envBool("ENABLE_AUTH", mode == ModeOnline),
		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),

		AdminUser:      envOr("ADMIN_USER", "admin"),
		AdminPassHash:  envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		EditorUser:     envOr("EDITOR_USER", "editor"),
		EditorPassHash: os.Getenv("EDITOR_PASS_HASH"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://qbank.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),

		LogLevel:       levelOr("LOG_LEVEL", slog.LevelInfo),
		RequestTimeout: durationOr("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func durationOr(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func levelOr(k string, def slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(os.Getenv(k))); err != nil {
		return def
	}
	return l
}

package config

import (
	"strings"
	"time"

	"recanto_verde_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port           string
	CORSOrigins    []string
	LoginRateLimit string
	WSSendBuffer   int

	Log   LogConfig
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
	Seed  SeedConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// DBConfig selects the store. Driver "memory" keeps all state in process.
type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

// RedisConfig is only used when Host is set; otherwise events stay in process.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

type AuthConfig struct {
	JWTSecret string
	JWTTTL    time.Duration
}

// SeedConfig describes the superadmin created on an empty users table.
type SeedConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Enabled reports whether a redis broker was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		utils.LogDebug("No .env file found, using environment variables")
	}

	return Config{
		Port:           utils.Getenv("PORT", "8080"),
		CORSOrigins:    splitList(utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LoginRateLimit: utils.Getenv("LOGIN_RATE_LIMIT", "20-M"),
		WSSendBuffer:   utils.GetenvInt("WS_SEND_BUFFER", 32),
		Log: LogConfig{
			Level:  utils.Getenv("LOG_LEVEL", "info"),
			Format: utils.Getenv("LOG_FORMAT", "console"),
		},
		DB: DBConfig{
			Driver:   strings.ToLower(utils.Getenv("DB_DRIVER", DriverPostgres)),
			Host:     utils.Getenv("DB_HOST", "localhost"),
			Port:     utils.Getenv("DB_PORT", "5432"),
			User:     utils.Getenv("DB_USER", "recanto"),
			Password: utils.Getenv("DB_PASSWORD", "recanto"),
			Name:     utils.Getenv("DB_NAME", "recanto_verde"),
			SSLMode:  utils.Getenv("DB_SSLMODE", "disable"),
			Migrate:  utils.GetenvBool("DB_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     utils.Getenv("REDIS_HOST", ""),
			Port:     utils.Getenv("REDIS_PORT", "6379"),
			Password: utils.Getenv("REDIS_PASSWORD", ""),
			DB:       utils.GetenvInt("REDIS_DB", 0),
			Channel:  utils.Getenv("REDIS_CHANNEL", "floor:events"),
		},
		Auth: AuthConfig{
			JWTSecret: utils.Getenv("JWT_SECRET", ""),
			JWTTTL:    utils.GetenvDuration("JWT_TTL", 12*time.Hour),
		},
		Seed: SeedConfig{
			AdminName:     utils.Getenv("SEED_ADMIN_NAME", "Administrator"),
			AdminEmail:    utils.Getenv("SEED_ADMIN_EMAIL", ""),
			AdminPassword: utils.Getenv("SEED_ADMIN_PASSWORD", ""),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

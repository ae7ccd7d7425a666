package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string

	HTTPAddress      string
	AllowedOrigins   []string
	AllowCredentials bool
	ShutdownTimeout  time.Duration

	PasswordHasher string
	BcryptCost     int

	LogLevel string
}

var required = []string{"DATABASE_URL", "JWT_SECRET"}

// Load reads .env (if present), config.json (if present) and the environment.
// Environment wins over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("TOKEN_TTL", time.Hour)
	v.SetDefault("HTTP_ADDRESS", ":3000")
	v.SetDefault("SHUTDOWN_TIMEOUT", 5*time.Second)
	v.SetDefault("PASSWORD_HASHER", "bcrypt")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("%s is not set", key)
		}
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		Issuer:           v.GetString("JWT_ISSUER"),
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		AllowedOrigins:   splitList(v.GetString("ALLOWED_ORIGINS")),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		PasswordHasher:   strings.ToLower(v.GetString("PASSWORD_HASHER")),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		LogLevel:         v.GetString("LOG_LEVEL"),
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	switch cfg.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		return nil, fmt.Errorf("unknown PASSWORD_HASHER %q", cfg.PasswordHasher)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

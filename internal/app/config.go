package app

import (
	"time"

	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
)

type Config struct {
	Env        string
	Port       string
	AppBaseURL string

	SessionTTL time.Duration
	AccessDays int
}

func LoadConfig() Config {
	return Config{
		Env:        envutil.String("APP_ENV", "development"),
		Port:       envutil.String("PORT", "8080"),
		AppBaseURL: envutil.String("APP_BASE_URL", "https://app.dietoteka.pl"),
		SessionTTL: time.Duration(envutil.Int("SESSION_TTL_HOURS", 720)) * time.Hour,
		AccessDays: envutil.Int("PZK_ACCESS_DAYS", 365),
	}
}

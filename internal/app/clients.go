package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/gcp"
	"github.com/dietoteka/dietoteka-backend/internal/platform/ratelimit"
	"github.com/dietoteka/dietoteka-backend/internal/platform/recaptcha"
	"github.com/dietoteka/dietoteka-backend/internal/platform/redisdb"
	"github.com/dietoteka/dietoteka-backend/internal/platform/sendgrid"
)

type Clients struct {
	Bucket      gcp.BucketService
	Mailer      sendgrid.Client
	Captcha     recaptcha.Verifier
	Redis       *redis.Client
	RateLimiter *ratelimit.Limiter
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	mailer, err := sendgrid.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
	}

	// Captcha is optional: without a secret, login skips verification.
	var captcha recaptcha.Verifier
	if strings.TrimSpace(os.Getenv("RECAPTCHA_SECRET")) != "" {
		captcha, err = recaptcha.NewFromEnv(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init recaptcha client: %w", err)
		}
	} else {
		log.Warn("RECAPTCHA_SECRET not set, captcha verification disabled")
	}

	// Redis backs the rate limiter; without it the limiter stays off.
	var rdb *redis.Client
	var limiter *ratelimit.Limiter
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" || strings.TrimSpace(os.Getenv("REDIS_URL")) != "" {
		rdb, err = redisdb.New(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis client: %w", err)
		}
		limiter = ratelimit.NewLimiter(log, rdb, ratelimit.ConfigFromEnv())
	} else {
		log.Warn("REDIS_ADDR not set, rate limiting disabled")
	}

	return Clients{
		Bucket:      bucket,
		Mailer:      mailer,
		Captcha:     captcha,
		Redis:       rdb,
		RateLimiter: limiter,
	}, nil
}

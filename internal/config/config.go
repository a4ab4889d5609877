package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN            string `env:"DATABASE_DSN,required=true"`
	RedisURL               string `env:"REDIS_URL,required=true"`
	RabbitMQURL            string `env:"RABBITMQ_URL,required=true"`
	StripeAPIKey           string `env:"STRIPE_API_KEY,required=true"`
	StripeWebhookSecret    string `env:"STRIPE_WEBHOOK_SECRET,required=true"`
	SendGridAPIKey         string `env:"SENDGRID_API_KEY"`
	FromEmail              string `env:"FROM_EMAIL,default=no-reply@influencelytic.com"`
	FrontendURL            string `env:"FRONTEND_URL,default=http://localhost:3000"`
	PaymentRateLimitPerSec int    `env:"PAYMENT_RATE_LIMIT_PER_SEC,default=5"`
	DispatcherConcurrency  int    `env:"DISPATCHER_CONCURRENCY,default=4"`
	APIPort                int    `env:"API_PORT,default=8080"`
	LogLevel               string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"development"`
	HTTP     HTTP
	Postgres Postgres
	Redis    Redis
	Stripe   Stripe
	Checkout Checkout
	Notify   Notify
}

type HTTP struct {
	Addr         string        `env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Postgres struct {
	Host              string        `env:"DB_HOST" env-default:"localhost"`
	Port              int           `env:"DB_PORT" env-default:"5432"`
	User              string        `env:"DB_USER" env-required:"true"`
	Password          string        `env:"DB_PASSWORD" env-required:"true"`
	DBName            string        `env:"DB_NAME" env-required:"true"`
	SSLMode           string        `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns      int           `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns      int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime   time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	RetryConnAttempts uint          `env:"DB_RETRY_CONN_ATTEMPTS" env-default:"3"`
	RetryConnDelay    time.Duration `env:"DB_RETRY_CONN_DELAY" env-default:"1s"`
}

type Redis struct {
	URL         string        `env:"REDIS_URL" env-default:""`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
}

type Stripe struct {
	SecretKey      string        `env:"STRIPE_SECRET_KEY" env-required:"true"`
	RequestTimeout time.Duration `env:"STRIPE_REQUEST_TIMEOUT" env-default:"8s"`
}

type Checkout struct {
	SessionTTL      time.Duration `env:"CHECKOUT_SESSION_TTL" env-default:"30m"`
	DefaultCurrency string        `env:"CHECKOUT_DEFAULT_CURRENCY" env-default:"USD"`
}

type Notify struct {
	SlackWebhookURL string        `env:"NOTIFY_SLACK_WEBHOOK_URL" env-default:""`
	EmailEndpoint   string        `env:"NOTIFY_EMAIL_ENDPOINT" env-default:""`
	EmailAPIKey     string        `env:"NOTIFY_EMAIL_API_KEY" env-default:""`
	PixelEndpoints  []string      `env:"NOTIFY_PIXEL_ENDPOINTS" env-default:""`
	KafkaBrokers    []string      `env:"NOTIFY_KAFKA_BROKERS" env-default:""`
	KafkaTopic      string        `env:"NOTIFY_KAFKA_TOPIC" env-default:"purchase-events"`
	Timeout         time.Duration `env:"NOTIFY_TIMEOUT" env-default:"5s"`
}

// MustLoad reads configuration from the environment and exits on failure.
func MustLoad() (cfg Config) {
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	return
}

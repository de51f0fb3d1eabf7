package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/calmnights/checkout-service/internal/api"
	"github.com/calmnights/checkout-service/internal/api/middleware"
	"github.com/calmnights/checkout-service/internal/config"
	"github.com/calmnights/checkout-service/internal/metrics"
	"github.com/calmnights/checkout-service/internal/notify"
	"github.com/calmnights/checkout-service/internal/payment"
	"github.com/calmnights/checkout-service/internal/pricing"
	"github.com/calmnights/checkout-service/internal/repository"
	"github.com/calmnights/checkout-service/internal/service"
	"github.com/calmnights/checkout-service/internal/session"
	"github.com/calmnights/checkout-service/pkg/db"
	"github.com/calmnights/checkout-service/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger.Init(cfg.Env)
	log := logger.For("main")
	log.Info().Str("env", cfg.Env).Msg("starting checkout-service")

	metrics.Register()

	conn, err := db.NewPostgresConnection(cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer conn.Close()

	// pending-checkout store: Redis when configured, in-process otherwise
	var sessions session.Store
	if cfg.Redis.URL != "" {
		redisClient, err := session.NewRedisClient(cfg.Redis.URL, cfg.Redis.DialTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect")
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient, cfg.Checkout.SessionTTL)
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-memory checkout sessions")
		sessions = session.NewMemoryStore(cfg.Checkout.SessionTTL)
	}

	stripeClient := &client.API{}
	stripeClient.Init(cfg.Stripe.SecretKey, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient: &http.Client{Timeout: cfg.Stripe.RequestTimeout},
		}),
	})

	productRepo := repository.NewProductRepo(conn)
	couponRepo := repository.NewCouponRepo(conn)
	customerRepo := repository.NewCustomerRepo(conn)
	purchaseRepo := repository.NewPurchaseRepo(conn)
	txRunner := repository.NewTxRunner(conn)

	resolver := pricing.NewResolver(productRepo, couponRepo, cfg.Checkout.DefaultCurrency)
	gateway := payment.NewGateway(stripeClient, logger.For("payment"))

	notifier, closeNotify := buildNotifier(cfg.Notify)
	defer closeNotify()

	svc := service.NewCheckoutService(
		resolver,
		productRepo,
		gateway,
		customerRepo,
		purchaseRepo,
		sessions,
		txRunner,
		notifier,
		logger.For("checkout"),
	)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Mount("/", api.NewRouter(svc, productRepo, couponRepo))

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown")
		}
		close(idleConnsClosed)
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("listen")
	}

	<-idleConnsClosed
	log.Info().Msg("server stopped")
}

// buildNotifier assembles the fan-out channels that are configured; any of
// them may be absent. The returned func closes channels that hold
// connections.
func buildNotifier(cfg config.Notify) (*notify.Notifier, func()) {
	log := logger.For("notify")
	httpClient := &http.Client{Timeout: cfg.Timeout}

	var channels []notify.Channel
	closers := []func(){}

	if cfg.SlackWebhookURL != "" {
		channels = append(channels, notify.NewSlackChannel(cfg.SlackWebhookURL, httpClient))
	}
	if cfg.EmailEndpoint != "" {
		channels = append(channels, notify.NewEmailChannel(cfg.EmailEndpoint, cfg.EmailAPIKey, httpClient))
	}
	if endpoints := nonEmpty(cfg.PixelEndpoints); len(endpoints) > 0 {
		channels = append(channels, notify.NewPixelChannel(endpoints, httpClient))
	}
	if brokers := nonEmpty(cfg.KafkaBrokers); len(brokers) > 0 {
		kafkaChannel, err := notify.NewKafkaChannel(brokers, cfg.KafkaTopic)
		if err != nil {
			log.Error().Err(err).Msg("kafka channel disabled")
		} else {
			channels = append(channels, kafkaChannel)
			closers = append(closers, func() {
				if err := kafkaChannel.Close(); err != nil {
					log.Error().Err(err).Msg("close kafka producer")
				}
			})
		}
	}

	return notify.NewNotifier(channels, cfg.Timeout, log), func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
}

func nonEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

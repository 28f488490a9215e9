/**
 * @description
 * This is the main entry point for the slack-health-bot. Its primary role is
 * to start an HTTP server that listens for incoming webhooks from Slack and
 * walks each user through the gut-health questionnaire.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Connects to PostgreSQL for user progress and the question catalog.
 * - Initializes a RabbitMQ producer to publish questionnaire completion
 *   events (with a no-op fallback when the broker is unavailable).
 * - Optionally wires a Redis-backed rate limiter for interactive actions.
 * - Sets up an HTTP router (`chi`) to direct webhook traffic to the handlers.
 * - Implements graceful shutdown to ensure clean resource cleanup.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: HTTP routing (wired in internal/api).
 * - github.com/jackc/pgx/v5: PostgreSQL connection pooling.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/redis/go-redis/v9: Optional rate limiting backend.
 * - github.com/rs/zerolog: Structured logging.
 * - The service's internal packages for config, routing, and persistence.
 */

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jmickey/slack-health-bot/internal/api"
	"github.com/jmickey/slack-health-bot/internal/app"
	"github.com/jmickey/slack-health-bot/internal/config"
	"github.com/jmickey/slack-health-bot/internal/store"
	"github.com/jmickey/slack-health-bot/pkg/rabbitmq"
	"github.com/jmickey/slack-health-bot/pkg/slackclient"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if cfg.SlackVerificationToken == "" {
		log.Fatal().Msg("SLACK_VERIFICATION_TOKEN is not set")
	}
	if cfg.SlackBotToken == "" {
		log.Fatal().Msg("SLACK_BOT_TOKEN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Set up the PostgreSQL pool and repository.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create database pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("cannot reach database")
	}
	repo := store.NewPostgresRepository(pool)

	// Load the questionnaire catalog (database rows, or the built-in default).
	catalog, err := app.LoadCatalog(ctx, repo)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load question catalog")
	}
	log.Info().Int("questions", catalog.Count()).Msg("question catalog loaded")

	// Set up the RabbitMQ producer, falling back to a no-op publisher so the
	// bot keeps answering users when the broker is down.
	var producer rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.SurveyEventExchange)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, completion events will be skipped")
			producer = &rabbitmq.EventProducerFallback{}
		} else {
			producer = p
		}
	} else {
		producer = &rabbitmq.EventProducerFallback{}
	}
	defer producer.Close()

	// Optional Redis-backed rate limiter for interactive actions.
	var limiter api.RateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		limiter = app.NewRedisEventRateLimiter(redis.NewClient(opts), cfg.RedisRateLimitPrefix)
	}

	// Wire the questionnaire components at the composition root.
	onboarding := app.NewOnboarding(repo, catalog)
	engine := app.NewEngine(repo, catalog, producer)
	router := app.NewRouter(cfg.SlackVerificationToken, onboarding, engine)

	messenger := slackclient.NewClient(cfg.SlackAPIBaseURL, cfg.SlackBotToken)
	handlers := api.NewWebhookHandlers(router, messenger, limiter, cfg.InteractionRateLimitPerMinute)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.Routes(handlers),
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("could not start server")
		}
	}()

	// Graceful shutdown logic.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server gracefully stopped")
}

// main.go
package main

import (
	"context"
	"log"

	"venue-booking/cmd"
	"venue-booking/internal/data/repository"
	"venue-booking/internal/usecase"
	"venue-booking/internal/wire"
	"venue-booking/pkg/database"
	"venue-booking/pkg/mq"
	"venue-booking/pkg/ratelimit"
	"venue-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx := context.Background()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := db.Migrate(ctx, config.Database.MigrationsDir, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Rate limiting needs Redis; without it the middleware is a pass-through.
	var limiter *ratelimit.RateLimiter
	if config.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiting will fail open", zap.Error(err))
		}

		limiter = ratelimit.NewRateLimiter(rdb, ratelimit.Config{
			Enabled:      true,
			Window:       config.RateLimit.Window,
			DefaultLimit: config.RateLimit.Requests,
			RedeemLimit:  config.RateLimit.RedeemRequests,
			KeyPrefix:    config.App.Name + ":ratelimit",
		})
	} else {
		logger.Info("Redis not configured, rate limiting disabled")
	}

	events := newEventPublisher(config.Broker, logger)
	defer events.Close()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, events, limiter, logger)

	if err := cmd.APIServer(app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}

type eventPublisher interface {
	usecase.EventPublisher
	Close() error
}

// newEventPublisher connects to the broker when one is configured. A broker
// that cannot be reached downgrades to dropping events instead of failing startup.
func newEventPublisher(config utils.BrokerConfig, logger *zap.Logger) eventPublisher {
	if !config.Enabled() {
		logger.Info("Broker not configured, domain events are dropped")
		return mq.NopPublisher{}
	}

	pub, err := mq.NewPublisher(config.URL, config.Exchange)
	if err != nil {
		logger.Warn("Broker unreachable, domain events are dropped", zap.Error(err))
		return mq.NopPublisher{}
	}

	logger.Info("Publishing domain events", zap.String("exchange", config.Exchange))
	return pub
}

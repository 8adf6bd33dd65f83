package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"release-radar/internal/domain/entity"
	"release-radar/internal/handler/http/respond"
	pgRepo "release-radar/internal/infra/adapter/persistence/postgres"
	"release-radar/internal/infra/db"
	"release-radar/internal/infra/notifier"
	"release-radar/internal/infra/platform"
	workerPkg "release-radar/internal/infra/worker"
	"release-radar/internal/observability/logging"
	"release-radar/internal/usecase/notify"
	"release-radar/internal/usecase/poll"
)

// migrationCheckQuery must reference a table the API's migrations create; it
// is how the worker knows the schema exists before the first cycle.
const migrationCheckQuery = "SELECT 1 FROM artists LIMIT 1"

var migrationRetryDelay = 3 * time.Second

func waitForMigrations(logger *slog.Logger, db *sql.DB) error {
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(migrationCheckQuery); err == nil {
			return nil
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(migrationRetryDelay)
	}
	return errors.New("migrations did not complete in time")
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// Shutdown context: SIGINT/SIGTERM cancels it, which stops the cron
	// scheduler and the sidecar servers before the deferred database close.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("poll_schedule", workerConfig.PollSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("cooldown_duration", workerConfig.CooldownDuration),
		slog.Int("fetch_parallelism", workerConfig.FetchParallelism),
		slog.Duration("cycle_timeout", workerConfig.CycleTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	// Initialize platform fetchers
	fetchers := setupFetchers(logger)
	if len(fetchers) == 0 {
		logger.Error("no platform fetcher configured, set SOUNDCLOUD_CLIENT_ID or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET")
		os.Exit(1)
	}

	// Initialize Discord notification channel
	discordConfig := loadDiscordConfig(logger)
	var targets []notify.Channel
	if discordConfig.Enabled {
		targets = append(targets, notify.NewDiscordChannel(discordConfig))
		logger.Info("Discord channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Discord channel disabled")
	}

	channelRepo := pgRepo.NewChannelRepo(database)
	notifyService := notify.NewService(channelRepo, targets)
	logger.Info("Notification service initialized", slog.Int("targets", len(targets)))

	// Initialize poll service
	cooldown := poll.NewCooldown()
	pollService := poll.NewService(
		pgRepo.NewArtistRepo(database),
		pgRepo.NewLedgerRepo(database),
		notifyService,
		fetchers,
		cooldown,
		poll.Config{
			CooldownDuration: workerConfig.CooldownDuration,
			FetchParallelism: workerConfig.FetchParallelism,
		},
	)

	// Start metrics HTTP server
	startMetricsServer(ctx, logger, cooldown)

	// Start health check server
	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	startCronWorker(ctx, logger, pollService, workerConfig, workerMetrics, healthServer)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := waitForMigrations(logger, database); err != nil {
		logger.Error("schema not available", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupFetchers builds one fetcher per platform that has credentials configured.
// A platform without credentials is simply not polled; tracked artists on that
// platform are skipped until credentials appear.
func setupFetchers(logger *slog.Logger) []platform.Fetcher {
	var fetchers []platform.Fetcher

	scConfig := platform.LoadSoundCloudConfigFromEnv()
	if scConfig.ClientID != "" {
		fetchers = append(fetchers, platform.NewSoundCloudFetcher(scConfig))
		logger.Info("SoundCloud fetcher initialized")
	} else {
		logger.Warn("SoundCloud fetcher disabled, SOUNDCLOUD_CLIENT_ID not set")
	}

	spConfig := platform.LoadSpotifyConfigFromEnv()
	if spConfig.ClientID != "" && spConfig.ClientSecret != "" {
		fetchers = append(fetchers, platform.NewSpotifyFetcher(spConfig))
		logger.Info("Spotify fetcher initialized")
	} else {
		logger.Warn("Spotify fetcher disabled, SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET not set")
	}

	return fetchers
}

// loadDiscordConfig loads Discord configuration from environment variables.
// Webhook URLs are per guild and come from the notification channel store, so
// only the enable flag and request timeout live in the environment.
//
// Environment variables:
//   - DISCORD_ENABLED: Boolean flag to enable Discord notifications (default: true)
//   - DISCORD_TIMEOUT: Request timeout as a duration string (default: 30s)
//
// Returns:
//   - notifier.DiscordConfig: Configuration with validation applied
func loadDiscordConfig(logger *slog.Logger) notifier.DiscordConfig {
	enabled := os.Getenv("DISCORD_ENABLED") != "false"
	if !enabled {
		return notifier.DiscordConfig{Enabled: false}
	}

	timeout := 30 * time.Second
	if raw := os.Getenv("DISCORD_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			logger.Warn("Invalid DISCORD_TIMEOUT, using default", slog.String("value", raw))
		} else {
			timeout = parsed
		}
	}

	return notifier.DiscordConfig{
		Enabled: true,
		Timeout: timeout,
	}
}

// startCronWorker starts the cron scheduler and runs the poll cycle until ctx
// is cancelled. DelayIfStillRunning serializes cycles: a slow cycle delays the
// next tick instead of overlapping with it. On shutdown the worker is marked
// not ready and the scheduler drains the in-flight cycle before returning.
func startCronWorker(ctx context.Context, logger *slog.Logger, svc *poll.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	// Load timezone
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.DelayIfStillRunning(cron.DefaultLogger)),
	)

	_, err = c.AddFunc(cfg.PollSchedule, func() {
		runPollCycle(logger, svc, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	// Mark as ready after cron is set up
	healthServer.SetReady(true)
	logger.Info("worker marked as ready")

	logger.Info("worker started", slog.String("schedule", cfg.PollSchedule), slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	logger.Info("shutting down worker...")
	healthServer.SetReady(false)
	// Stop schedules no further cycles; its context ends once the in-flight
	// cycle (if any) has drained.
	<-c.Stop().Done()
	logger.Info("worker stopped")
}

// runPollCycle executes a single poll cycle with timeout and error handling.
func runPollCycle(logger *slog.Logger, svc *poll.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	logger.Info("poll cycle started")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CycleTimeout)
	defer cancel()

	stats, err := svc.RunCycle(ctx)
	if err != nil {
		logger.Error("poll cycle failed", slog.Any("error", respond.SanitizeError(err)))
		metrics.RecordCycleRun("failure")
		metrics.RecordCycleDuration(time.Since(startTime).Seconds())
		return
	}

	// Record metrics
	metrics.RecordCycleRun("success")
	metrics.RecordCycleDuration(time.Since(startTime).Seconds())
	metrics.RecordChecks(stats.Checks)
	metrics.RecordNotifications(stats.Notifications)
	metrics.RecordCooldownSkips(stats.CooldownSkips)
	metrics.RecordRateLimitHits(stats.RateLimitHits)
	metrics.RecordLastSuccess()

	logger.Info("poll cycle completed",
		slog.Int("artists", stats.Artists),
		slog.Int("checks", stats.Checks),
		slog.Int("notifications", stats.Notifications),
		slog.Int("bootstraps", stats.Bootstraps),
		slog.Int("cooldown_skips", stats.CooldownSkips),
		slog.Int("rate_limit_hits", stats.RateLimitHits),
		slog.Int("fetch_errors", stats.FetchErrors),
		slog.Int("delivery_failures", stats.DeliveryFailures),
		slog.Int("no_channel_skips", stats.NoChannelSkips),
		slog.Duration("duration", time.Since(startTime)),
	)
}

// platforms lists all platforms for the cooldown status endpoint.
var platforms = []entity.Platform{entity.PlatformSoundCloud, entity.PlatformSpotify}

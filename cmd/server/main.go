package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reservio/internal/api"
	"reservio/internal/audit"
	"reservio/internal/cache"
	"reservio/internal/config"
	"reservio/internal/database"
	"reservio/internal/events"
	"reservio/internal/metrics"
	"reservio/internal/notify"
	"reservio/internal/schedule"
	"reservio/internal/service"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("RESERVIO_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	loc, err := time.LoadLocation(cfg.Database.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Database.Timezone).Msg("invalid timezone")
	}

	db, err := database.NewDB(cfg.Database.Path, loc, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.EnsureDefaultCategories(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed categories")
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	scheduleCache := cache.NewScheduleCache(rdb, cfg.CacheTTL(), logger)

	bus := events.NewEventBus()

	var dispatcher *notify.Dispatcher
	if cfg.Notifications.Enabled {
		var sender notify.Sender = notify.LogSender{}
		if cfg.Notifications.TelegramBotToken != "" {
			tg, err := notify.NewTelegramSender(cfg.Notifications.TelegramBotToken, nil)
			if err != nil {
				logger.Error().Err(err).Msg("telegram sender unavailable, notifications disabled")
			} else {
				sender = tg
			}
		}
		dispatcher = notify.NewDispatcher(sender, notify.Config{
			RatePerSecond: cfg.Notifications.RatePerSecond,
			Burst:         cfg.Notifications.Burst,
			MaxRetries:    cfg.Notifications.MaxRetries,
		}, logger)
		dispatcher.Bind(bus)
		defer dispatcher.Close()
	}

	recorder := audit.NewRecorder(db, logger)
	businesses := service.NewBusinessService(db, scheduleCache, &logger)
	reservations := service.NewReservationService(db, db, businesses, bus, recorder, loc, &logger)
	slots := schedule.NewGenerator(db)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		go startBackupLoop(ctx, db, cfg, &logger)
	}

	server := api.NewServer(reservations, businesses, recorder, db, slots, &logger)
	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("reservation service started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func startBackupLoop(ctx context.Context, db *database.DB, cfg *config.Config, logger *zerolog.Logger) {
	if cfg.Backup.Path == "" {
		cfg.Backup.Path = "backups"
	}
	if cfg.Backup.IntervalHours <= 0 {
		cfg.Backup.IntervalHours = 24
	}
	if cfg.Backup.RetentionDays <= 0 {
		cfg.Backup.RetentionDays = 14
	}

	interval := time.Duration(cfg.Backup.IntervalHours) * time.Hour
	retention := time.Duration(cfg.Backup.RetentionDays) * 24 * time.Hour

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runBackup(db, cfg.Backup.Path, retention, logger)
		case <-ctx.Done():
			return
		}
	}
}

func runBackup(db *database.DB, dir string, retention time.Duration, logger *zerolog.Logger) {
	timestamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(dir, fmt.Sprintf("reservio_%s.db", timestamp))

	logger.Info().Str("path", dest).Msg("starting database backup")
	if err := db.Backup(dest); err != nil {
		logger.Error().Err(err).Msg("backup failed")
		return
	}

	deleted, err := db.CleanupBackups(dir, retention)
	if err != nil {
		logger.Error().Err(err).Msg("backup cleanup failed")
	} else if deleted > 0 {
		logger.Info().Int("deleted", deleted).Msg("cleaned up old backups")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

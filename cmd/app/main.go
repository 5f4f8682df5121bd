package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"uzlife-bot-backend/internal/bot"
	"uzlife-bot-backend/internal/common/config"
	"uzlife-bot-backend/internal/common/logger"
	alertservice "uzlife-bot-backend/internal/features/alerts/service"
	prefcache "uzlife-bot-backend/internal/features/preferences/cache/redis"
	prefrepo "uzlife-bot-backend/internal/features/preferences/repository/postgres"
	prefservice "uzlife-bot-backend/internal/features/preferences/service"
	apphttp "uzlife-bot-backend/internal/http"
	"uzlife-bot-backend/internal/platform/postgres"
	"uzlife-bot-backend/internal/platform/redis"
	"uzlife-bot-backend/internal/platform/telegram"
	"uzlife-bot-backend/internal/service/currency"
	"uzlife-bot-backend/internal/service/weather"
)

func main() {
	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Инициализируем конфигурацию
	cfg := config.Load()

	// Инициализируем логгер
	logger.Init("uzlife-bot", cfg.Debug)

	logger.Info().
		Bool("debug", cfg.Debug).
		Bool("webhook", cfg.Telegram.UseWebhook).
		Msg("Starting UzLife Bot Backend")

	// Инициализируем базу данных
	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	logger.Info().Msg("Database connection established")

	if cfg.Postgres.AutoMigrate {
		if err := prefrepo.Migrate(context.Background(), postgresClient.GetDB()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		logger.Info().Msg("Migrations applied")
	}

	// Инициализируем Redis
	redisClient, err := redis.Open(context.Background(), cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Инициализируем кэш и репозиторий настроек
	preferenceCache := prefcache.NewPreferenceCache(redisClient, cfg.Redis.CacheTTL)
	preferenceRepo := prefrepo.NewPostgresRepository(postgresClient.GetDB())
	preferenceSvc := prefservice.NewPreferenceService(preferenceRepo, preferenceCache)

	logger.Info().Msg("Preference service initialized")

	// Инициализируем внешние клиенты
	tgClient := telegram.NewClient(cfg.Telegram.BotToken)
	weatherClient := weather.NewClient(cfg)
	currencyClient := currency.NewClient(cfg)

	// Диспетчер сообщений и рассыльщик уведомлений
	dispatcher := bot.NewDispatcher(tgClient, preferenceSvc, weatherClient, currencyClient)
	notifier := bot.NewNotifier(tgClient)

	// Планировщик тепловых уведомлений
	var scheduler *alertservice.Scheduler
	if cfg.Alerts.Enabled {
		scheduler = alertservice.NewScheduler(preferenceSvc, weatherClient, notifier, alertservice.Config{
			Interval:       cfg.Alerts.Interval,
			HeatThresholdC: cfg.Alerts.HeatThresholdC,
			PassTimeout:    cfg.Alerts.PassTimeout,
			StopGrace:      cfg.Alerts.StopGrace,
		})
		scheduler.Start()
	}

	// Настраиваем роуты
	router := apphttp.NewRouter(cfg, postgresClient, redisClient, dispatcher)

	// Создаем HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Запускаем получение событий Telegram
	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()

	if cfg.Telegram.UseWebhook {
		if err := tgClient.SetWebhook(context.Background(), cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			logger.Fatal().Err(err).Msg("Failed to set webhook")
		}
		logger.Info().Str("url", cfg.Telegram.WebhookURL).Msg("Webhook registered")
	} else {
		poller := bot.NewPoller(tgClient, dispatcher, cfg.Telegram.PollTimeout)
		go func() {
			if err := poller.Run(pollCtx); err != nil && err != context.Canceled {
				logger.Error().Err(err).Msg("Poller stopped with error")
			}
		}()
	}

	// Ждем сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")

	cancelPoll()
	if scheduler != nil {
		scheduler.Stop()
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

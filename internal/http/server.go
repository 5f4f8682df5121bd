package http

import (
	"context"
	"net/http"
	"time"

	"uzlife-bot-backend/internal/bot"
	"uzlife-bot-backend/internal/common/config"
	"uzlife-bot-backend/internal/common/logger"
	"uzlife-bot-backend/internal/common/middleware"
	"uzlife-bot-backend/internal/platform/postgres"
	"uzlife-bot-backend/internal/platform/redis"
	"uzlife-bot-backend/internal/platform/telegram"

	"github.com/gin-gonic/gin"
)

const serviceName = "uzlife-bot-backend"

// NewRouter собирает служебные эндпоинты и, при включенном webhook-режиме,
// точку приема событий Telegram
func NewRouter(cfg *config.Config, pg *postgres.Client, rdb *redis.Client, dispatcher *bot.Dispatcher) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	// Liveness probe
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Readiness probe
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := pg.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unready",
				"error":  "postgres unavailable",
			})
			return
		}

		if err := rdb.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unready",
				"error":  "redis unavailable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	if cfg.Telegram.UseWebhook {
		router.POST("/webhook/telegram", webhookHandler(cfg, dispatcher))
	}

	return router
}

// webhookHandler принимает событие от Telegram и отдает его диспетчеру.
// Ответ 200 возвращается сразу: Telegram повторяет доставку при любом
// другом статусе
func webhookHandler(cfg *config.Config, dispatcher *bot.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Telegram.WebhookSecret != "" &&
			c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != cfg.Telegram.WebhookSecret {
			c.Status(http.StatusForbidden)
			return
		}

		var update telegram.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			logger.Warn().Err(err).Msg("Failed to decode webhook update")
			c.Status(http.StatusOK)
			return
		}

		go dispatcher.HandleUpdate(context.WithoutCancel(c.Request.Context()), update)
		c.Status(http.StatusOK)
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port int `env:"PORT" envDefault:"8080"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"uzlife"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
		AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	}

	Redis struct {
		Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int           `env:"REDIS_PORT" envDefault:"6379"`
		Password string        `env:"REDIS_PASSWORD" envDefault:""`
		DB       int           `env:"REDIS_DB" envDefault:"0"`
		CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"5m"`
	}

	Telegram struct {
		BotToken      string        `env:"BOT_TOKEN,required"`
		UseWebhook    bool          `env:"TELEGRAM_USE_WEBHOOK" envDefault:"false"`
		WebhookURL    string        `env:"TELEGRAM_WEBHOOK_URL"`
		WebhookSecret string        `env:"TELEGRAM_WEBHOOK_SECRET"`
		PollTimeout   time.Duration `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"30s"`
	}

	Weather struct {
		APIKey  string `env:"OPENWEATHER_API_KEY,required"`
		BaseURL string `env:"OPENWEATHER_BASE_URL" envDefault:"https://api.openweathermap.org/data/2.5"`
		Country string `env:"WEATHER_COUNTRY" envDefault:"UZ"`
	}

	Currency struct {
		BaseURL string `env:"CBU_BASE_URL" envDefault:"https://cbu.uz/ru/arkhiv-kursov-valyut/json"`
	}

	// Пороговые значения и интервал рассылки — параметры политики, не константы
	Alerts struct {
		Enabled        bool          `env:"ALERTS_ENABLED" envDefault:"true"`
		Interval       time.Duration `env:"ALERTS_INTERVAL" envDefault:"1h"`
		HeatThresholdC float64       `env:"ALERTS_HEAT_THRESHOLD_C" envDefault:"38"`
		PassTimeout    time.Duration `env:"ALERTS_PASS_TIMEOUT" envDefault:"10m"`
		StopGrace      time.Duration `env:"ALERTS_STOP_GRACE" envDefault:"30s"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Игнорируем ошибку, если .env файл не найден
		// В production окружении переменные могут быть установлены напрямую
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}

// GetDSN возвращает строку подключения к PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User,
		c.Postgres.Password, c.Postgres.Database, c.Postgres.SSLMode)
}

// RedisAddr возвращает адрес Redis в формате host:port
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

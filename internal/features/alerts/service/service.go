package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"uzlife-bot-backend/internal/common/logger"
	"uzlife-bot-backend/internal/features/preferences/models"
	"uzlife-bot-backend/internal/service/weather"

	"github.com/rs/zerolog"
)

// SubscriberLister отдает пользователей, подлежащих оценке в проходе.
// Планировщик только читает хранилище и никогда в него не пишет.
type SubscriberLister interface {
	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
}

// ConditionsProvider запрашивает текущую погоду для города
type ConditionsProvider interface {
	CurrentConditions(ctx context.Context, city string) (*weather.Conditions, error)
}

// AlertNotifier доставляет уведомление о жаре подписчику
type AlertNotifier interface {
	SendHeatAlert(ctx context.Context, sub models.Subscriber, tempC float64) error
}

// Config задает политику планировщика. Порог и интервал — настройки,
// а не константы: обоснованных фиксированных значений у предметной
// области нет.
type Config struct {
	Interval       time.Duration
	HeatThresholdC float64
	PassTimeout    time.Duration
	StopGrace      time.Duration
}

// Scheduler периодически оценивает подписчиков и рассылает
// уведомления тем, у кого температура достигла порога.
// Жизненный цикл: Idle —(интервал)→ Scanning —(конец прохода)→ Idle.
type Scheduler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	prefs    SubscriberLister
	weather  ConditionsProvider
	notifier AlertNotifier
	cfg      Config
	wg       sync.WaitGroup
	log      zerolog.Logger
}

func NewScheduler(prefs SubscriberLister, provider ConditionsProvider, notifier AlertNotifier, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = 10 * time.Minute
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:      ctx,
		cancel:   cancel,
		prefs:    prefs,
		weather:  provider,
		notifier: notifier,
		cfg:      cfg,
		log:      logger.With("alert_scheduler"),
	}
}

// Start запускает цикл планировщика в фоновой горутине
func (s *Scheduler) Start() {
	s.log.Info().
		Dur("interval", s.cfg.Interval).
		Float64("heat_threshold_c", s.cfg.HeatThresholdC).
		Msg("Starting alert scheduler")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				passCtx, cancel := context.WithTimeout(s.ctx, s.cfg.PassTimeout)
				if err := s.RunPass(passCtx); err != nil {
					// Ошибка прохода не фатальна: следующий проход
					// случится через обычный интервал
					s.log.Error().Err(err).Msg("Alert pass failed")
				}
				cancel()
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop останавливает планировщик. Сон прерывается сразу; текущему
// проходу дается ограниченное время на завершение.
func (s *Scheduler) Stop() {
	s.log.Info().Msg("Stopping alert scheduler")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Msg("Alert scheduler stopped")
	case <-time.After(s.cfg.StopGrace):
		s.log.Warn().Msg("Alert scheduler stop grace period expired, abandoning in-flight pass")
	}
}

// RunPass выполняет один проход по всем подписчикам. Ошибка получения
// списка прерывает проход; ошибки отдельных подписчиков — нет.
func (s *Scheduler) RunPass(ctx context.Context) error {
	subscribers, err := s.prefs.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}

	s.log.Debug().Int("subscribers", len(subscribers)).Msg("Alert pass started")

	notified := 0
	for _, sub := range subscribers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if s.evaluateSubscriber(ctx, sub) {
			notified++
		}
	}

	s.log.Info().
		Int("subscribers", len(subscribers)).
		Int("notified", notified).
		Msg("Alert pass finished")
	return nil
}

// evaluateSubscriber оценивает одного подписчика независимо от остальных.
// Возвращает true, если уведомление было отправлено.
func (s *Scheduler) evaluateSubscriber(ctx context.Context, sub models.Subscriber) bool {
	cond, err := s.weather.CurrentConditions(ctx, sub.City)
	if err != nil {
		// Без повтора в этом же проходе: подписчик будет оценен снова
		// в следующем проходе
		s.log.Warn().Err(err).
			Int64("user_id", sub.UserID).
			Str("city", sub.City).
			Msg("Skipping subscriber, weather lookup failed")
		return false
	}

	if cond.TemperatureC < s.cfg.HeatThresholdC {
		return false
	}

	if err := s.notifier.SendHeatAlert(ctx, sub, cond.TemperatureC); err != nil {
		s.log.Error().Err(err).
			Int64("user_id", sub.UserID).
			Str("city", sub.City).
			Msg("Failed to deliver heat alert")
		return false
	}

	s.log.Info().
		Int64("user_id", sub.UserID).
		Str("city", sub.City).
		Float64("temperature_c", cond.TemperatureC).
		Msg("Heat alert delivered")
	return true
}

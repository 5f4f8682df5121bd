package bot

import (
	"context"
	"time"

	"uzlife-bot-backend/internal/common/logger"
	"uzlife-bot-backend/internal/platform/telegram"

	"github.com/rs/zerolog"
)

// Poller получает события через long polling и передает их диспетчеру
type Poller struct {
	tg         *telegram.Client
	dispatcher *Dispatcher
	timeout    time.Duration
	log        zerolog.Logger
}

func NewPoller(tg *telegram.Client, dispatcher *Dispatcher, timeout time.Duration) *Poller {
	return &Poller{
		tg:         tg,
		dispatcher: dispatcher,
		timeout:    timeout,
		log:        logger.With("poller"),
	}
}

// Run крутит цикл long polling до отмены контекста
func (p *Poller) Run(ctx context.Context) error {
	// Webhook и long polling взаимоисключающие
	if err := p.tg.DeleteWebhook(ctx); err != nil {
		p.log.Warn().Err(err).Msg("Failed to delete webhook before polling")
	}

	p.log.Info().Dur("timeout", p.timeout).Msg("Starting long polling")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("Long polling stopped")
			return ctx.Err()
		default:
		}

		updates, err := p.tg.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info().Msg("Long polling stopped")
				return ctx.Err()
			}
			p.log.Error().Err(err).Msg("Failed to get updates, backing off")
			time.Sleep(time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			go p.dispatcher.HandleUpdate(ctx, update)
		}
	}
}

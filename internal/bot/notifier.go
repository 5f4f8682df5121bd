package bot

import (
	"context"

	apperrors "uzlife-bot-backend/internal/common/errors"
	"uzlife-bot-backend/internal/features/preferences/models"
)

// Notifier доставляет уведомления планировщика через чат-транспорт
type Notifier struct {
	tg MessageSender
}

func NewNotifier(tg MessageSender) *Notifier {
	return &Notifier{tg: tg}
}

// SendHeatAlert отправляет подписчику уведомление о жаре на его языке
func (n *Notifier) SendHeatAlert(ctx context.Context, sub models.Subscriber, tempC float64) error {
	text := HeatAlert(sub.Language, sub.City, tempC)
	if err := n.tg.SendMessage(ctx, sub.UserID, text, nil); err != nil {
		return apperrors.NewTelegramAPIError("send_heat_alert", err).WithUserID(sub.UserID)
	}
	return nil
}

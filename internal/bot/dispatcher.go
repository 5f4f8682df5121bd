package bot

import (
	"context"
	"regexp"
	"sync"

	apperrors "uzlife-bot-backend/internal/common/errors"
	"uzlife-bot-backend/internal/common/logger"
	"uzlife-bot-backend/internal/features/preferences/models"
	prefservice "uzlife-bot-backend/internal/features/preferences/service"
	"uzlife-bot-backend/internal/platform/telegram"
	"uzlife-bot-backend/internal/service/currency"
	"uzlife-bot-backend/internal/service/weather"

	"github.com/rs/zerolog"
)

// Свободный текст считается названием города: кириллица, латиница,
// пробелы, дефисы и апостроф (узбекская латиница)
var cityPattern = regexp.MustCompile(`^[А-Яа-яA-Za-z'\s-]+$`)

// MessageSender отправляет исходящие сообщения пользователю.
// Ошибки отправки не фатальны для вызывающего.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.ReplyKeyboard) error
}

// WeatherService запрашивает погоду и качество воздуха
type WeatherService interface {
	CurrentConditions(ctx context.Context, city string) (*weather.Conditions, error)
	AirQuality(ctx context.Context, lat, lon float64) (*weather.AirQuality, error)
}

// CurrencyService запрашивает курс валюты
type CurrencyService interface {
	Rate(ctx context.Context, code string) (*currency.Rate, error)
}

// Dispatcher превращает входящие события чата в ответы бота.
// События одного пользователя обрабатываются по одному, разные
// пользователи — параллельно.
type Dispatcher struct {
	tg        MessageSender
	prefs     prefservice.PreferenceService
	weather   WeatherService
	currency  CurrencyService
	userLocks sync.Map // userID -> *sync.Mutex
	log       zerolog.Logger
}

func NewDispatcher(tg MessageSender, prefs prefservice.PreferenceService, weatherSvc WeatherService, currencySvc CurrencyService) *Dispatcher {
	return &Dispatcher{
		tg:       tg,
		prefs:    prefs,
		weather:  weatherSvc,
		currency: currencySvc,
		log:      logger.With("dispatcher"),
	}
}

// HandleUpdate обрабатывает одно входящее событие
func (d *Dispatcher) HandleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Text == "" {
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Сериализуем события одного пользователя
	muIface, _ := d.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	// Запись создается лениво при первом контакте
	if err := d.prefs.EnsureUser(ctx, userID); err != nil {
		d.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to ensure user")
		d.reply(ctx, chatID, ServiceUnavailable(models.DefaultLanguage), nil)
		return
	}

	pref, err := d.prefs.GetUser(ctx, userID)
	if err != nil {
		d.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user preference")
		d.reply(ctx, chatID, ServiceUnavailable(models.DefaultLanguage), nil)
		return
	}

	if msg.Text == "/start" {
		d.handleStart(ctx, chatID, pref)
		return
	}

	switch matchButton(msg.Text) {
	case btnWeather:
		d.handleWeather(ctx, chatID, pref)
	case btnAirQuality:
		d.handleAirQuality(ctx, chatID, pref)
	case btnCurrency:
		d.handleCurrency(ctx, chatID, pref)
	case btnMyCity:
		d.handleMyCity(ctx, chatID, pref)
	case btnLanguage:
		d.handleToggleLanguage(ctx, chatID, pref)
	case btnAlerts:
		d.handleToggleAlerts(ctx, chatID, pref)
	default:
		if cityPattern.MatchString(msg.Text) {
			d.handleSaveCity(ctx, chatID, pref, msg.Text)
		}
		// Остальной ввод игнорируется, как и нажатия старых кнопок
	}
}

// reply отправляет ответ; неудача логируется и не прерывает обработку
func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string, keyboard *telegram.ReplyKeyboard) {
	if err := d.tg.SendMessage(ctx, chatID, text, keyboard); err != nil {
		d.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

// replyStoreError отвечает на ошибку хранилища одним поясняющим сообщением
func (d *Dispatcher) replyStoreError(ctx context.Context, chatID int64, lang models.Language, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.IsStoreUnavailable() {
		d.log.Error().Err(err).Int64("chat_id", chatID).Msg("Store unavailable")
	} else {
		d.log.Error().Err(err).Int64("chat_id", chatID).Msg("Unexpected store error")
	}
	d.reply(ctx, chatID, ServiceUnavailable(lang), nil)
}

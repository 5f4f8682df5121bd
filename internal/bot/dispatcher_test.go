package bot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "uzlife-bot-backend/internal/common/errors"
	"uzlife-bot-backend/internal/features/preferences/models"
	"uzlife-bot-backend/internal/platform/telegram"
	"uzlife-bot-backend/internal/service/currency"
	"uzlife-bot-backend/internal/service/weather"
)

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *telegram.ReplyKeyboard
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *fakeSender) SendMessage(_ context.Context, chatID int64, text string, keyboard *telegram.ReplyKeyboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text, keyboard: keyboard})
	return nil
}

func (s *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

// fakePrefs хранит настройки в памяти, повторяя контракт сервиса
type fakePrefs struct {
	mu    sync.Mutex
	prefs map[int64]*models.UserPreference
	err   error
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{prefs: make(map[int64]*models.UserPreference)}
}

func (f *fakePrefs) ensureLocked(userID int64) *models.UserPreference {
	pref, ok := f.prefs[userID]
	if !ok {
		pref = &models.UserPreference{UserID: userID, Language: models.DefaultLanguage}
		f.prefs[userID] = pref
	}
	return pref
}

func (f *fakePrefs) EnsureUser(_ context.Context, userID int64) error {
	if f.err != nil {
		return apperrors.NewStoreError("ensure_user", f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureLocked(userID)
	return nil
}

func (f *fakePrefs) GetUser(_ context.Context, userID int64) (*models.UserPreference, error) {
	if f.err != nil {
		return nil, apperrors.NewStoreError("get_user", f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pref, ok := f.prefs[userID]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	snapshot := *pref
	return &snapshot, nil
}

func (f *fakePrefs) UpdateUser(_ context.Context, userID int64, upd models.PreferenceUpdate) error {
	if f.err != nil {
		return apperrors.NewStoreError("update_user", f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pref := f.ensureLocked(userID)
	if upd.City != nil {
		pref.City = *upd.City
	}
	if upd.Language != nil {
		pref.Language = *upd.Language
	}
	if upd.AlertsEnabled != nil {
		pref.AlertsEnabled = *upd.AlertsEnabled
	}
	return nil
}

func (f *fakePrefs) SetCity(ctx context.Context, userID int64, city string) error {
	return f.UpdateUser(ctx, userID, models.PreferenceUpdate{City: &city})
}

func (f *fakePrefs) ToggleLanguage(ctx context.Context, userID int64) (models.Language, error) {
	if f.err != nil {
		return "", apperrors.NewStoreError("toggle_language", f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pref := f.ensureLocked(userID)
	pref.Language = pref.Language.Toggled()
	return pref.Language, nil
}

func (f *fakePrefs) ToggleAlerts(ctx context.Context, userID int64) (bool, error) {
	if f.err != nil {
		return false, apperrors.NewStoreError("toggle_alerts", f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pref := f.ensureLocked(userID)
	pref.AlertsEnabled = !pref.AlertsEnabled
	return pref.AlertsEnabled, nil
}

func (f *fakePrefs) ListSubscribers(context.Context) ([]models.Subscriber, error) {
	return nil, nil
}

type fakeWeatherSvc struct {
	cond    *weather.Conditions
	condErr error
	aq      *weather.AirQuality
	aqErr   error
}

func (w *fakeWeatherSvc) CurrentConditions(context.Context, string) (*weather.Conditions, error) {
	return w.cond, w.condErr
}

func (w *fakeWeatherSvc) AirQuality(context.Context, float64, float64) (*weather.AirQuality, error) {
	return w.aq, w.aqErr
}

type fakeCurrencySvc struct {
	rate *currency.Rate
	err  error
}

func (c *fakeCurrencySvc) Rate(context.Context, string) (*currency.Rate, error) {
	return c.rate, c.err
}

func textUpdate(userID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 1,
			From:      &telegram.User{ID: userID},
			Chat:      telegram.Chat{ID: userID, Type: "private"},
			Text:      text,
		},
	}
}

func newTestDispatcher(prefs *fakePrefs, wth *fakeWeatherSvc, cur *fakeCurrencySvc) (*Dispatcher, *fakeSender) {
	sender := &fakeSender{}
	if wth == nil {
		wth = &fakeWeatherSvc{}
	}
	if cur == nil {
		cur = &fakeCurrencySvc{}
	}
	return NewDispatcher(sender, prefs, wth, cur), sender
}

func TestHandleStart(t *testing.T) {
	d, sender := newTestDispatcher(newFakePrefs(), nil, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "/start"))

	msg := sender.last(t)
	assert.Equal(t, Greeting(models.LanguageRussian), msg.text)
	require.NotNil(t, msg.keyboard)
	assert.Len(t, msg.keyboard.Keyboard, 3)
}

func TestHandleUpdateIgnoresBotsAndEmptyText(t *testing.T) {
	d, sender := newTestDispatcher(newFakePrefs(), nil, nil)

	d.HandleUpdate(context.Background(), telegram.Update{})
	d.HandleUpdate(context.Background(), telegram.Update{
		Message: &telegram.Message{
			From: &telegram.User{ID: 1, IsBot: true},
			Chat: telegram.Chat{ID: 1},
			Text: "/start",
		},
	})
	d.HandleUpdate(context.Background(), textUpdate(1, ""))

	assert.Empty(t, sender.sent)
}

func TestSaveCityFromFreeText(t *testing.T) {
	prefs := newFakePrefs()
	d, sender := newTestDispatcher(prefs, nil, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "Ташкент"))

	msg := sender.last(t)
	assert.Equal(t, CitySaved(models.LanguageRussian, "Ташкент"), msg.text)

	pref, err := prefs.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ташкент", pref.City)
}

func TestFreeTextNotMatchingCityPatternIsIgnored(t *testing.T) {
	d, sender := newTestDispatcher(newFakePrefs(), nil, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "12345"))

	assert.Empty(t, sender.sent)
}

func TestWeatherWithoutCityAsksForCity(t *testing.T) {
	d, sender := newTestDispatcher(newFakePrefs(), nil, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "🌦 Погода"))

	msg := sender.last(t)
	assert.Equal(t, NeedCity(models.LanguageRussian), msg.text)
}

func TestWeatherReportsConditions(t *testing.T) {
	prefs := newFakePrefs()
	require.NoError(t, prefs.SetCity(context.Background(), 1, "Ташкент"))

	wth := &fakeWeatherSvc{cond: &weather.Conditions{
		TemperatureC: 39.4,
		Description:  "ясно",
	}}
	d, sender := newTestDispatcher(prefs, wth, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "🌦 Погода"))

	msg := sender.last(t)
	assert.Contains(t, msg.text, "Ташкент")
	assert.Contains(t, msg.text, "39.4°C")
}

func TestWeatherFailureReportsUnavailable(t *testing.T) {
	prefs := newFakePrefs()
	require.NoError(t, prefs.SetCity(context.Background(), 1, "Ташкент"))

	wth := &fakeWeatherSvc{condErr: errors.New("api timeout")}
	d, sender := newTestDispatcher(prefs, wth, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "🌦 Погода"))

	msg := sender.last(t)
	assert.Equal(t, WeatherUnavailable(models.LanguageRussian), msg.text)
}

func TestAirQualityUsesWeatherCoordinates(t *testing.T) {
	prefs := newFakePrefs()
	require.NoError(t, prefs.SetCity(context.Background(), 1, "Ташкент"))

	wth := &fakeWeatherSvc{
		cond: &weather.Conditions{Latitude: 41.26, Longitude: 69.21},
		aq:   &weather.AirQuality{Index: 4, PM25: 55.3, PM10: 81.0},
	}
	d, sender := newTestDispatcher(prefs, wth, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "🌫 Воздух (AQI)"))

	msg := sender.last(t)
	assert.Contains(t, msg.text, "🔴 Очень плохо")
	assert.Contains(t, msg.text, "PM2.5: 55.3")
}

func TestCurrencyReportsRate(t *testing.T) {
	cur := &fakeCurrencySvc{rate: &currency.Rate{Code: "USD", Rate: 12650.43, Date: "28.08.2026"}}
	d, sender := newTestDispatcher(newFakePrefs(), nil, cur)

	d.HandleUpdate(context.Background(), textUpdate(1, "💵 Курс валют"))

	msg := sender.last(t)
	assert.Contains(t, msg.text, "1 USD = 12650.43")
}

func TestToggleLanguageRepliesInNewLanguage(t *testing.T) {
	d, sender := newTestDispatcher(newFakePrefs(), nil, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "🌐 Til / Язык"))

	msg := sender.last(t)
	assert.Equal(t, LanguageSwitched(models.LanguageUzbek), msg.text)
	require.NotNil(t, msg.keyboard)
	assert.Equal(t, "🌦 Ob-havo", msg.keyboard.Keyboard[0][0].Text)
}

func TestToggleAlerts(t *testing.T) {
	d, sender := newTestDispatcher(newFakePrefs(), nil, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "🔔 Уведомления"))
	assert.Equal(t, AlertsToggled(models.LanguageRussian, true), sender.last(t).text)

	d.HandleUpdate(context.Background(), textUpdate(1, "🔔 Уведомления"))
	assert.Equal(t, AlertsToggled(models.LanguageRussian, false), sender.last(t).text)
}

func TestStoreFailureRepliesServiceUnavailable(t *testing.T) {
	prefs := newFakePrefs()
	prefs.err = errors.New("connection refused")
	d, sender := newTestDispatcher(prefs, nil, nil)

	d.HandleUpdate(context.Background(), textUpdate(1, "/start"))

	msg := sender.last(t)
	assert.Equal(t, ServiceUnavailable(models.DefaultLanguage), msg.text)
}

func TestNotifierSendsHeatAlertInSubscriberLanguage(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender)

	sub := models.Subscriber{UserID: 7, City: "Toshkent", Language: models.LanguageUzbek}
	require.NoError(t, n.SendHeatAlert(context.Background(), sub, 41.5))

	msg := sender.last(t)
	assert.Equal(t, int64(7), msg.chatID)
	assert.Equal(t, HeatAlert(models.LanguageUzbek, "Toshkent", 41.5), msg.text)
}

package bot

import (
	"context"

	"uzlife-bot-backend/internal/features/preferences/models"
)

// usdCode — единственная валюта, которую показывает бот
const usdCode = "USD"

func (d *Dispatcher) handleStart(ctx context.Context, chatID int64, pref *models.UserPreference) {
	d.reply(ctx, chatID, Greeting(pref.Language), MainKeyboard(pref.Language))
}

func (d *Dispatcher) handleSaveCity(ctx context.Context, chatID int64, pref *models.UserPreference, city string) {
	if err := d.prefs.SetCity(ctx, pref.UserID, city); err != nil {
		d.replyStoreError(ctx, chatID, pref.Language, err)
		return
	}
	d.reply(ctx, chatID, CitySaved(pref.Language, city), nil)
}

func (d *Dispatcher) handleMyCity(ctx context.Context, chatID int64, pref *models.UserPreference) {
	if !pref.HasCity() {
		d.reply(ctx, chatID, NeedCity(pref.Language), nil)
		return
	}
	d.reply(ctx, chatID, MyCity(pref.Language, pref.City), nil)
}

func (d *Dispatcher) handleWeather(ctx context.Context, chatID int64, pref *models.UserPreference) {
	if !pref.HasCity() {
		d.reply(ctx, chatID, NeedCity(pref.Language), nil)
		return
	}

	cond, err := d.weather.CurrentConditions(ctx, pref.City)
	if err != nil {
		d.log.Warn().Err(err).Str("city", pref.City).Msg("Weather lookup failed")
		d.reply(ctx, chatID, WeatherUnavailable(pref.Language), nil)
		return
	}
	d.reply(ctx, chatID, WeatherReport(pref.Language, pref.City, cond), nil)
}

func (d *Dispatcher) handleAirQuality(ctx context.Context, chatID int64, pref *models.UserPreference) {
	if !pref.HasCity() {
		d.reply(ctx, chatID, NeedCity(pref.Language), nil)
		return
	}

	// Координаты города берутся из погодного ответа
	cond, err := d.weather.CurrentConditions(ctx, pref.City)
	if err != nil {
		d.log.Warn().Err(err).Str("city", pref.City).Msg("Weather lookup for AQI failed")
		d.reply(ctx, chatID, WeatherUnavailable(pref.Language), nil)
		return
	}

	aq, err := d.weather.AirQuality(ctx, cond.Latitude, cond.Longitude)
	if err != nil {
		d.log.Warn().Err(err).Str("city", pref.City).Msg("Air quality lookup failed")
		d.reply(ctx, chatID, AirQualityUnavailable(pref.Language), nil)
		return
	}
	d.reply(ctx, chatID, AirQualityReport(pref.Language, pref.City, aq), nil)
}

func (d *Dispatcher) handleCurrency(ctx context.Context, chatID int64, pref *models.UserPreference) {
	rate, err := d.currency.Rate(ctx, usdCode)
	if err != nil {
		d.log.Warn().Err(err).Msg("Currency lookup failed")
		d.reply(ctx, chatID, CurrencyUnavailable(pref.Language), nil)
		return
	}
	d.reply(ctx, chatID, CurrencyReport(pref.Language, rate), nil)
}

func (d *Dispatcher) handleToggleLanguage(ctx context.Context, chatID int64, pref *models.UserPreference) {
	next, err := d.prefs.ToggleLanguage(ctx, pref.UserID)
	if err != nil {
		d.replyStoreError(ctx, chatID, pref.Language, err)
		return
	}
	// Ответ и клавиатура уже на новом языке
	d.reply(ctx, chatID, LanguageSwitched(next), MainKeyboard(next))
}

func (d *Dispatcher) handleToggleAlerts(ctx context.Context, chatID int64, pref *models.UserPreference) {
	enabled, err := d.prefs.ToggleAlerts(ctx, pref.UserID)
	if err != nil {
		d.replyStoreError(ctx, chatID, pref.Language, err)
		return
	}
	d.reply(ctx, chatID, AlertsToggled(pref.Language, enabled), nil)
}

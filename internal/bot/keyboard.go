package bot

import (
	"uzlife-bot-backend/internal/features/preferences/models"
	"uzlife-bot-backend/internal/platform/telegram"
)

type buttonKind int

const (
	btnUnknown buttonKind = iota
	btnWeather
	btnAirQuality
	btnCurrency
	btnMyCity
	btnLanguage
	btnAlerts
)

type buttonSet struct {
	weather    string
	airQuality string
	currency   string
	myCity     string
	language   string
	alerts     string
}

var buttons = map[models.Language]buttonSet{
	models.LanguageRussian: {
		weather:    "🌦 Погода",
		airQuality: "🌫 Воздух (AQI)",
		currency:   "💵 Курс валют",
		myCity:     "🏙 Мой город",
		language:   "🌐 Til / Язык",
		alerts:     "🔔 Уведомления",
	},
	models.LanguageUzbek: {
		weather:    "🌦 Ob-havo",
		airQuality: "🌫 Havo (AQI)",
		currency:   "💵 Valyuta kursi",
		myCity:     "🏙 Mening shahrim",
		language:   "🌐 Til / Язык",
		alerts:     "🔔 Bildirishnomalar",
	},
}

// MainKeyboard строит основную reply-клавиатуру на языке пользователя
func MainKeyboard(lang models.Language) *telegram.ReplyKeyboard {
	b, ok := buttons[lang]
	if !ok {
		b = buttons[models.DefaultLanguage]
	}
	return &telegram.ReplyKeyboard{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: b.weather}, {Text: b.airQuality}},
			{{Text: b.currency}, {Text: b.myCity}},
			{{Text: b.language}, {Text: b.alerts}},
		},
		ResizeKeyboard: true,
	}
}

// matchButton распознает нажатие кнопки на любом из поддерживаемых языков:
// после переключения языка у пользователя может остаться старая клавиатура
func matchButton(text string) buttonKind {
	for _, b := range buttons {
		switch text {
		case b.weather:
			return btnWeather
		case b.airQuality:
			return btnAirQuality
		case b.currency:
			return btnCurrency
		case b.myCity:
			return btnMyCity
		case b.language:
			return btnLanguage
		case b.alerts:
			return btnAlerts
		}
	}
	return btnUnknown
}

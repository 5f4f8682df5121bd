package bot

import (
	"fmt"

	"uzlife-bot-backend/internal/features/preferences/models"
	"uzlife-bot-backend/internal/service/currency"
	"uzlife-bot-backend/internal/service/weather"
)

// Вся видимая пользователю локализация живет здесь: остальной код
// хранит и передает только тег языка.

type textSet struct {
	greeting              string
	citySaved             string
	myCity                string
	needCity              string
	weatherReport         string
	weatherUnavailable    string
	airQualityReport      string
	airQualityUnavailable string
	currencyReport        string
	currencyUnavailable   string
	languageSwitched      string
	alertsEnabled         string
	alertsDisabled        string
	heatAlert             string
	serviceUnavailable    string
	aqiLabels             [5]string
	aqiUnknown            string
}

var texts = map[models.Language]textSet{
	models.LanguageRussian: {
		greeting: "🇺🇿 UzLife Bot\n\n" +
			"Погода, экология и городская жизнь Узбекистана.\n\n" +
			"👉 Напиши город (например: Ташкент)",
		citySaved: "🏙 Город сохранён: %s",
		myCity:    "🏙 Твой город: %s",
		needCity:  "❗ Сначала напиши город (например: Ташкент)",
		weatherReport: "🌦 Погода в %s\n\n" +
			"🌡 Температура: %.1f°C\n" +
			"🤒 Ощущается: %.1f°C\n" +
			"💧 Влажность: %d%%\n" +
			"💨 Ветер: %.1f м/с\n" +
			"☁️ %s",
		weatherUnavailable: "❌ Не удалось получить погоду",
		airQualityReport: "🌫 Качество воздуха в %s\n\n" +
			"AQI: %s\n" +
			"PM2.5: %.1f µg/m³\n" +
			"PM10: %.1f µg/m³",
		airQualityUnavailable: "❌ AQI недоступен",
		currencyReport: "💵 Курс ЦБ РУз\n\n" +
			"1 %s = %.2f сум\n" +
			"Дата: %s",
		currencyUnavailable: "❌ Не удалось получить курс валют",
		languageSwitched:    "🌐 Язык переключен: русский",
		alertsEnabled:       "🔔 Уведомления о жаре включены",
		alertsDisabled:      "🔕 Уведомления о жаре выключены",
		heatAlert: "🥵 Жара в %s: %.1f°C\n\n" +
			"Пей больше воды и избегай солнца в полдень.",
		serviceUnavailable: "⚠️ Сервис временно недоступен, попробуй позже",
		aqiLabels: [5]string{
			"🟢 Хорошо", "🟡 Умеренно", "🟠 Плохо", "🔴 Очень плохо", "🟣 Опасно",
		},
		aqiUnknown: "—",
	},
	models.LanguageUzbek: {
		greeting: "🇺🇿 UzLife Bot\n\n" +
			"O'zbekiston ob-havosi, ekologiyasi va shahar hayoti.\n\n" +
			"👉 Shahringni yoz (masalan: Toshkent)",
		citySaved: "🏙 Shahar saqlandi: %s",
		myCity:    "🏙 Sening shahring: %s",
		needCity:  "❗ Avval shaharni yoz (masalan: Toshkent)",
		weatherReport: "🌦 %s ob-havosi\n\n" +
			"🌡 Harorat: %.1f°C\n" +
			"🤒 His qilinadi: %.1f°C\n" +
			"💧 Namlik: %d%%\n" +
			"💨 Shamol: %.1f m/s\n" +
			"☁️ %s",
		weatherUnavailable: "❌ Ob-havoni olib bo'lmadi",
		airQualityReport: "🌫 %s havo sifati\n\n" +
			"AQI: %s\n" +
			"PM2.5: %.1f µg/m³\n" +
			"PM10: %.1f µg/m³",
		airQualityUnavailable: "❌ AQI mavjud emas",
		currencyReport: "💵 O'zR MB kursi\n\n" +
			"1 %s = %.2f so'm\n" +
			"Sana: %s",
		currencyUnavailable: "❌ Valyuta kursini olib bo'lmadi",
		languageSwitched:    "🌐 Til o'zgartirildi: o'zbekcha",
		alertsEnabled:       "🔔 Jazirama haqida bildirishnomalar yoqildi",
		alertsDisabled:      "🔕 Jazirama haqida bildirishnomalar o'chirildi",
		heatAlert: "🥵 %sda jazirama: %.1f°C\n\n" +
			"Ko'proq suv ich va tushda quyoshdan saqlan.",
		serviceUnavailable: "⚠️ Xizmat vaqtincha ishlamayapti, keyinroq urinib ko'r",
		aqiLabels: [5]string{
			"🟢 Yaxshi", "🟡 O'rtacha", "🟠 Yomon", "🔴 Juda yomon", "🟣 Xavfli",
		},
		aqiUnknown: "—",
	},
}

func textsFor(lang models.Language) textSet {
	if t, ok := texts[lang]; ok {
		return t
	}
	return texts[models.DefaultLanguage]
}

func Greeting(lang models.Language) string {
	return textsFor(lang).greeting
}

func CitySaved(lang models.Language, city string) string {
	return fmt.Sprintf(textsFor(lang).citySaved, city)
}

func MyCity(lang models.Language, city string) string {
	return fmt.Sprintf(textsFor(lang).myCity, city)
}

func NeedCity(lang models.Language) string {
	return textsFor(lang).needCity
}

func WeatherReport(lang models.Language, city string, cond *weather.Conditions) string {
	return fmt.Sprintf(textsFor(lang).weatherReport,
		city, cond.TemperatureC, cond.FeelsLikeC, cond.HumidityPct,
		cond.WindSpeedMS, cond.Description)
}

func WeatherUnavailable(lang models.Language) string {
	return textsFor(lang).weatherUnavailable
}

func AirQualityReport(lang models.Language, city string, aq *weather.AirQuality) string {
	return fmt.Sprintf(textsFor(lang).airQualityReport,
		city, aqiLabel(lang, aq.Index), aq.PM25, aq.PM10)
}

func AirQualityUnavailable(lang models.Language) string {
	return textsFor(lang).airQualityUnavailable
}

func CurrencyReport(lang models.Language, rate *currency.Rate) string {
	return fmt.Sprintf(textsFor(lang).currencyReport, rate.Code, rate.Rate, rate.Date)
}

func CurrencyUnavailable(lang models.Language) string {
	return textsFor(lang).currencyUnavailable
}

// LanguageSwitched отвечает на новом языке, не на прежнем
func LanguageSwitched(lang models.Language) string {
	return textsFor(lang).languageSwitched
}

func AlertsToggled(lang models.Language, enabled bool) string {
	if enabled {
		return textsFor(lang).alertsEnabled
	}
	return textsFor(lang).alertsDisabled
}

func HeatAlert(lang models.Language, city string, tempC float64) string {
	return fmt.Sprintf(textsFor(lang).heatAlert, city, tempC)
}

func ServiceUnavailable(lang models.Language) string {
	return textsFor(lang).serviceUnavailable
}

func aqiLabel(lang models.Language, index int) string {
	t := textsFor(lang)
	if index < 1 || index > len(t.aqiLabels) {
		return t.aqiUnknown
	}
	return t.aqiLabels[index-1]
}

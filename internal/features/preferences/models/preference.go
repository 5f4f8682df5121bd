package models

import "time"

// Language представляет язык интерфейса пользователя.
// Закрытое множество: русский и узбекский.
type Language string

const (
	LanguageRussian Language = "ru"
	LanguageUzbek   Language = "uz"
)

// DefaultLanguage назначается при создании записи пользователя
const DefaultLanguage = LanguageRussian

// Valid проверяет, принадлежит ли значение закрытому множеству языков
func (l Language) Valid() bool {
	return l == LanguageRussian || l == LanguageUzbek
}

// Toggled возвращает противоположный язык
func (l Language) Toggled() Language {
	if l == LanguageRussian {
		return LanguageUzbek
	}
	return LanguageRussian
}

// UserPreference представляет сохраненные настройки пользователя бота
type UserPreference struct {
	UserID        int64     `json:"user_id"`
	City          string    `json:"city"` // пустая строка — город не задан
	Language      Language  `json:"language"`
	AlertsEnabled bool      `json:"alerts_enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasCity сообщает, задан ли у пользователя город
func (p *UserPreference) HasCity() bool {
	return p.City != ""
}

// Subscriber представляет пользователя, подписанного на уведомления.
// В выборку попадают только записи с включенными уведомлениями и заданным городом.
type Subscriber struct {
	UserID   int64    `json:"user_id"`
	City     string   `json:"city"`
	Language Language `json:"language"`
}

// PreferenceUpdate описывает частичное обновление настроек:
// изменяются только не-nil поля, остальные сохраняют прежние значения.
type PreferenceUpdate struct {
	City          *string
	Language      *Language
	AlertsEnabled *bool
}

// Empty сообщает, что обновление не затрагивает ни одного поля
func (u PreferenceUpdate) Empty() bool {
	return u.City == nil && u.Language == nil && u.AlertsEnabled == nil
}

package repository

import (
	"context"
	"errors"

	"uzlife-bot-backend/internal/features/preferences/models"
)

var (
	ErrUserNotFound = errors.New("user preference not found")
)

// PreferenceRepository определяет доступ к долговременному хранилищу настроек.
// Каждая мутация зафиксирована в хранилище до возврата из вызова.
type PreferenceRepository interface {
	// EnsureUser создает запись с настройками по умолчанию, если ее еще нет.
	// Повторный вызов для существующего id — no-op.
	EnsureUser(ctx context.Context, userID int64) error

	// GetByID возвращает текущий снимок настроек.
	// Возвращает ErrUserNotFound, если EnsureUser для id никогда не вызывался.
	GetByID(ctx context.Context, userID int64) (*models.UserPreference, error)

	// Update атомарно применяет частичное обновление, неявно создавая
	// запись при отсутствии. При ошибке хранилища прежнее состояние не меняется.
	Update(ctx context.Context, userID int64, upd models.PreferenceUpdate) error

	// ListSubscribers возвращает всех пользователей с включенными
	// уведомлениями и заданным городом, порядок не определен.
	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
}

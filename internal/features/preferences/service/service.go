package service

import (
	"context"
	"errors"

	apperrors "uzlife-bot-backend/internal/common/errors"
	"uzlife-bot-backend/internal/common/logger"
	"uzlife-bot-backend/internal/features/preferences/models"
	"uzlife-bot-backend/internal/features/preferences/repository"
)

// PreferenceCache абстрагирует кэш снимков настроек.
// Кэш вспомогательный: любая его ошибка не влияет на результат операции.
type PreferenceCache interface {
	Get(ctx context.Context, userID int64) (*models.UserPreference, error)
	Set(ctx context.Context, pref *models.UserPreference) error
	Invalidate(ctx context.Context, userID int64) error
}

// PreferenceService — единственный источник правды о настройках пользователя.
// Безопасен для одновременных вызовов из пути взаимодействия и планировщика.
type PreferenceService interface {
	EnsureUser(ctx context.Context, userID int64) error
	GetUser(ctx context.Context, userID int64) (*models.UserPreference, error)
	UpdateUser(ctx context.Context, userID int64, upd models.PreferenceUpdate) error
	SetCity(ctx context.Context, userID int64, city string) error
	ToggleLanguage(ctx context.Context, userID int64) (models.Language, error)
	ToggleAlerts(ctx context.Context, userID int64) (bool, error)
	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
}

type preferenceService struct {
	repo  repository.PreferenceRepository
	cache PreferenceCache // nil допустим: сервис работает без кэша
}

func NewPreferenceService(repo repository.PreferenceRepository, cache PreferenceCache) PreferenceService {
	return &preferenceService{
		repo:  repo,
		cache: cache,
	}
}

func (s *preferenceService) EnsureUser(ctx context.Context, userID int64) error {
	if err := s.repo.EnsureUser(ctx, userID); err != nil {
		return apperrors.NewStoreError("ensure_user", err).WithUserID(userID)
	}
	return nil
}

func (s *preferenceService) GetUser(ctx context.Context, userID int64) (*models.UserPreference, error) {
	if s.cache != nil {
		if pref, err := s.cache.Get(ctx, userID); err == nil {
			return pref, nil
		}
	}

	pref, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(userID)
		}
		return nil, apperrors.NewStoreError("get_user", err).WithUserID(userID)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, pref); err != nil {
			logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to cache user preference")
		}
	}
	return pref, nil
}

func (s *preferenceService) UpdateUser(ctx context.Context, userID int64, upd models.PreferenceUpdate) error {
	if upd.Language != nil && !upd.Language.Valid() {
		return apperrors.New(apperrors.ErrCodeValidation, "unsupported language").
			WithDetail("language", string(*upd.Language)).
			WithUserID(userID)
	}

	if err := s.repo.Update(ctx, userID, upd); err != nil {
		return apperrors.NewStoreError("update_user", err).WithUserID(userID)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *preferenceService) SetCity(ctx context.Context, userID int64, city string) error {
	return s.UpdateUser(ctx, userID, models.PreferenceUpdate{City: &city})
}

// ToggleLanguage переключает язык ru ⇄ uz и возвращает новое значение
func (s *preferenceService) ToggleLanguage(ctx context.Context, userID int64) (models.Language, error) {
	pref, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}

	next := pref.Language.Toggled()
	if err := s.UpdateUser(ctx, userID, models.PreferenceUpdate{Language: &next}); err != nil {
		return "", err
	}
	return next, nil
}

// ToggleAlerts переключает подписку на уведомления и возвращает новое состояние
func (s *preferenceService) ToggleAlerts(ctx context.Context, userID int64) (bool, error) {
	pref, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}

	next := !pref.AlertsEnabled
	if err := s.UpdateUser(ctx, userID, models.PreferenceUpdate{AlertsEnabled: &next}); err != nil {
		return false, err
	}
	return next, nil
}

// ListSubscribers всегда читает из долговременного хранилища, минуя кэш
func (s *preferenceService) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	subscribers, err := s.repo.ListSubscribers(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list_subscribers", err)
	}
	return subscribers, nil
}

func (s *preferenceService) getOrCreate(ctx context.Context, userID int64) (*models.UserPreference, error) {
	pref, err := s.GetUser(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if appErr, ok := apperrors.AsAppError(err); !ok || !appErr.IsNotFound() {
		return nil, err
	}

	if err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

func (s *preferenceService) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to invalidate user preference cache")
	}
}

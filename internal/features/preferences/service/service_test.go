package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "uzlife-bot-backend/internal/common/errors"
	"uzlife-bot-backend/internal/features/preferences/models"
	"uzlife-bot-backend/internal/features/preferences/repository"
)

// fakeRepo воспроизводит семантику postgres-репозитория в памяти
type fakeRepo struct {
	mu    sync.Mutex
	prefs map[int64]*models.UserPreference
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{prefs: make(map[int64]*models.UserPreference)}
}

func (r *fakeRepo) ensureLocked(userID int64) *models.UserPreference {
	pref, ok := r.prefs[userID]
	if !ok {
		now := time.Now()
		pref = &models.UserPreference{
			UserID:    userID,
			Language:  models.DefaultLanguage,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.prefs[userID] = pref
	}
	return pref
}

func (r *fakeRepo) EnsureUser(_ context.Context, userID int64) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked(userID)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, userID int64) (*models.UserPreference, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pref, ok := r.prefs[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	snapshot := *pref
	return &snapshot, nil
}

func (r *fakeRepo) Update(_ context.Context, userID int64, upd models.PreferenceUpdate) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pref := r.ensureLocked(userID)
	if upd.City != nil {
		pref.City = *upd.City
	}
	if upd.Language != nil {
		pref.Language = *upd.Language
	}
	if upd.AlertsEnabled != nil {
		pref.AlertsEnabled = *upd.AlertsEnabled
	}
	pref.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) ListSubscribers(_ context.Context) ([]models.Subscriber, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var subs []models.Subscriber
	for _, pref := range r.prefs {
		if pref.AlertsEnabled && pref.City != "" {
			subs = append(subs, models.Subscriber{
				UserID:   pref.UserID,
				City:     pref.City,
				Language: pref.Language,
			})
		}
	}
	return subs, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[int64]*models.UserPreference
	invalidated []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int64]*models.UserPreference)}
}

func (c *fakeCache) Get(_ context.Context, userID int64) (*models.UserPreference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pref, ok := c.entries[userID]
	if !ok {
		return nil, errors.New("cache miss")
	}
	snapshot := *pref
	return &snapshot, nil
}

func (c *fakeCache) Set(_ context.Context, pref *models.UserPreference) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := *pref
	c.entries[pref.UserID] = &snapshot
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func TestEnsureUserDefaults(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureUser(ctx, 1))

	pref, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pref.UserID)
	assert.Equal(t, models.LanguageRussian, pref.Language)
	assert.False(t, pref.AlertsEnabled)
	assert.False(t, pref.HasCity())
}

func TestEnsureUserIdempotent(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureUser(ctx, 1))
	require.NoError(t, svc.SetCity(ctx, 1, "Ташкент"))

	// Повторный ensure не должен затирать сохраненные настройки
	require.NoError(t, svc.EnsureUser(ctx, 1))

	pref, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ташкент", pref.City)
}

func TestGetUserNotFound(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)

	_, err := svc.GetUser(context.Background(), 42)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsNotFound())
}

func TestPartialUpdatePreservesOtherFields(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)
	ctx := context.Background()

	require.NoError(t, svc.SetCity(ctx, 1, "Бухара"))
	_, err := svc.ToggleAlerts(ctx, 1)
	require.NoError(t, err)

	lang := models.LanguageUzbek
	require.NoError(t, svc.UpdateUser(ctx, 1, models.PreferenceUpdate{Language: &lang}))

	pref, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Бухара", pref.City)
	assert.True(t, pref.AlertsEnabled)
	assert.Equal(t, models.LanguageUzbek, pref.Language)
}

func TestSetCityImplicitlyCreatesUser(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)
	ctx := context.Background()

	require.NoError(t, svc.SetCity(ctx, 7, "Самарканд"))

	pref, err := svc.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Самарканд", pref.City)
	assert.Equal(t, models.DefaultLanguage, pref.Language)
}

func TestUpdateUserRejectsUnknownLanguage(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)

	bad := models.Language("en")
	err := svc.UpdateUser(context.Background(), 1, models.PreferenceUpdate{Language: &bad})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestToggleLanguageRoundTrip(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)
	ctx := context.Background()

	// Переключение работает и для пользователя, которого еще нет в хранилище
	next, err := svc.ToggleLanguage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageUzbek, next)

	next, err = svc.ToggleLanguage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageRussian, next)
}

func TestToggleAlerts(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)
	ctx := context.Background()

	enabled, err := svc.ToggleAlerts(ctx, 1)
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = svc.ToggleAlerts(ctx, 1)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestListSubscribersFiltering(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)
	ctx := context.Background()

	// Подписан и город задан — попадает в выборку
	require.NoError(t, svc.SetCity(ctx, 1, "Ташкент"))
	_, err := svc.ToggleAlerts(ctx, 1)
	require.NoError(t, err)

	// Подписан, но город не задан — не попадает
	_, err = svc.ToggleAlerts(ctx, 2)
	require.NoError(t, err)

	// Город задан, но не подписан — не попадает
	require.NoError(t, svc.SetCity(ctx, 3, "Бухара"))

	subs, err := svc.ListSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(1), subs[0].UserID)
	assert.Equal(t, "Ташкент", subs[0].City)

	// Отписка немедленно убирает пользователя из выборки
	_, err = svc.ToggleAlerts(ctx, 1)
	require.NoError(t, err)

	subs, err = svc.ListSubscribers(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestStoreErrorMapping(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	svc := NewPreferenceService(repo, nil)
	ctx := context.Background()

	err := svc.EnsureUser(ctx, 1)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsStoreUnavailable())

	_, err = svc.ListSubscribers(ctx)
	require.Error(t, err)
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsStoreUnavailable())
}

func TestGetUserReadsThroughCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := NewPreferenceService(repo, cache)
	ctx := context.Background()

	require.NoError(t, svc.EnsureUser(ctx, 1))

	// Первое чтение наполняет кэш
	_, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, cache.entries, int64(1))

	// Второе чтение обслуживается кэшем даже при недоступном хранилище
	repo.err = errors.New("connection refused")
	pref, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pref.UserID)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := NewPreferenceService(repo, cache)
	ctx := context.Background()

	require.NoError(t, svc.SetCity(ctx, 1, "Ташкент"))
	_, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.SetCity(ctx, 1, "Нукус"))
	assert.Contains(t, cache.invalidated, int64(1))

	pref, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Нукус", pref.City)
}

func TestConcurrentUpdatesDistinctUsers(t *testing.T) {
	svc := NewPreferenceService(newFakeRepo(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(1); i <= 10; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			assert.NoError(t, svc.SetCity(ctx, userID, "Ташкент"))
			_, err := svc.ToggleAlerts(ctx, userID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	subs, err := svc.ListSubscribers(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 10)
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uzlife-bot-backend/internal/features/preferences/models"
	rplatform "uzlife-bot-backend/internal/platform/redis"
)

// PreferenceCache кэширует снимки настроек пользователей в Redis.
// Путь взаимодействия читает через него, планировщик уведомлений кэш минует.
type PreferenceCache struct {
	client *rplatform.Client
	ttl    time.Duration
}

func NewPreferenceCache(client *rplatform.Client, ttl time.Duration) *PreferenceCache {
	return &PreferenceCache{client: client, ttl: ttl}
}

func (c *PreferenceCache) key(userID int64) string {
	return fmt.Sprintf("prefs:user:%d", userID)
}

// Get возвращает кэшированный снимок настроек либо ошибку при промахе
func (c *PreferenceCache) Get(ctx context.Context, userID int64) (*models.UserPreference, error) {
	v, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return nil, err
	}
	var pref models.UserPreference
	if err := json.Unmarshal(v, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Set сохраняет снимок настроек с настроенным TTL
func (c *PreferenceCache) Set(ctx context.Context, pref *models.UserPreference) error {
	b, err := json.Marshal(pref)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(pref.UserID), b, c.ttl).Err()
}

// Invalidate удаляет кэшированную запись пользователя
func (c *PreferenceCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

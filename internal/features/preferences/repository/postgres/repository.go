package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"uzlife-bot-backend/internal/features/preferences/models"
	"uzlife-bot-backend/internal/features/preferences/repository"

	_ "github.com/lib/pq"
)

// Схема создается идемпотентно: повторный запуск ничего не ломает.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT PRIMARY KEY,
	city TEXT,
	language TEXT NOT NULL DEFAULT '%s',
	alerts BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_alerts ON users (alerts) WHERE alerts;
`

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.PreferenceRepository {
	return &postgresRepository{db: db}
}

// Migrate создает таблицу users, если ее еще нет
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(schema, models.DefaultLanguage)); err != nil {
		return fmt.Errorf("failed to migrate users schema: %w", err)
	}
	return nil
}

// EnsureUser создает запись с настройками по умолчанию.
// Повторная вставка существующего id — no-op, не ошибка.
func (r *postgresRepository) EnsureUser(ctx context.Context, userID int64) error {
	query := `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetByID получает настройки пользователя по ID
func (r *postgresRepository) GetByID(ctx context.Context, userID int64) (*models.UserPreference, error) {
	query := `
		SELECT id, COALESCE(city, ''), language, alerts, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var pref models.UserPreference
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&pref.UserID, &pref.City, &pref.Language, &pref.AlertsEnabled,
		&pref.CreatedAt, &pref.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user preference: %w", err)
	}

	return &pref, nil
}

// Update применяет частичное обновление одним запросом: вставка с
// конфликтом по id обновляет только переданные поля, поэтому все
// названные поля фиксируются атомарно, а запись создается при отсутствии.
func (r *postgresRepository) Update(ctx context.Context, userID int64, upd models.PreferenceUpdate) error {
	query, args := buildUpsert(userID, upd)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update user preference: %w", err)
	}
	return nil
}

// ListSubscribers получает всех подписанных пользователей с заданным городом
func (r *postgresRepository) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	query := `
		SELECT id, city, language
		FROM users
		WHERE alerts AND city IS NOT NULL AND city <> ''
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		if err := rows.Scan(&sub.UserID, &sub.City, &sub.Language); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}

	return subscribers, nil
}

// buildUpsert строит запрос частичного обновления: в списке колонок и в
// секции DO UPDATE участвуют только переданные поля. Пустой город
// нормализуется в NULL.
func buildUpsert(userID int64, upd models.PreferenceUpdate) (string, []interface{}) {
	cols := []string{"id"}
	values := []string{"$1"}
	args := []interface{}{userID}
	var assignments []string

	addField := func(col, placeholder string, value interface{}) {
		cols = append(cols, col)
		values = append(values, placeholder)
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	if upd.City != nil {
		addField("city", fmt.Sprintf("NULLIF($%d, '')", len(args)+1), *upd.City)
	}
	if upd.Language != nil {
		addField("language", fmt.Sprintf("$%d", len(args)+1), string(*upd.Language))
	}
	if upd.AlertsEnabled != nil {
		addField("alerts", fmt.Sprintf("$%d", len(args)+1), *upd.AlertsEnabled)
	}

	if len(assignments) == 0 {
		return `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, args
	}

	query := fmt.Sprintf(
		`INSERT INTO users (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s, updated_at = NOW()`,
		strings.Join(cols, ", "),
		strings.Join(values, ", "),
		strings.Join(assignments, ", "),
	)
	return query, args
}

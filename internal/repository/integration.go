package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Nickto55/serverReport/internal/domain/model"
)

// ErrUnknownPlatform — платформа не поддерживается.
var ErrUnknownPlatform = errors.New("неизвестная платформа")

// platformTable — таблица и колонки интеграций одной платформы.
// Имена подставляются в SQL только из platformTables.
type platformTable struct {
	table    string
	idCol    string
	nameCol  string
	platform string
}

var platformTables = map[string]platformTable{
	model.PlatformDiscord: {
		table: "discord_integrations", idCol: "discord_user_id",
		nameCol: "discord_username", platform: model.PlatformDiscord,
	},
	model.PlatformTelegram: {
		table: "telegram_integrations", idCol: "telegram_user_id",
		nameCol: "telegram_username", platform: model.PlatformTelegram,
	},
}

// tableFor возвращает описание таблицы платформы.
func tableFor(platform string) (platformTable, error) {
	t, ok := platformTables[platform]
	if !ok {
		return platformTable{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
	return t, nil
}

// columns — список колонок в порядке scanIntegration.
func (t platformTable) columns() string {
	return fmt.Sprintf(
		"id, %s, %s, user_id, link_code, link_code_expires_at, created_at, updated_at",
		t.idCol, t.nameCol,
	)
}

// IntegrationRepository — доступ к таблицам *_integrations.
type IntegrationRepository interface {
	// EnsureLinked атомарно создаёт запись, если её нет, иначе возвращает существующую.
	// created = true, если запись создана этим вызовом.
	EnsureLinked(ctx context.Context, platform, externalID, externalUsername string) (integ *model.Integration, created bool, err error)
	// GetByExternalID возвращает запись по ID пользователя платформы.
	GetByExternalID(ctx context.Context, platform, externalID string) (*model.Integration, error)
	// SetLinkCode сохраняет одноразовый код привязки.
	SetLinkCode(ctx context.Context, platform, externalID, code string, expiresAt time.Time) (*model.Integration, error)
	// ConfirmLink привязывает запись с действующим кодом к userID и сбрасывает код.
	ConfirmLink(ctx context.Context, platform, code, userID string) (*model.Integration, error)
	// ListByUser возвращает все записи, привязанные к userID.
	ListByUser(ctx context.Context, userID string) ([]*model.Integration, error)
	// Unlink очищает user_id записи, принадлежащей userID.
	Unlink(ctx context.Context, platform, externalID, userID string) error
}

// integrationRepo — реализация IntegrationRepository.
type integrationRepo struct {
	db DBTX
}

// NewIntegrationRepository создаёт репозиторий интеграций.
func NewIntegrationRepository(db DBTX) IntegrationRepository {
	return &integrationRepo{db: db}
}

func scanIntegration(row pgx.Row, platform string, extra ...any) (*model.Integration, error) {
	integ := &model.Integration{Platform: platform}
	dest := []any{
		&integ.ID, &integ.ExternalUserID, &integ.ExternalUsername, &integ.UserID,
		&integ.LinkCode, &integ.LinkCodeExpiresAt, &integ.CreatedAt, &integ.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return integ, nil
}

func (r *integrationRepo) EnsureLinked(ctx context.Context, platform, externalID, externalUsername string) (*model.Integration, bool, error) {
	t, err := tableFor(platform)
	if err != nil {
		return nil, false, err
	}

	// Вставка с ON CONFLICT DO NOTHING возвращает строку только при создании,
	// вторая ветка UNION читает существующую запись.
	query := fmt.Sprintf(`
		WITH ins AS (
			INSERT INTO %[1]s (%[2]s, %[3]s)
			VALUES ($1, $2)
			ON CONFLICT (%[2]s) DO NOTHING
			RETURNING %[4]s
		)
		SELECT %[4]s, true FROM ins
		UNION ALL
		SELECT %[4]s, false FROM %[1]s
		WHERE %[2]s = $1 AND NOT EXISTS (SELECT 1 FROM ins)`,
		t.table, t.idCol, t.nameCol, t.columns())

	var created bool
	integ, err := scanIntegration(r.db.QueryRow(ctx, query, externalID, externalUsername), platform, &created)
	if err == nil {
		return integ, created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("ошибка регистрации интеграции %s: %w", platform, err)
	}

	// Конкурентная вставка зафиксирована после снимка запроса: строка
	// не видна ни в ins, ни в SELECT. Перечитываем один раз.
	integ, err = r.GetByExternalID(ctx, platform, externalID)
	if err != nil {
		return nil, false, err
	}
	return integ, false, nil
}

func (r *integrationRepo) GetByExternalID(ctx context.Context, platform, externalID string) (*model.Integration, error) {
	t, err := tableFor(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, t.columns(), t.table, t.idCol)

	integ, err := scanIntegration(r.db.QueryRow(ctx, query, externalID), platform)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения интеграции %s: %w", platform, err)
	}
	return integ, nil
}

func (r *integrationRepo) SetLinkCode(ctx context.Context, platform, externalID, code string, expiresAt time.Time) (*model.Integration, error) {
	t, err := tableFor(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET link_code = $2, link_code_expires_at = $3, updated_at = NOW()
		WHERE %s = $1
		RETURNING %s`, t.table, t.idCol, t.columns())

	integ, err := scanIntegration(r.db.QueryRow(ctx, query, externalID, code, expiresAt), platform)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: код привязки уже выдан", ErrConflict)
		}
		return nil, fmt.Errorf("ошибка сохранения кода привязки: %w", err)
	}
	return integ, nil
}

func (r *integrationRepo) ConfirmLink(ctx context.Context, platform, code, userID string) (*model.Integration, error) {
	t, err := tableFor(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET user_id = $2, link_code = NULL, link_code_expires_at = NULL, updated_at = NOW()
		WHERE link_code = $1 AND link_code_expires_at > NOW()
		RETURNING %s`, t.table, t.columns())

	integ, err := scanIntegration(r.db.QueryRow(ctx, query, code, userID), platform)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: пользователь %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("ошибка привязки интеграции: %w", err)
	}
	return integ, nil
}

func (r *integrationRepo) ListByUser(ctx context.Context, userID string) ([]*model.Integration, error) {
	parts := make([]string, 0, len(model.Platforms))
	for _, p := range model.Platforms {
		t := platformTables[p]
		parts = append(parts, fmt.Sprintf(
			`SELECT %s, '%s' AS platform FROM %s WHERE user_id = $1`,
			t.columns(), t.platform, t.table,
		))
	}
	query := strings.Join(parts, " UNION ALL ") + " ORDER BY created_at"

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения интеграций: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Integration, 0)
	for rows.Next() {
		var platform string
		integ, err := scanIntegration(rows, "", &platform)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования интеграции: %w", err)
		}
		integ.Platform = platform
		result = append(result, integ)
	}
	return result, rows.Err()
}

func (r *integrationRepo) Unlink(ctx context.Context, platform, externalID, userID string) error {
	t, err := tableFor(platform)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET user_id = NULL, updated_at = NOW()
		WHERE %s = $1 AND user_id = $2`, t.table, t.idCol)

	tag, err := r.db.Exec(ctx, query, externalID, userID)
	if err != nil {
		return fmt.Errorf("ошибка отвязки интеграции: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

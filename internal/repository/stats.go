package repository

import (
	"context"
	"fmt"

	"github.com/Nickto55/serverReport/internal/domain/model"
)

// StatsRepository — агрегированные счётчики для администратора.
type StatsRepository interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

type statsRepo struct {
	db DBTX
}

// NewStatsRepository создаёт репозиторий статистики.
func NewStatsRepository(db DBTX) StatsRepository {
	return &statsRepo{db: db}
}

// Stats выполняет пять независимых COUNT-запросов без общей транзакции.
// При конкурентной записи значения могут не согласовываться между собой
// (например, open_reports больше total_reports); для дашборда это допустимо.
func (r *statsRepo) Stats(ctx context.Context) (*model.Stats, error) {
	s := &model.Stats{}
	counters := []struct {
		name  string
		query string
		dest  *int64
	}{
		{"users", `SELECT COUNT(*) FROM users`, &s.TotalUsers},
		{"reports", `SELECT COUNT(*) FROM reports`, &s.TotalReports},
		{"open_reports", `SELECT COUNT(*) FROM reports WHERE status = 'open'`, &s.OpenReports},
		{"discord_integrations", `SELECT COUNT(*) FROM discord_integrations`, &s.DiscordIntegrations},
		{"telegram_integrations", `SELECT COUNT(*) FROM telegram_integrations`, &s.TelegramIntegrations},
	}

	for _, c := range counters {
		if err := r.db.QueryRow(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("ошибка подсчёта %s: %w", c.name, err)
		}
	}
	return s, nil
}

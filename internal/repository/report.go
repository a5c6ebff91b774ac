package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Nickto55/serverReport/internal/domain/model"
)

// ReportPatch — частичное обновление отчёта. nil-поле не изменяется.
// Пустая строка в Category очищает категорию.
type ReportPatch struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Status      *string
}

// ReportFilter — фильтры административного списка. nil — без фильтра.
type ReportFilter struct {
	Status   *string
	Priority *string
}

// ReportRepository — доступ к таблице reports.
type ReportRepository interface {
	// Create сохраняет отчёт, заполняя ID, CreatedAt и UpdatedAt.
	Create(ctx context.Context, rep *model.Report) error
	// GetForUser возвращает отчёт, принадлежащий userID.
	GetForUser(ctx context.Context, id int64, userID string) (*model.Report, error)
	// ListByUser возвращает отчёты пользователя, новые первыми. limit <= 0 — без ограничения.
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Report, error)
	// Update применяет patch к отчёту владельца и обновляет updated_at.
	Update(ctx context.Context, id int64, userID string, patch ReportPatch) (*model.Report, error)
	// Delete удаляет отчёт владельца.
	Delete(ctx context.Context, id int64, userID string) error
	// ListFiltered возвращает все отчёты с именем владельца.
	ListFiltered(ctx context.Context, filter ReportFilter) ([]*model.ReportWithOwner, error)
	// UpdateStatus меняет только статус, без проверки владельца.
	UpdateStatus(ctx context.Context, id int64, status string) (*model.Report, error)
}

// reportRepo — реализация ReportRepository.
type reportRepo struct {
	db DBTX
}

// NewReportRepository создаёт репозиторий отчётов.
func NewReportRepository(db DBTX) ReportRepository {
	return &reportRepo{db: db}
}

const reportColumns = `id, user_id, title, description, category, priority, status, source, created_at, updated_at`

// scanReport сканирует строку с колонками reportColumns (и дополнительными dest).
func scanReport(row pgx.Row, rep *model.Report, extra ...any) error {
	dest := []any{
		&rep.ID, &rep.UserID, &rep.Title, &rep.Description, &rep.Category,
		&rep.Priority, &rep.Status, &rep.Source, &rep.CreatedAt, &rep.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *reportRepo) Create(ctx context.Context, rep *model.Report) error {
	query := `
		INSERT INTO reports (user_id, title, description, category, priority, status, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		rep.UserID, rep.Title, rep.Description, rep.Category,
		rep.Priority, rep.Status, rep.Source,
	).Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: пользователь %s", ErrNotFound, rep.UserID)
		}
		return fmt.Errorf("ошибка создания отчёта: %w", err)
	}
	return nil
}

func (r *reportRepo) GetForUser(ctx context.Context, id int64, userID string) (*model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1 AND user_id = $2`

	rep := &model.Report{}
	if err := scanReport(r.db.QueryRow(ctx, query, id, userID), rep); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения отчёта: %w", err)
	}
	return rep, nil
}

func (r *reportRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка отчётов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Report, 0)
	for rows.Next() {
		rep := &model.Report{}
		if err := scanReport(rows, rep); err != nil {
			return nil, fmt.Errorf("ошибка сканирования отчёта: %w", err)
		}
		result = append(result, rep)
	}
	return result, rows.Err()
}

func (r *reportRepo) Update(ctx context.Context, id int64, userID string, patch ReportPatch) (*model.Report, error) {
	// COALESCE оставляет поле без изменений, если значение не передано.
	// Для category пустая строка превращается в NULL.
	query := `
		UPDATE reports
		SET title       = COALESCE($3, title),
		    description = COALESCE($4, description),
		    category    = NULLIF(COALESCE($5, category), ''),
		    priority    = COALESCE($6, priority),
		    status      = COALESCE($7, status),
		    updated_at  = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + reportColumns

	rep := &model.Report{}
	err := scanReport(r.db.QueryRow(ctx, query,
		id, userID, patch.Title, patch.Description, patch.Category, patch.Priority, patch.Status,
	), rep)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления отчёта: %w", err)
	}
	return rep, nil
}

func (r *reportRepo) Delete(ctx context.Context, id int64, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reports WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления отчёта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reportRepo) ListFiltered(ctx context.Context, filter ReportFilter) ([]*model.ReportWithOwner, error) {
	where, args := buildReportFilter(filter)

	query := fmt.Sprintf(`
		SELECT r.id, r.user_id, r.title, r.description, r.category, r.priority,
			r.status, r.source, r.created_at, r.updated_at, u.username
		FROM reports r
		JOIN users u ON u.id = r.user_id
		%s
		ORDER BY r.created_at DESC, r.id DESC`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка отчётов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.ReportWithOwner, 0)
	for rows.Next() {
		rep := &model.ReportWithOwner{}
		if err := scanReport(rows, &rep.Report, &rep.Username); err != nil {
			return nil, fmt.Errorf("ошибка сканирования отчёта: %w", err)
		}
		result = append(result, rep)
	}
	return result, rows.Err()
}

// buildReportFilter строит WHERE с позиционными параметрами для ListFiltered.
func buildReportFilter(filter ReportFilter) (string, []any) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}
	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("r.priority = $%d", argNum))
		args = append(args, *filter.Priority)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *reportRepo) UpdateStatus(ctx context.Context, id int64, status string) (*model.Report, error) {
	query := `
		UPDATE reports
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reportColumns

	rep := &model.Report{}
	if err := scanReport(r.db.QueryRow(ctx, query, id, status), rep); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления статуса отчёта: %w", err)
	}
	return rep, nil
}

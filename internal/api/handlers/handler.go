// handler.go — основной обработчик HTTP API serverReport.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Nickto55/serverReport/internal/api/errors"
	"github.com/Nickto55/serverReport/internal/domain/model"
	"github.com/Nickto55/serverReport/internal/repository"
	"github.com/Nickto55/serverReport/internal/service"
)

// ReportService — операции над отчётами, используемые API.
type ReportService interface {
	Create(ctx context.Context, in service.CreateReportInput) (*model.Report, error)
	Get(ctx context.Context, id int64, userID string) (*model.Report, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Report, error)
	Update(ctx context.Context, id int64, userID string, patch repository.ReportPatch) (*model.Report, error)
	Delete(ctx context.Context, id int64, userID string) error
	ListFiltered(ctx context.Context, status, priority *string) ([]*model.ReportWithOwner, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*model.Report, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// UserService — административный доступ к пользователям.
type UserService interface {
	List(ctx context.Context) ([]*model.User, error)
	Reports(ctx context.Context, userID string) ([]*model.Report, error)
}

// IdentityService — привязка учётных записей платформ к пользователю website.
type IdentityService interface {
	ConfirmLink(ctx context.Context, userID, platform, code string) (*model.Integration, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Integration, error)
	Unlink(ctx context.Context, userID, platform, externalID string) error
}

// APIHandler — основной обработчик API.
type APIHandler struct {
	reports  ReportService
	users    UserService
	identity IdentityService
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	reports ReportService,
	users UserService,
	identity IdentityService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		reports:  reports,
		users:    users,
		identity: identity,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// --- Вспомогательные функции ---

// messageResponse — ответ с текстовым сообщением.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса. При ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return false
	}
	return true
}

// reportIDParam извлекает положительный числовой id из пути.
func reportIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		apierrors.ValidationError(w, "Некорректный идентификатор отчёта")
		return 0, false
	}
	return id, true
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Неизвестные ошибки логируются и возвращаются как 500 без деталей.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrInvalidLinkCode):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, notFoundMsg)
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, repository.ErrConflict):
		apierrors.Conflict(w, "Конфликт при сохранении, повторите запрос")
	default:
		h.logger.Error("Ошибка обработки запроса",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

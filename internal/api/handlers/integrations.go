// integrations.go — обработчики /api/integrations: привязка учётных записей
// Discord и Telegram к пользователю website по коду из бота.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nickto55/serverReport/internal/domain/model"
)

// linkRequest — тело POST /api/integrations/link.
type linkRequest struct {
	Platform string `json:"platform"`
	Code     string `json:"code"`
}

// integrationResponse — JSON представление интеграции. Код привязки не раскрывается.
type integrationResponse struct {
	Platform         string    `json:"platform"`
	ExternalUserID   string    `json:"external_user_id"`
	ExternalUsername string    `json:"external_username"`
	UserID           *string   `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ListIntegrations — GET /api/integrations.
func (h *APIHandler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.identity.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err, "Интеграция не найдена")
		return
	}

	items := make([]integrationResponse, len(list))
	for i, integ := range list {
		items[i] = mapIntegration(integ)
	}
	writeJSON(w, http.StatusOK, items)
}

// LinkIntegration — POST /api/integrations/link.
func (h *APIHandler) LinkIntegration(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req linkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	integ, err := h.identity.ConfirmLink(r.Context(), userID, req.Platform, req.Code)
	if err != nil {
		h.writeServiceError(w, r, err, "Интеграция не найдена")
		return
	}
	writeJSON(w, http.StatusOK, mapIntegration(integ))
}

// UnlinkIntegration — DELETE /api/integrations/{platform}/{externalUserId}.
func (h *APIHandler) UnlinkIntegration(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.identity.Unlink(r.Context(), userID, chi.URLParam(r, "platform"), chi.URLParam(r, "externalUserId"))
	if err != nil {
		h.writeServiceError(w, r, err, "Интеграция не найдена")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Integration unlinked"})
}

func mapIntegration(integ *model.Integration) integrationResponse {
	return integrationResponse{
		Platform:         integ.Platform,
		ExternalUserID:   integ.ExternalUserID,
		ExternalUsername: integ.ExternalUsername,
		UserID:           integ.UserID,
		CreatedAt:        integ.CreatedAt,
		UpdatedAt:        integ.UpdatedAt,
	}
}

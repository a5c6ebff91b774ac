// auth_me.go — GET /api/auth/me: текущий пользователь из JWT claims.
package handlers

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/Nickto55/serverReport/internal/api/errors"
	"github.com/Nickto55/serverReport/internal/api/middleware"
)

// principalResponse — данные текущего пользователя.
type principalResponse struct {
	ID       string               `json:"id"`
	Username string               `json:"username"`
	Email    *openapi_types.Email `json:"email,omitempty"`
	Role     string               `json:"role"`
	Groups   []string             `json:"groups,omitempty"`
}

// GetCurrentUser — GET /api/auth/me.
// Роль — effective: максимум из роли токена и сохранённой роли.
func (h *APIHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return
	}

	resp := principalResponse{
		ID:       claims.Subject,
		Username: claims.PreferredUsername,
		Role:     claims.EffectiveRole,
		Groups:   claims.Groups,
	}
	if resp.Username == "" {
		resp.Username = claims.Subject
	}
	if claims.Email != "" {
		email := openapi_types.Email(claims.Email)
		resp.Email = &email
	}

	writeJSON(w, http.StatusOK, resp)
}

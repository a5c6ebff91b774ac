package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	status string
}

func (s stubChecker) CheckReady() (string, string) {
	return s.status, "проверка"
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"все ok", []string{"ok", "ok"}, "ok"},
		{"один degraded", []string{"ok", "degraded"}, "degraded"},
		{"один fail", []string{"degraded", "fail"}, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overallStatus(tt.statuses...); got != tt.want {
				t.Errorf("overallStatus(%v) = %q, ожидается %q", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		pg, idp    ReadinessChecker
		wantStatus int
		wantBody   string
	}{
		{"все доступны", stubChecker{"ok"}, stubChecker{"ok"}, http.StatusOK, "ok"},
		{"JWKS без ключей", stubChecker{"ok"}, stubChecker{"degraded"}, http.StatusOK, "degraded"},
		{"PostgreSQL недоступен", stubChecker{"fail"}, stubChecker{"ok"}, http.StatusServiceUnavailable, "fail"},
		{"checker не задан", nil, stubChecker{"ok"}, http.StatusServiceUnavailable, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pg, tt.idp)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.wantStatus)
			}
			var resp healthReadyResponse
			_ = json.NewDecoder(rec.Body).Decode(&resp)
			if resp.Status != tt.wantBody || resp.Service != "server-report" {
				t.Errorf("ответ = %+v", resp)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("невалидный JSON: %v", err)
	}
	if rec.Code != http.StatusOK || resp.Status != "ok" || resp.Timestamp == "" {
		t.Errorf("статус = %d, ответ = %+v", rec.Code, resp)
	}
}

package model

import "testing"

func TestEnumValidation(t *testing.T) {
	tests := []struct {
		name  string
		check func(string) bool
		value string
		want  bool
	}{
		{"приоритет medium", IsValidPriority, "medium", true},
		{"приоритет critical", IsValidPriority, "critical", true},
		{"приоритет urgent", IsValidPriority, "urgent", false},
		{"приоритет в верхнем регистре", IsValidPriority, "HIGH", false},
		{"статус in_progress", IsValidStatus, "in_progress", true},
		{"статус resolved", IsValidStatus, "resolved", true},
		{"статус done", IsValidStatus, "done", false},
		{"пустой статус", IsValidStatus, "", false},
		{"источник discord", IsValidSource, "discord", true},
		{"источник slack", IsValidSource, "slack", false},
		{"платформа telegram", IsValidPlatform, "telegram", true},
		{"платформа website", IsValidPlatform, "website", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.value); got != tt.want {
				t.Errorf("проверка %q = %v, хотели %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestRuneLen(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"hello", 5},
		{"Отчёт", 5},
		{"🐞 bug", 5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := RuneLen(tt.input); got != tt.want {
				t.Errorf("RuneLen(%q) = %d, хотели %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIntegrationIsLinked(t *testing.T) {
	userID := "u-1"
	linked := &Integration{UserID: &userID}
	unlinked := &Integration{}

	if !linked.IsLinked() {
		t.Error("IsLinked() = false для привязанной записи")
	}
	if unlinked.IsLinked() {
		t.Error("IsLinked() = true для непривязанной записи")
	}
}

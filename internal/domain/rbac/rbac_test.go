package rbac

import "testing"

func TestEffectiveRole(t *testing.T) {
	tests := []struct {
		name       string
		tokenRole  string
		storedRole string
		want       string
	}{
		{name: "admin из токена, роль в БД не задана", tokenRole: RoleAdmin, want: RoleAdmin},
		{name: "user из токена, роль в БД не задана", tokenRole: RoleUser, want: RoleUser},
		{name: "user из токена, admin в БД — повышение", tokenRole: RoleUser, storedRole: RoleAdmin, want: RoleAdmin},
		{name: "admin из токена, user в БД — понижение игнорируется", tokenRole: RoleAdmin, storedRole: RoleUser, want: RoleAdmin},
		{name: "неизвестная роль из токена приводится к user", tokenRole: "superuser", storedRole: RoleUser, want: RoleUser},
		{name: "пустая роль из токена", tokenRole: "", want: RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveRole(tt.tokenRole, tt.storedRole)
			if got != tt.want {
				t.Errorf("EffectiveRole(%q, %q) = %q, хотели %q",
					tt.tokenRole, tt.storedRole, got, tt.want)
			}
		})
	}
}

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{name: "пустой набор", roles: nil, want: RoleUser},
		{name: "один admin", roles: []string{RoleAdmin}, want: RoleAdmin},
		{name: "user + admin", roles: []string{RoleUser, RoleAdmin}, want: RoleAdmin},
		{name: "неизвестные роли игнорируются", roles: []string{"root", RoleUser}, want: RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestRole(tt.roles); got != tt.want {
				t.Errorf("HighestRole(%v) = %q, хотели %q", tt.roles, got, tt.want)
			}
		})
	}
}

func TestMapGroupsToRole(t *testing.T) {
	adminGroups := []string{"serverreport-admins", "ops"}

	tests := []struct {
		name       string
		groups     []string
		realmRoles []string
		want       string
	}{
		{name: "группа admins -> admin", groups: []string{"serverreport-admins"}, want: RoleAdmin},
		{name: "вторая admin-группа", groups: []string{"dev", "ops"}, want: RoleAdmin},
		{name: "realm-роль admin", realmRoles: []string{"offline_access", "admin"}, want: RoleAdmin},
		{name: "нет совпадений -> user", groups: []string{"dev"}, realmRoles: []string{"offline_access"}, want: RoleUser},
		{name: "пустой токен -> user", want: RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapGroupsToRole(tt.groups, tt.realmRoles, adminGroups)
			if got != tt.want {
				t.Errorf("MapGroupsToRole(%v, %v) = %q, хотели %q", tt.groups, tt.realmRoles, got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, true},
		{"readonly", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := IsValidRole(tt.role); got != tt.want {
				t.Errorf("IsValidRole(%q) = %v, хотели %v", tt.role, got, tt.want)
			}
		})
	}
}

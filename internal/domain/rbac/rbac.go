// Пакет rbac — логика определения эффективной роли пользователя.
// Роль берётся из двух источников: группы IdP в JWT и роль, сохранённая в users.
// Итоговая роль = max(роль из токена, сохранённая роль).
// Роль можно только повысить, не понизить.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// EffectiveRole вычисляет итоговую роль = max(tokenRole, storedRole).
// Пустая сохранённая роль не влияет на результат.
func EffectiveRole(tokenRole, storedRole string) string {
	if storedRole == "" {
		return normalize(tokenRole)
	}
	return maxRole(normalize(tokenRole), storedRole)
}

// maxRole возвращает роль с максимальными привилегиями из двух.
func maxRole(a, b string) string {
	if roleWeight[a] >= roleWeight[b] {
		return a
	}
	return b
}

// normalize приводит неизвестную или пустую роль к RoleUser.
func normalize(role string) string {
	if IsValidRole(role) {
		return role
	}
	return RoleUser
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает RoleUser.
func HighestRole(roles []string) string {
	highest := RoleUser
	for _, r := range roles {
		if IsValidRole(r) {
			highest = maxRole(highest, r)
		}
	}
	return highest
}

// MapGroupsToRole определяет роль по группам IdP и ролям realm из токена.
// Членство в одной из adminGroups или realm-роль "admin" даёт RoleAdmin,
// иначе — RoleUser.
func MapGroupsToRole(groups, realmRoles, adminGroups []string) string {
	adminSet := toSet(adminGroups)

	var roles []string
	for _, g := range groups {
		if adminSet[g] {
			roles = append(roles, RoleAdmin)
		}
	}
	for _, r := range realmRoles {
		if r == RoleAdmin {
			roles = append(roles, RoleAdmin)
		}
	}

	return HighestRole(roles)
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// toSet конвертирует срез строк в map для быстрого поиска.
func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}

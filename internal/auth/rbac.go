package auth

import "strings"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleConvenor Role = "convenor"
	RoleMember   Role = "member"
)

// NormalizeRole maps unknown values to the least privileged role.
func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleConvenor):
		return RoleConvenor
	default:
		return RoleMember
	}
}

// ParseRole is NormalizeRole without the fallback.
func ParseRole(role string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(role))); r {
	case RoleAdmin, RoleConvenor, RoleMember:
		return r, true
	default:
		return "", false
	}
}

func HasRole(role string, allowed ...Role) bool {
	if len(allowed) == 0 {
		return false
	}
	current := NormalizeRole(role)
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}

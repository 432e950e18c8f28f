package user

import (
	"strings"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	TeacherRoles = []string{RoleTeacher}
	StudentRoles = []string{RoleStudent}
	AllRoles     = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:     30,
		RoleAdminPrincipal: 29,
		RoleAdmin:          21,

		// Teachers: 20 - 11
		RoleTeacher: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, StudentRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// Session is the read-only identity of the caller of a request.
// It is built once from the bearer token and passed explicitly to whatever needs it.
type Session struct {
	UserID   string   `json:"user_id" validate:"required"`
	Username string   `json:"username"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Roles    []string `json:"roles" validate:"required,allroles"`
}

func (s Session) RoleStartsWith(prefix string) bool {
	for _, role := range s.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (s Session) IsAdmin() bool {
	return s.RoleStartsWith(RoleAdmin)
}

func (s Session) IsTeacher() bool {
	return s.RoleStartsWith(RoleTeacher)
}

func (s Session) IsStudent() bool {
	return s.RoleStartsWith(RoleStudent)
}

// HasAnyRole reports whether one of the session roles starts with one of roles.
func (s Session) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if s.RoleStartsWith(r) {
			return true
		}
	}
	return false
}

// Priority is the priority of the most privileged role of the session.
func (s Session) Priority() int {
	return MaxRolePriority(s.Roles)
}

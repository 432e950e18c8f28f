package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/chuo/core"
)

func TestSession_roles(t *testing.T) {
	tests := []struct {
		name        string
		roles       []string
		wantAdmin   bool
		wantTeacher bool
		wantStudent bool
		wantPrio    int
	}{
		{name: "none"},
		{name: "student", roles: []string{RoleStudent}, wantStudent: true, wantPrio: 1},
		{name: "teacher", roles: []string{RoleTeacher}, wantTeacher: true, wantPrio: 11},
		{name: "principal", roles: []string{RoleAdminPrincipal}, wantAdmin: true, wantPrio: 29},
		{name: "teacher & admin", roles: []string{RoleTeacher, RoleAdmin}, wantAdmin: true, wantTeacher: true, wantPrio: 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{UserID: "1", Roles: tt.roles}
			assert.Equal(t, tt.wantAdmin, s.IsAdmin())
			assert.Equal(t, tt.wantTeacher, s.IsTeacher())
			assert.Equal(t, tt.wantStudent, s.IsStudent())
			assert.Equal(t, tt.wantPrio, s.Priority())
		})
	}
}

func TestSession_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	RegisterValidators(validate, translator)

	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{name: "valid", session: Session{UserID: "42", Roles: []string{RoleStudent}}},
		{name: "no user id", session: Session{Roles: []string{RoleStudent}}, wantErr: true},
		{name: "no roles", session: Session{UserID: "42"}, wantErr: true},
		{name: "unknown role", session: Session{UserID: "42", Roles: []string{RoleStudent, "janitor:"}}, wantErr: true},
		{name: "bad email", session: Session{UserID: "42", Email: "nope", Roles: []string{RoleAdmin}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate(validate)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

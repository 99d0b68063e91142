package auth

import (
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
)

func testConfig() *core.Config {
	conf := core.NewConfig()
	conf.SecretKey = "secret"
	return conf
}

func TestNewClaims(t *testing.T) {
	conf := testConfig()

	tests := []struct {
		name        string
		roles       []string
		wantAdmin   bool
		wantTeacher bool
		wantStudent bool
		wantErr     bool
	}{
		{name: "admin", roles: []string{RoleAdminBursar}, wantAdmin: true},
		{name: "teacher", roles: []string{RoleTeacher}, wantTeacher: true},
		{name: "student", roles: []string{RoleStudent}, wantStudent: true},
		{name: "teacher & admin", roles: []string{RoleTeacher, RoleAdmin}, wantAdmin: true, wantTeacher: true},
		{name: "no roles"},
		{name: "invalid role", roles: []string{"admin:god"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := NewClaims(conf, "id", "Name", "", tt.roles...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClaims() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.Equal(t, ErrInvalidRole, errors.Cause(err))
				return
			}
			assert.Equal(t, tt.wantAdmin, claims.IsAdmin)
			assert.Equal(t, tt.wantTeacher, claims.IsTeacher)
			assert.Equal(t, tt.wantStudent, claims.IsStudent)
		})
	}
}

func TestClaims_HasAnyRole(t *testing.T) {
	claims := Claims{Roles: []string{RoleTeacher, RoleAdminPrincipal}}

	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{name: "any", want: true},
		{name: "one of", roles: []string{RoleAdminBursar, RoleAdminPrincipal}, want: true},
		{name: "none of", roles: []string{RoleAdminBursar, RoleStudent}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := claims.HasAnyRole(tt.roles...); got != tt.want {
				t.Errorf("HasAnyRole() = %v, want %v", got, tt.want)
			}
		})
	}
	assert.Equal(t, []string{RoleTeacher, RoleAdminPrincipal}, claims.Roles, "roles are left untouched")
}

func TestGenerateToken(t *testing.T) {
	conf := testConfig()
	claims, err := NewClaims(conf, "42", "Bursar", "bursar@test.cd", RoleAdminBursar)
	if err != nil {
		t.Fatalf("NewClaims() error = %v", err)
	}

	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	parsed := new(Claims)
	_, err = jwt.ParseWithClaims(token, parsed, func(*jwt.Token) (interface{}, error) {
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		t.Fatalf("ParseWithClaims() error = %v", err)
	}
	assert.Equal(t, claims, parsed)
	assert.Equal(t, core.Identity{ID: "42", Name: "Bursar", Email: "bursar@test.cd"}, parsed.Identity())
}

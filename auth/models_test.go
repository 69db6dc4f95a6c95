package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/recipebox-go/apperror"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase stays unchanged", "test1@example.com", "test1@example.com"},
		{"uppercase domain is lowered", "test1@EXAMPLE.com", "test1@example.com"},
		{"mixed-case local part is preserved", "Test2@Example.com", "Test2@example.com"},
		{"uppercase local part is preserved", "TEST3@EXAMPLE.COM", "TEST3@example.com"},
		{"uppercase tld only", "test4@example.COM", "test4@example.com"},
		{"at sign in local part, last @ splits", `"odd@local"@Example.COM`, `"odd@local"@example.com`},
		{"no at sign passes through", "not-an-email", "not-an-email"},
		{"empty string passes through", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmail(tt.input))
		})
	}
}

func TestNewUser(t *testing.T) {
	user, err := NewUser("New@EXAMPLE.com", "New User")
	require.NoError(t, err)

	assert.Equal(t, "New@example.com", user.Email)
	assert.Equal(t, "New User", user.Name)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.IsSuperuser)
}

func TestNewUserEmptyEmail(t *testing.T) {
	user, err := NewUser("", "No Email")
	require.Error(t, err)
	assert.Nil(t, user)
	assert.True(t, apperror.IsValidationError(err))
}

func TestNewSuperuser(t *testing.T) {
	user, err := NewSuperuser("admin@Example.COM", "")
	require.NoError(t, err)

	assert.Equal(t, "admin@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
}

func TestNewSuperuserEmptyEmail(t *testing.T) {
	user, err := NewSuperuser("", "")
	require.Error(t, err)
	assert.Nil(t, user)
	assert.True(t, apperror.IsValidationError(err))
}

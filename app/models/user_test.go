package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("testuser", "test@example.com", "secret123")
	assert.NoError(t, err)
	assert.Equal(t, "testuser", user.Name)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, ROLE_USER, user.Role)
	assert.Equal(t, STATUS_ACTIVE, user.Status)
	assert.Equal(t, SignupBonusCredits, user.Credits)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("ab", "test@example.com", "secret123")
	assert.Error(t, err, "name below minimum length must be rejected")

	_, err = CreateUser("testuser", "not-an-email", "secret123")
	assert.Error(t, err)
}

func TestCheckPassword(t *testing.T) {
	user, err := CreateUser("testuser", "test@example.com", "secret123")
	assert.NoError(t, err)

	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestSetPassword(t *testing.T) {
	user, err := CreateUser("testuser", "test@example.com", "secret123")
	assert.NoError(t, err)

	assert.NoError(t, user.SetPassword("newsecret"))
	assert.True(t, user.CheckPassword("newsecret"))
	assert.False(t, user.CheckPassword("secret123"))
}

func TestGenerateAPIKey(t *testing.T) {
	user := &User{}
	key, err := user.GenerateAPIKey()
	assert.NoError(t, err)
	assert.Len(t, key, 48)
	assert.Equal(t, HashAPIKey(key), user.APIKeyHash)
	assert.NotContains(t, user.APIKeyHash, key, "plaintext key must not be stored")

	other := &User{}
	otherKey, err := other.GenerateAPIKey()
	assert.NoError(t, err)
	assert.NotEqual(t, key, otherKey)
}

func TestIsActive(t *testing.T) {
	assert.True(t, (&User{Status: STATUS_ACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_DISABLED}).IsActive())
	assert.False(t, (&User{Status: STATUS_INACTIVE}).IsActive())
}

package users

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSecretSource struct {
	secret string
}

func (s *staticSecretSource) GetSecretKey() (string, error) {
	return s.secret, nil
}

func Test_GenerateAccessToken_ValidUser_ProducesVerifiableClaims(t *testing.T) {
	service := &UserService{
		secretKeys: &staticSecretSource{secret: "test-secret"},
	}

	user := &User{
		ID:                   uuid.New(),
		Email:                "editor@example.com",
		PasswordCreationTime: time.Now().UTC().Truncate(time.Second),
		Role:                 UserRoleEditor,
		Status:               UserStatusActive,
	}

	response, err := service.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.Equal(t, user.ID, response.UserID)
	assert.Equal(t, user.Email, response.Email)

	parsed, err := jwt.Parse(response.Token, func(token *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, isOk := parsed.Claims.(jwt.MapClaims)
	require.True(t, isOk)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, string(UserRoleEditor), claims["role"])
	assert.Equal(t, float64(user.PasswordCreationTime.Unix()), claims["passwordCreationTime"])
}

func Test_GenerateAccessToken_WrongSecret_FailsVerification(t *testing.T) {
	service := &UserService{
		secretKeys: &staticSecretSource{secret: "test-secret"},
	}

	user := &User{
		ID:                   uuid.New(),
		Email:                "editor@example.com",
		PasswordCreationTime: time.Now().UTC(),
		Role:                 UserRoleEditor,
		Status:               UserStatusActive,
	}

	response, err := service.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = jwt.Parse(response.Token, func(token *jwt.Token) (any, error) {
		return []byte("another-secret"), nil
	})
	assert.Error(t, err)
}

func Test_LoginThrottle_BurstExceeded_DeniesRequest(t *testing.T) {
	throttle := NewLoginThrottle(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, throttle.limiterFor("10.0.0.1").Allow(), "attempt %d should pass", i+1)
	}

	assert.False(t, throttle.limiterFor("10.0.0.1").Allow())

	// Other IPs are unaffected
	assert.True(t, throttle.limiterFor("10.0.0.2").Allow())
}

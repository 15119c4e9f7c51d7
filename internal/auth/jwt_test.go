package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtyhub/messaging/internal/models"
)

const testSecret = "test-secret-key-for-jwt-tests"

func testUser() *models.User {
	return &models.User{
		ID:       uuid.NewString(),
		Name:     "Ana Agent",
		Email:    "ana@example.com",
		UserType: models.UserTypeAgent,
	}
}

func TestInitJWTKey(t *testing.T) {
	InitJWTKey([]byte(testSecret))

	token, _, err := GenerateToken(testUser())
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestGenerateToken(t *testing.T) {
	InitJWTKey([]byte(testSecret))

	tests := []struct {
		name    string
		user    *models.User
		wantErr bool
	}{
		{
			name:    "valid user",
			user:    testUser(),
			wantErr: false,
		},
		{
			name: "missing user ID",
			user: &models.User{
				Name:  "Ana Agent",
				Email: "ana@example.com",
			},
			wantErr: true,
		},
		{
			name:    "nil user",
			user:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiry, err := GenerateToken(tt.user)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, token)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.True(t, expiry.After(time.Now()))

			claims, err := ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, claims.UserID)
			assert.Equal(t, tt.user.Name, claims.Name)
			assert.Equal(t, tt.user.UserType, claims.UserType)
		})
	}
}

func TestValidateToken(t *testing.T) {
	InitJWTKey([]byte(testSecret))

	validUser := testUser()
	validToken, _, err := GenerateToken(validUser)
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID: validUser.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{UserID: validUser.ID})
	otherKeyToken, err := otherKey.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	tests := []struct {
		name        string
		tokenString string
		wantErr     bool
	}{
		{"valid token", validToken, false},
		{"empty token", "", true},
		{"invalid token format", "not.a.valid.jwt.token", true},
		{"tampered token", validToken + "tampered", true},
		{"expired token", expiredToken, true},
		{"wrong signing key", otherKeyToken, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.tokenString)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, claims)
				return
			}

			assert.NoError(t, err)
			require.NotNil(t, claims)
			assert.Equal(t, validUser.ID, claims.UserID)
			assert.Equal(t, models.SenderProfile{ID: validUser.ID, Name: validUser.Name, UserType: models.UserTypeAgent}, claims.Profile())
		})
	}
}

func TestGetUserIDFromToken(t *testing.T) {
	tests := []struct {
		name    string
		claims  *JWTClaims
		want    string
		wantErr bool
	}{
		{"valid claims", &JWTClaims{UserID: "user-1"}, "user-1", false},
		{"empty user id", &JWTClaims{}, "", true},
		{"nil claims", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := GetUserIDFromToken(tt.claims)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, userID)
		})
	}
}

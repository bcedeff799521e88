package auth

import (
	"testing"
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/config"
	"github.com/arnavshah/pair-overlap-api/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	return NewService(config.AuthOptions{
		JWTSecret:    "jwt-secret",
		MasterSecret: "master-secret",
		TokenTTL:     time.Hour,
		BcryptCost:   bcrypt.MinCost,
	})
}

func TestPasswordHash(t *testing.T) {
	s := newTestService()
	hash, err := s.HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter2", hash))
	assert.False(t, CheckPasswordHash("hunter3", hash))
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(config.AuthOptions{BcryptCost: 99})
	assert.Equal(t, bcrypt.DefaultCost, s.bcryptCost)
	assert.Equal(t, 24*time.Hour, s.tokenTTL)
}

func TestToken_RoundTrip(t *testing.T) {
	s := newTestService()
	token, err := s.CreateToken("admin")
	require.NoError(t, err)

	claims, err := s.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestToken_Rejected(t *testing.T) {
	s := newTestService()
	token, err := s.CreateToken("admin")
	require.NoError(t, err)

	other := NewService(config.AuthOptions{JWTSecret: "other", BcryptCost: bcrypt.MinCost})
	_, err = other.VerifyToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := s.CreateToken("admin")
	require.NoError(t, err)
	_, err = s.VerifyToken(expired)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestService().VerifyToken(none)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestHMACKey(t *testing.T) {
	s := newTestService()
	key := s.GenerateHMACKey("team.alpha")

	user, err := s.VerifyHMACKey(key)
	require.NoError(t, err)
	assert.Equal(t, "team.alpha", user)

	_, err = s.VerifyHMACKey("team.alpha.0000")
	assert.Equal(t, ErrInvalidSignature, err)

	for _, bad := range []string{"", "nodot", ".sig", "user."} {
		_, err = s.VerifyHMACKey(bad)
		assert.Equal(t, ErrInvalidKeyFormat, err, bad)
	}
}

func TestKeyPreview(t *testing.T) {
	assert.Equal(t, "ali...cdef", KeyPreview("alice.0123456789abcdef"))
	assert.Equal(t, "****", KeyPreview("short"))
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := database.Open(config.DatabaseOptions{DataPath: "file:" + uuid.NewString() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	s := newTestService()
	created, err := s.EnsureAdminExists(db, "admin", "pw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureAdminExists(db, "someone", "else")
	require.NoError(t, err)
	assert.False(t, created)

	var user database.MasterUser
	require.NoError(t, db.First(&user).Error)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, CheckPasswordHash("pw", user.PasswordHash))
}

package auth

import (
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough-32"

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "o2c-test"})
}

func TestValidateToken_Success(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	actor, err := claims.ActorID()
	require.NoError(t, err)
	assert.Equal(t, userID, actor)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.GenerateToken(uuid.New(), "bob", time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := newTestService().ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_DifferentSecret(t *testing.T) {
	token, err := NewJWTService(config.JWTConfig{Secret: "another-secret-key-that-is-long-32", Issuer: "o2c-test"}).
		GenerateToken(uuid.New(), "eve", time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	token, err := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"}).
		GenerateToken(uuid.New(), "eve", time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: uuid.New().String()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_SubjectFallback(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})
	userID := uuid.New()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	actor, err := got.ActorID()
	require.NoError(t, err)
	assert.Equal(t, userID, actor)
}

func TestValidateToken_MissingUser(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestClaims_ActorID(t *testing.T) {
	_, err := (&Claims{UserID: "nope"}).ActorID()
	assert.ErrorIs(t, err, ErrInvalidClaims)
	_, err = (&Claims{UserID: uuid.Nil.String()}).ActorID()
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

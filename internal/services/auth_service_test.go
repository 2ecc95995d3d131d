package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer      = "go-task-api-test"
	testFingerprint = `{"client_ip":"10.0.0.1","user_agent":"curl/8.0"}`
)

var testSigningKey = []byte("test-secret")

func newTestAuthService(t *testing.T) (*authServiceImpl, SessionService) {
	t.Helper()

	sessions, _ := newTestSessionService(t)
	svc := NewAuthService(
		zerolog.Nop(),
		nil,
		sessions,
		testIssuer,
		testSigningKey,
		time.Minute,
		time.Hour,
	)
	return svc.(*authServiceImpl), sessions
}

func TestAuthService_StartSessionIssuesTokens(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.startSession(ctx, "user-1", testFingerprint)
	require.NoError(t, err)
	assert.Equal(t, "user-1", result.UserID)
	assert.NotEmpty(t, result.RefreshToken)
	assert.True(t, result.RefreshTokenExpiresAt.After(result.AccessTokenExpiresAt))

	claims, err := svc.ParseJWTToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.SessionID, claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	session, err := sessions.GetSessionByID(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, result.RefreshToken, session.RefreshToken)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.startSession(ctx, "user-1", testFingerprint)
	require.NoError(t, err)

	t.Run("fingerprint mismatch", func(t *testing.T) {
		_, err := svc.Refresh(ctx, RefreshParams{
			RefreshToken: first.RefreshToken,
			Fingerprint:  "other",
		})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, RefreshParams{
			RefreshToken: "unknown",
			Fingerprint:  testFingerprint,
		})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("rotates", func(t *testing.T) {
		second, err := svc.Refresh(ctx, RefreshParams{
			RefreshToken: first.RefreshToken,
			Fingerprint:  testFingerprint,
		})
		require.NoError(t, err)
		assert.Equal(t, first.SessionID, second.SessionID)
		assert.Equal(t, "user-1", second.UserID)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

		_, err = sessions.GetSessionByRefreshToken(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, ErrSessionNotFound)

		_, err = svc.Refresh(ctx, RefreshParams{
			RefreshToken: first.RefreshToken,
			Fingerprint:  testFingerprint,
		})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestAuthService_ConcurrentRefreshRedeemsTokenOnce(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.startSession(ctx, "user-1", testFingerprint)
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, RefreshParams{
				RefreshToken: first.RefreshToken,
				Fingerprint:  testFingerprint,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrSessionNotFound):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, succeeded.Load())
	assert.EqualValues(t, workers-1, rejected.Load())
}

func TestAuthService_Logout(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.startSession(ctx, "user-1", testFingerprint)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "user-1"))

	_, err = sessions.GetSessionByID(ctx, result.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthService_ParseJWTToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	now := time.Now()
	valid := jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   "session-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}

	t.Run("valid", func(t *testing.T) {
		claims, err := svc.ParseJWTToken(sign(t, jwt.SigningMethodHS256, testSigningKey, valid))
		require.NoError(t, err)
		assert.Equal(t, "session-1", claims.Subject)
	})

	t.Run("expired", func(t *testing.T) {
		expired := valid
		expired.IssuedAt = jwt.NewNumericDate(now.Add(-time.Hour))
		expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))

		_, err := svc.ParseJWTToken(sign(t, jwt.SigningMethodHS256, testSigningKey, expired))
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := svc.ParseJWTToken(sign(t, jwt.SigningMethodHS256, []byte("other"), valid))
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		foreign := valid
		foreign.Issuer = "someone-else"

		_, err := svc.ParseJWTToken(sign(t, jwt.SigningMethodHS256, testSigningKey, foreign))
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("no expiration", func(t *testing.T) {
		noExp := valid
		noExp.ExpiresAt = nil

		_, err := svc.ParseJWTToken(sign(t, jwt.SigningMethodHS256, testSigningKey, noExp))
		assert.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)
		_, err := svc.ParseJWTToken(token)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		anonymous := valid
		anonymous.Subject = ""

		_, err := svc.ParseJWTToken(sign(t, jwt.SigningMethodHS256, testSigningKey, anonymous))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ParseJWTToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "john@example.com", normalizeEmail("  John@Example.COM "))
}

package v1

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/adanyl0v/go-task-api/internal/models"
	"github.com/adanyl0v/go-task-api/internal/services"
)

func TestAuthMiddleware_RejectsMissingOrMalformedHeader(t *testing.T) {
	env := newTestEnv(t)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic dXNlcjpwYXNz", "bearer " + testToken, testToken} {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}

		rec := env.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, "Authorization header required", decodeError(t, rec), header)
	}
}

func TestAuthMiddleware_RejectsInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("ParseJWTToken", "forged").Return(nil, errors.New("signature is invalid")).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer forged")

	rec := env.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeError(t, rec))
}

func TestAuthMiddleware_RejectsTokenOfDeletedSession(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("ParseJWTToken", "orphan").Return(&jwt.RegisteredClaims{Subject: "gone"}, nil).Once()
	env.sessions.On("GetSessionByID", mock.Anything, "gone").Return(nil, services.ErrSessionNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer orphan")

	rec := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Session not found", decodeError(t, rec))
}

func TestAuthMiddleware_RejectsForeignFingerprint(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("ParseJWTToken", "stolen").Return(&jwt.RegisteredClaims{Subject: "victim"}, nil).Once()
	env.sessions.On("GetSessionByID", mock.Anything, "victim").Return(&models.Session{
		ID:          "victim",
		UserID:      env.userID.Hex(),
		Fingerprint: testFingerprint(t, "Firefox"),
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer stolen")
	req.Header.Set("User-Agent", "curl/8.0")

	rec := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Session not found", decodeError(t, rec))
}

func TestAuthMiddleware_SessionStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.auth.On("ParseJWTToken", "flaky").Return(&jwt.RegisteredClaims{Subject: "flaky"}, nil).Once()
	env.sessions.On("GetSessionByID", mock.Anything, "flaky").Return(nil, errors.New("redis: connection refused")).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer flaky")

	rec := env.do(req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec))
}

func TestRouter_NotFoundAndRecovery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeError(t, rec))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec))
}

func TestRouter_ExposeErrors(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.ExposeErrors = true })

	rec := env.do(httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "panic: boom", decodeError(t, rec))
}

func TestRouter_LocalizedErrors(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")

	rec := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "En-tête d'autorisation requis", decodeError(t, rec))
}

package v1

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-api/internal/services"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"
)

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Debug().Msg("authorization header required")
		h.abort(c, newUnauthorizedError(msgAuthHeaderRequired))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix || strings.TrimSpace(parts[1]) == "" {
		h.logger.Debug().Msg("invalid authorization header")
		h.abort(c, newUnauthorizedError(msgAuthHeaderRequired))
		return
	}

	claims, err := h.auth.ParseJWTToken(strings.TrimSpace(parts[1]))
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to parse token")
		h.abort(c, newForbiddenError(msgInvalidToken))
		return
	}

	session, err := h.sessions.GetSessionByID(c, claims.Subject)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.logger.Debug().
				Str("session_id", claims.Subject).
				Msg("session not found")
			h.abort(c, newUnauthorizedError(msgSessionNotFound))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to fetch session")
		h.abortInternal(c, err)
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		h.abortInternal(c, err)
		return
	}

	if fingerprint != session.Fingerprint {
		h.logger.Warn().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		h.abort(c, newUnauthorizedError(msgSessionNotFound))
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)
	c.Next()
}

// mustUserID returns the caller set by HandleAuthMiddleware and aborts
// with 401 when the route was mounted without it.
func (h *handlerImpl) mustUserID(c *gin.Context) (string, bool) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok || userID == "" {
		h.logger.Error().Msg("no user id found in context")
		h.abort(c, newUnauthorizedError(msgAuthHeaderRequired))
		return "", false
	}
	return userID, true
}

package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-api/internal/services"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokenResponse struct {
	UserID                string    `json:"userId"`
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

func newTokenResponse(result *services.LoginResult) tokenResponse {
	return tokenResponse{
		UserID:                result.UserID,
		AccessToken:           result.AccessToken,
		AccessTokenExpiresAt:  result.AccessTokenExpiresAt.UTC(),
		RefreshToken:          result.RefreshToken,
		RefreshTokenExpiresAt: result.RefreshTokenExpiresAt.UTC(),
	}
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind request body")
		h.abort(c, newBadRequestError(validationMessageID(err, msgInvalidRequestBody)))
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

	result, err := h.auth.Login(c, services.LoginParams{
		Email:       req.Email,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			h.abort(c, newUnauthorizedError(msgInvalidCredentials))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to login")
			h.abortInternal(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(result))
}

func (h *handlerImpl) HandleRefresh(c *gin.Context) {
	var req refreshRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind request body")
		h.abort(c, newBadRequestError(validationMessageID(err, msgInvalidRequestBody)))
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

	result, err := h.auth.Refresh(c, services.RefreshParams{
		RefreshToken: req.RefreshToken,
		Fingerprint:  fingerprint,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound),
			errors.Is(err, services.ErrSessionExpired):
			h.abort(c, newUnauthorizedError(msgInvalidRefreshToken))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to refresh session")
			h.abortInternal(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(result))
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind request body")
		h.abort(c, newBadRequestError(validationMessageID(err, msgInvalidRequestBody)))
		return
	}
	h.logger.Info().
		Str("email", req.Email).
		Msg("register request")

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		h.abortInternal(c, err)
		return
	}

	result, err := h.auth.Register(c, services.LoginParams{
		Email:       req.Email,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			h.abort(c, newConflictError(msgUserAlreadyExists))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to register user")
			h.abortInternal(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, newTokenResponse(result))
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	err := h.auth.Logout(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to logout")
		h.abortInternal(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

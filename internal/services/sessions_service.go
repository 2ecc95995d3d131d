package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-api/internal/models"
)

const (
	sessionKeyPrefix      = "session:"
	refreshTokenKeyPrefix = "refresh:"
	userSessionsKeyPrefix = "user_sessions:"
)

type sessionServiceImpl struct {
	logger zerolog.Logger
	rdb    redis.UniversalClient
}

func NewSessionService(
	logger zerolog.Logger,
	rdb redis.UniversalClient,
) SessionService {
	return &sessionServiceImpl{
		logger: logger,
		rdb:    rdb,
	}
}

func (s *sessionServiceImpl) CreateSession(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), data, ttl)
		pipe.Set(ctx, refreshTokenKey(session.RefreshToken), session.ID, ttl)
		pipe.SAdd(ctx, userSessionsKey(session.UserID), session.ID)
		pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to store session")
		return fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("stored session")
	return nil
}

func (s *sessionServiceImpl) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.logger.Debug().
				Str("session_id", sessionID).
				Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to get session by id")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session := new(models.Session)
	err = json.Unmarshal(data, session)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

func (s *sessionServiceImpl) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	sessionID, err := s.rdb.Get(ctx, refreshTokenKey(refreshToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.logger.Debug().Msg("refresh token not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to get session by refresh token")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s.GetSessionByID(ctx, sessionID)
}

func (s *sessionServiceImpl) RotateSession(ctx context.Context, session *models.Session, previousRefreshToken string) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	previousKey := refreshTokenKey(previousRefreshToken)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		owner, err := tx.Get(ctx, previousKey).Result()
		if errors.Is(err, redis.Nil) || (err == nil && owner != session.ID) {
			return ErrSessionNotFound
		} else if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, previousKey)
			pipe.Set(ctx, sessionKey(session.ID), data, ttl)
			pipe.Set(ctx, refreshTokenKey(session.RefreshToken), session.ID, ttl)
			pipe.SAdd(ctx, userSessionsKey(session.UserID), session.ID)
			pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
			return nil
		})
		return err
	}, previousKey)
	// A concurrent rotation consumed the previous token first.
	if errors.Is(err, redis.TxFailedErr) || errors.Is(err, ErrSessionNotFound) {
		s.logger.Debug().
			Str("session_id", session.ID).
			Msg("refresh token already rotated")
		return ErrSessionNotFound
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to rotate session")
		return fmt.Errorf("failed to rotate session: %w", err)
	}

	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("rotated session")
	return nil
}

func (s *sessionServiceImpl) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	sessionIDs, err := s.rdb.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to list user sessions")
		return 0, fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, 2*len(sessionIDs)+1)
	keys = append(keys, userSessionsKey(userID))
	for _, sessionID := range sessionIDs {
		session, err := s.GetSessionByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return 0, err
		}
		keys = append(keys, sessionKey(session.ID), refreshTokenKey(session.RefreshToken))
	}

	deleted, err := s.rdb.Del(ctx, keys...).Result()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete user sessions")
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}

	// Every live session owns two keys besides the shared set.
	affected := (len(keys) - 1) / 2
	s.logger.Debug().
		Str("user_id", userID).
		Int("affected", affected).
		Int64("deleted_keys", deleted).
		Msg("deleted sessions by user id")
	return int64(affected), nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func refreshTokenKey(token string) string {
	return refreshTokenKeyPrefix + token
}

func userSessionsKey(userID string) string {
	return userSessionsKeyPrefix + userID
}

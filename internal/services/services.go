package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-task-api/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrTaskNotFound         = errors.New("task not found")
	ErrInvalidTaskID        = errors.New("invalid task id")
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrInvalidSortField     = errors.New("invalid sort field")
	ErrInvalidPage          = errors.New("invalid page")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions of the user, creates a new
	// session and generates a new token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh rotates the refresh token of the session it belongs to.
	//
	// It returns ErrSessionNotFound if the session with the given
	// refresh token doesn't exist or was issued to another
	// fingerprint, and ErrSessionExpired if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, stores the user and creates a
	// session with the given fingerprint and a fresh token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given access token and returns the registered
	// claims. The error wraps jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	// RotateSession stores the session under its new refresh token
	// and drops the index entry of the previous one. It returns
	// ErrSessionNotFound if the previous token no longer belongs to
	// the session, so a refresh token can be redeemed only once.
	RotateSession(ctx context.Context, session *models.Session, previousRefreshToken string) error
	DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error)
}

type TaskService interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// ListTasks returns a page of the user's tasks. Tasks of other
	// users are never included.
	ListTasks(ctx context.Context, params ListTasksParams) (*TaskPage, error)

	// GetTask returns ErrInvalidTaskID for a malformed id and
	// ErrTaskNotFound if no task with that id belongs to the user.
	GetTask(ctx context.Context, userID, taskID string) (*models.Task, error)

	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask removes the task and returns it as it was before removal.
	DeleteTask(ctx context.Context, userID, taskID string) (*models.Task, error)

	// SetTaskImage stores imagePath on the task. The returned string
	// is the image path the task had before, if any.
	SetTaskImage(ctx context.Context, params SetTaskImageParams) (*models.Task, string, error)
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTaskParams struct {
	UserID      string
	Title       string
	Description string
	Status      models.TaskStatus
}

type UpdateTaskParams struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	Status      *models.TaskStatus
}

type SetTaskImageParams struct {
	ID        string
	UserID    string
	ImagePath string
}

type ListTasksParams struct {
	UserID string
	Search string
	Status models.TaskStatus
	// Sort is a field name, optionally prefixed by "-" for descending order.
	Sort  string
	Page  int64
	Limit int64
}

type TaskPage struct {
	Tasks      []*models.Task
	TotalItems int64
	TotalPages int64
	Page       int64
	Limit      int64
}

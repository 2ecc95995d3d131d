package v1

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"

	"github.com/adanyl0v/go-task-api/internal/models"
	"github.com/adanyl0v/go-task-api/internal/services"
	"github.com/adanyl0v/go-task-api/internal/storage"
)

type authServiceMock struct {
	mock.Mock
}

func (m *authServiceMock) Login(ctx context.Context, params services.LoginParams) (*services.LoginResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*services.LoginResult)
	return result, args.Error(1)
}

func (m *authServiceMock) Refresh(ctx context.Context, params services.RefreshParams) (*services.LoginResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*services.LoginResult)
	return result, args.Error(1)
}

func (m *authServiceMock) Register(ctx context.Context, params services.LoginParams) (*services.LoginResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*services.LoginResult)
	return result, args.Error(1)
}

func (m *authServiceMock) Logout(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *authServiceMock) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*jwt.RegisteredClaims)
	return claims, args.Error(1)
}

type sessionServiceMock struct {
	mock.Mock
}

func (m *sessionServiceMock) CreateSession(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *sessionServiceMock) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *sessionServiceMock) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *sessionServiceMock) RotateSession(ctx context.Context, session *models.Session, previousRefreshToken string) error {
	return m.Called(ctx, session, previousRefreshToken).Error(0)
}

func (m *sessionServiceMock) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type taskServiceMock struct {
	mock.Mock
}

func (m *taskServiceMock) CreateTask(ctx context.Context, params services.CreateTaskParams) (*models.Task, error) {
	args := m.Called(ctx, params)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *taskServiceMock) ListTasks(ctx context.Context, params services.ListTasksParams) (*services.TaskPage, error) {
	args := m.Called(ctx, params)
	page, _ := args.Get(0).(*services.TaskPage)
	return page, args.Error(1)
}

func (m *taskServiceMock) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	args := m.Called(ctx, userID, taskID)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *taskServiceMock) UpdateTask(ctx context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	args := m.Called(ctx, params)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *taskServiceMock) DeleteTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	args := m.Called(ctx, userID, taskID)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *taskServiceMock) SetTaskImage(ctx context.Context, params services.SetTaskImageParams) (*models.Task, string, error) {
	args := m.Called(ctx, params)
	task, _ := args.Get(0).(*models.Task)
	return task, args.String(1), args.Error(2)
}

// memoryStorage keeps objects in a map.
type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (s *memoryStorage) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if s.saveErr != nil {
		return s.saveErr
	}

	var buf bytes.Buffer
	_, err := io.Copy(&buf, r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = buf.Bytes()
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, name)
	return nil
}

func (s *memoryStorage) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[name]
	return ok
}

func (s *memoryStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// signingStorage adds presigned URLs on top of memoryStorage.
type signingStorage struct {
	*memoryStorage
}

func (s signingStorage) SignedURL(_ context.Context, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", storage.ErrInvalidName
	}
	return "https://bucket.example.com/" + name + "?X-Amz-Signature=abc", nil
}

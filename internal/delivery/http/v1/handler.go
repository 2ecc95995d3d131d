package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-api/internal/services"
	"github.com/adanyl0v/go-task-api/internal/storage"
	"github.com/adanyl0v/go-task-api/internal/translator"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleUploadTaskImage(c *gin.Context)
	HandleServeUpload(c *gin.Context)

	HandlePing(c *gin.Context)
	HandleHealth(c *gin.Context)
	HandleLanguage(c *gin.Context)
	HandleRecovery(c *gin.Context, recovered any)
	HandleNotFound(c *gin.Context)
}

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

type Options struct {
	// MaxUploadSize is the largest accepted image in bytes.
	MaxUploadSize int64
	ExposeErrors  bool
	HealthChecks  map[string]PingFunc
}

type handlerImpl struct {
	logger     zerolog.Logger
	translator *translator.Translator
	auth       services.AuthService
	sessions   services.SessionService
	tasks      services.TaskService
	storage    storage.Storage
	opts       Options
}

func New(
	logger zerolog.Logger,
	tr *translator.Translator,
	authService services.AuthService,
	sessionService services.SessionService,
	taskService services.TaskService,
	store storage.Storage,
	opts Options,
) Handler {
	registerValidators()

	return &handlerImpl{
		logger:     logger,
		translator: tr,
		auth:       authService,
		sessions:   sessionService,
		tasks:      taskService,
		storage:    store,
		opts:       opts,
	}
}

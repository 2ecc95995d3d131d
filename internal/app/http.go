package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/adanyl0v/go-task-api/internal/config"
	_ "github.com/adanyl0v/go-task-api/internal/delivery/http/docs"
	"github.com/adanyl0v/go-task-api/internal/delivery/http/v1"
	"github.com/adanyl0v/go-task-api/internal/services"
	"github.com/adanyl0v/go-task-api/internal/translator"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	v1Handler := newV1Handler(cfg)

	router, err := newEngine(httpCfg.TrustedProxies)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Strs("trusted_proxies", httpCfg.TrustedProxies).
			Msg("failed to set trusted proxies")
		panic(err)
	}
	router.Use(v1.RequestLogger(globalLogger))
	router.Use(gin.CustomRecovery(v1Handler.HandleRecovery))
	router.Use(v1Handler.HandleLanguage)
	registerRoutes(router, v1Handler)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// kill -9 can't be caught, so only SIGINT and SIGTERM are handled.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

// newEngine builds a bare engine that takes X-Forwarded-For only from
// trustedProxies. With none, the peer address is the client IP.
func newEngine(trustedProxies []string) (*gin.Engine, error) {
	engine := gin.New()
	err := engine.SetTrustedProxies(trustedProxies)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func newV1Handler(cfg *config.Config) v1.Handler {
	jwtCfg := cfg.JWT

	sessionService := services.NewSessionService(globalLogger, globalRedisClient)
	authService := services.NewAuthService(
		globalLogger,
		globalMongoDatabase,
		sessionService,
		jwtCfg.Issuer,
		[]byte(jwtCfg.Secret),
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
	taskService := services.NewTaskService(globalLogger, globalMongoDatabase)

	healthChecks := map[string]v1.PingFunc{
		"mongo": pingMongo,
		"redis": pingRedis,
	}
	if globalS3Storage != nil {
		healthChecks["s3"] = globalS3Storage.Ping
	}

	return v1.New(
		globalLogger,
		translator.MustNew(),
		authService,
		sessionService,
		taskService,
		globalStorage,
		v1.Options{
			MaxUploadSize: cfg.Storage.MaxBytes,
			ExposeErrors:  cfg.HTTP.ExposeErrors,
			HealthChecks:  healthChecks,
		},
	)
}

func registerRoutes(router *gin.Engine, h v1.Handler) {
	v1.RegisterRoutes(router, h)

	if globalUploadDir != "" {
		router.Static("/uploads", globalUploadDir)
	} else {
		router.GET("/uploads/*name", h.HandleServeUpload)
	}

	router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/api-docs/index.html")
	})
	router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.NoRoute(h.HandleNotFound)
}

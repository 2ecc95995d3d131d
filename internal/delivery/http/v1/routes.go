package v1

import "github.com/gin-gonic/gin"

func RegisterRoutes(router gin.IRouter, h Handler) {
	router.GET("/ping", h.HandlePing)
	router.GET("/health", h.HandleHealth)

	apiRouter := router.Group("/api")

	authRouter := apiRouter.Group("/auth")
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)

	tasksRouter := apiRouter.Group("/tasks", h.HandleAuthMiddleware)
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.GET("", h.HandleGetTasks)
	tasksRouter.GET("/:id", h.HandleGetTask)
	tasksRouter.PUT("/:id", h.HandleUpdateTask)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)
	tasksRouter.POST("/:id/upload", h.HandleUploadTaskImage)
}

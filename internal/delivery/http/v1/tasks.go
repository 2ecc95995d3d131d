package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adanyl0v/go-task-api/internal/models"
	"github.com/adanyl0v/go-task-api/internal/services"
	"github.com/adanyl0v/go-task-api/internal/storage"
)

type getTaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	User        string    `json:"user"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:          task.ID.Hex(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		User:        task.UserID.Hex(),
		Image:       task.Image,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

type paginationResponse struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
	Limit       int64 `json:"limit"`
}

type getTasksResponse struct {
	Tasks      []getTaskResponse  `json:"tasks"`
	Pagination paginationResponse `json:"pagination"`
}

// taskRequest is shared by create and update.
type taskRequest struct {
	Title       string             `json:"title" binding:"required,notblank,trimmax=255"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status" binding:"omitempty,taskstatus"`
}

type getTasksQuery struct {
	Search string `form:"search"`
	Page   int64  `form:"page" binding:"omitempty,min=1"`
	Limit  int64  `form:"limit" binding:"omitempty,min=1,max=100"`
	Sort   string `form:"sort"`
	Status string `form:"status" binding:"omitempty,taskstatus"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		h.abort(c, newBadRequestError(validationMessageID(err, msgInvalidRequestBody)))
		return
	}

	params := services.CreateTaskParams{
		UserID: userID,
		Title:  req.Title,
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.Status != nil {
		params.Status = *req.Status
	}

	task, err := h.tasks.CreateTask(c, params)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	var query getTasksQuery
	err := c.ShouldBindQuery(&query)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind query")
		h.abort(c, newBadRequestError(validationMessageID(err, msgInvalidQuery)))
		return
	}

	page, err := h.tasks.ListTasks(c, services.ListTasksParams{
		UserID: userID,
		Search: query.Search,
		Status: models.TaskStatus(query.Status),
		Sort:   query.Sort,
		Page:   query.Page,
		Limit:  query.Limit,
	})
	if err != nil {
		h.abortTaskError(c, err)
		return
	}
	h.logger.Debug().
		Int("count", len(page.Tasks)).
		Int64("total", page.TotalItems).
		Msg("fetched tasks")

	response := getTasksResponse{
		Tasks: make([]getTaskResponse, len(page.Tasks)),
		Pagination: paginationResponse{
			TotalItems:  page.TotalItems,
			TotalPages:  page.TotalPages,
			CurrentPage: page.Page,
			Limit:       page.Limit,
		},
	}
	for i, task := range page.Tasks {
		response.Tasks[i] = newGetTaskResponse(task)
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, userID, taskID)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		h.abort(c, newBadRequestError(validationMessageID(err, msgInvalidRequestBody)))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:          taskID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.DeleteTask(c, userID, taskID)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	if task.Image != "" {
		h.removeStoredImage(c, task.Image)
	}

	c.JSON(http.StatusOK, gin.H{"message": h.localize(c, msgTaskDeleted)})
}

func (h *handlerImpl) taskIDParam(c *gin.Context) (string, bool) {
	taskID := c.Param("id")
	if !primitive.IsValidObjectID(taskID) {
		h.logger.Debug().
			Str("task_id", taskID).
			Msg("invalid task id")
		h.abort(c, newBadRequestError(msgInvalidTaskID))
		return "", false
	}
	return taskID, true
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTaskID):
		h.abort(c, newBadRequestError(msgInvalidTaskID))
	case errors.Is(err, services.ErrTaskNotFound):
		h.abort(c, newNotFoundError(msgTaskNotFound))
	case errors.Is(err, services.ErrInvalidTaskStatus):
		h.abort(c, newBadRequestError(msgInvalidStatus))
	case errors.Is(err, services.ErrInvalidSortField):
		h.abort(c, newBadRequestError(msgInvalidSort))
	case errors.Is(err, services.ErrInvalidPage):
		h.abort(c, newBadRequestError(msgPageOutOfRange))
	default:
		h.logger.Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("task operation failed")
		h.abortInternal(c, err)
	}
}

// removeStoredImage deletes a previously stored image. Failures are
// logged and otherwise ignored.
func (h *handlerImpl) removeStoredImage(c *gin.Context, publicPath string) {
	name, ok := storage.NameFromPublicPath(publicPath)
	if !ok {
		h.logger.Warn().
			Str("image", publicPath).
			Msg("skip removing image with foreign path")
		return
	}

	err := h.storage.Delete(c, name)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("image", publicPath).
			Msg("failed to remove stored image")
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adanyl0v/go-task-api/internal/models"
)

const TasksCollection = "tasks"

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
	MaxLimit     int64 = 100
	DefaultSort        = "-createdAt"
)

// sortableTaskFields maps the public sort keys to document fields.
var sortableTaskFields = map[string]string{
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
	"title":     "title",
	"status":    "status",
}

type taskServiceImpl struct {
	logger zerolog.Logger
	tasks  *mongo.Collection
}

func NewTaskService(
	logger zerolog.Logger,
	db *mongo.Database,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		tasks:  db.Collection(TasksCollection),
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	userID, err := primitive.ObjectIDFromHex(params.UserID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	status := params.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.IsValid() {
		return nil, ErrInvalidTaskStatus
	}

	now := timestamp()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.tasks.InsertOne(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to insert task")
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	s.logger.Info().
		Str("task_id", task.ID.Hex()).
		Str("user_id", params.UserID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, params ListTasksParams) (*TaskPage, error) {
	userID, err := primitive.ObjectIDFromHex(params.UserID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	filter, err := buildTaskFilter(userID, params.Search, params.Status)
	if err != nil {
		return nil, err
	}

	sort, err := parseTaskSort(params.Sort)
	if err != nil {
		return nil, err
	}

	page, limit := normalizePagination(params.Page, params.Limit)
	skip, err := pageOffset(page, limit)
	if err != nil {
		return nil, err
	}

	total, err := s.tasks.CountDocuments(ctx, filter)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to count tasks")
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to find tasks")
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	tasks := make([]*models.Task, 0, limit)
	err = cursor.All(ctx, &tasks)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to decode tasks")
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Int64("total", total).
		Str("user_id", params.UserID).
		Msg("selected tasks by user id")

	return &TaskPage{
		Tasks:      tasks,
		TotalItems: total,
		TotalPages: totalPages(total, limit),
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	filter, err := taskOwnerFilter(userID, taskID)
	if err != nil {
		return nil, err
	}

	task := new(models.Task)
	err = s.tasks.FindOne(ctx, filter).Decode(task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Debug().
				Str("task_id", taskID).
				Str("user_id", userID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to find task")
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	filter, err := taskOwnerFilter(params.UserID, params.ID)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"title":     strings.TrimSpace(params.Title),
		"updatedAt": timestamp(),
	}
	if params.Description != nil {
		set["description"] = strings.TrimSpace(*params.Description)
	}
	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, ErrInvalidTaskStatus
		}
		set["status"] = *params.Status
	}

	task := new(models.Task)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.tasks.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Debug().
				Str("task_id", params.ID).
				Str("user_id", params.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", params.ID).
			Msg("failed to update task")
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info().
		Str("task_id", params.ID).
		Str("user_id", params.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	filter, err := taskOwnerFilter(userID, taskID)
	if err != nil {
		return nil, err
	}

	task := new(models.Task)
	err = s.tasks.FindOneAndDelete(ctx, filter).Decode(task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Debug().
				Str("task_id", taskID).
				Str("user_id", userID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return task, nil
}

func (s *taskServiceImpl) SetTaskImage(ctx context.Context, params SetTaskImageParams) (*models.Task, string, error) {
	filter, err := taskOwnerFilter(params.UserID, params.ID)
	if err != nil {
		return nil, "", err
	}

	now := timestamp()
	update := bson.M{"$set": bson.M{
		"image":     params.ImagePath,
		"updatedAt": now,
	}}

	task := new(models.Task)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	err = s.tasks.FindOneAndUpdate(ctx, filter, update, opts).Decode(task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", params.ID).
			Msg("failed to set task image")
		return nil, "", fmt.Errorf("failed to set task image: %w", err)
	}

	previous := task.Image
	task.Image = params.ImagePath
	task.UpdatedAt = now

	s.logger.Info().
		Str("task_id", params.ID).
		Str("image", params.ImagePath).
		Msg("set task image")
	return task, previous, nil
}

func taskOwnerFilter(userID, taskID string) (bson.M, error) {
	taskOID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, ErrInvalidTaskID
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	return bson.M{"_id": taskOID, "user": userOID}, nil
}

func buildTaskFilter(userID primitive.ObjectID, search string, status models.TaskStatus) (bson.M, error) {
	filter := bson.M{"user": userID}

	if status != "" {
		if !status.IsValid() {
			return nil, ErrInvalidTaskStatus
		}
		filter["status"] = status
	}

	search = strings.TrimSpace(search)
	if search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	return filter, nil
}

// parseTaskSort turns "field" or "-field" into a sort document. The
// document id is appended as a tie-breaker so pages don't overlap.
func parseTaskSort(sort string) (bson.D, error) {
	sort = strings.TrimSpace(sort)
	if sort == "" {
		sort = DefaultSort
	}

	direction := 1
	if strings.HasPrefix(sort, "-") {
		direction = -1
		sort = sort[1:]
	}

	field, ok := sortableTaskFields[sort]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortField, sort)
	}
	return bson.D{
		{Key: field, Value: direction},
		{Key: "_id", Value: direction},
	}, nil
}

func normalizePagination(page, limit int64) (int64, int64) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// pageOffset returns the number of documents before page. Pages whose
// offset doesn't fit in int64 are rejected with ErrInvalidPage.
func pageOffset(page, limit int64) (int64, error) {
	if page-1 > math.MaxInt64/limit {
		return 0, ErrInvalidPage
	}
	return (page - 1) * limit, nil
}

func totalPages(totalItems, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (totalItems + limit - 1) / limit
}

// timestamp is truncated to the precision MongoDB stores dates with.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

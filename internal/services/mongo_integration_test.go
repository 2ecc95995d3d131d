//go:build integration

package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adanyl0v/go-task-api/internal/models"
)

type MongoSuite struct {
	suite.Suite

	client *mongo.Client
	db     *mongo.Database
	tasks  TaskService
	auth   AuthService
}

func TestMongoSuite(t *testing.T) {
	suite.Run(t, new(MongoSuite))
}

func (s *MongoSuite) SetupSuite() {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		s.T().Skip("MONGO_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(3*time.Second))
	s.Require().NoError(err)
	if err = client.Ping(ctx, nil); err != nil {
		s.T().Skipf("mongo is not reachable: %v", err)
	}

	s.client = client
	s.db = client.Database("taskapi_test_" + primitive.NewObjectID().Hex())
	s.Require().NoError(EnsureIndexes(ctx, s.db))

	mr := miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := NewSessionService(zerolog.Nop(), rdb)

	s.tasks = NewTaskService(zerolog.Nop(), s.db)
	s.auth = NewAuthService(zerolog.Nop(), s.db, sessions, "test", []byte("secret"), time.Minute, time.Hour)
}

func (s *MongoSuite) TearDownSuite() {
	if s.client == nil {
		return
	}
	ctx := context.Background()
	s.NoError(s.db.Drop(ctx))
	s.NoError(s.client.Disconnect(ctx))
}

func (s *MongoSuite) SetupTest() {
	_, err := s.db.Collection(TasksCollection).DeleteMany(context.Background(), bson.D{})
	s.Require().NoError(err)
}

func (s *MongoSuite) TestTasksAreScopedToOwner() {
	ctx := context.Background()
	alice := primitive.NewObjectID().Hex()
	bob := primitive.NewObjectID().Hex()

	task, err := s.tasks.CreateTask(ctx, CreateTaskParams{UserID: alice, Title: "  Buy milk  "})
	s.Require().NoError(err)
	s.Equal("Buy milk", task.Title)
	s.Equal(models.StatusPending, task.Status)

	page, err := s.tasks.ListTasks(ctx, ListTasksParams{UserID: bob})
	s.Require().NoError(err)
	s.Empty(page.Tasks)
	s.Zero(page.TotalItems)

	_, err = s.tasks.GetTask(ctx, bob, task.ID.Hex())
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.tasks.DeleteTask(ctx, bob, task.ID.Hex())
	s.ErrorIs(err, ErrTaskNotFound)

	got, err := s.tasks.GetTask(ctx, alice, task.ID.Hex())
	s.Require().NoError(err)
	s.Equal(task.ID, got.ID)
}

func (s *MongoSuite) TestListTasksFiltersAndPaginates() {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()

	for _, title := range []string{"Write report", "Read book", "Write tests", "Call mom", "Write docs"} {
		_, err := s.tasks.CreateTask(ctx, CreateTaskParams{UserID: user, Title: title})
		s.Require().NoError(err)
	}
	done, err := s.tasks.CreateTask(ctx, CreateTaskParams{UserID: user, Title: "write songs", Status: models.StatusCompleted})
	s.Require().NoError(err)

	page, err := s.tasks.ListTasks(ctx, ListTasksParams{UserID: user, Search: "write", Page: 2, Limit: 3, Sort: "title"})
	s.Require().NoError(err)
	s.EqualValues(4, page.TotalItems)
	s.EqualValues(2, page.TotalPages)
	s.EqualValues(2, page.Page)
	s.Require().Len(page.Tasks, 1)
	s.Equal("write songs", page.Tasks[0].Title)

	page, err = s.tasks.ListTasks(ctx, ListTasksParams{UserID: user, Status: models.StatusCompleted})
	s.Require().NoError(err)
	s.Require().Len(page.Tasks, 1)
	s.Equal(done.ID, page.Tasks[0].ID)
}

func (s *MongoSuite) TestUpdateAndImage() {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()

	task, err := s.tasks.CreateTask(ctx, CreateTaskParams{UserID: user, Title: "Draft", Description: "v1"})
	s.Require().NoError(err)

	status := models.StatusInProgress
	updated, err := s.tasks.UpdateTask(ctx, UpdateTaskParams{ID: task.ID.Hex(), UserID: user, Title: "Final", Status: &status})
	s.Require().NoError(err)
	s.Equal("Final", updated.Title)
	s.Equal("v1", updated.Description)
	s.Equal(models.StatusInProgress, updated.Status)
	s.False(updated.UpdatedAt.Before(updated.CreatedAt))

	_, previous, err := s.tasks.SetTaskImage(ctx, SetTaskImageParams{ID: task.ID.Hex(), UserID: user, ImagePath: "/uploads/a.png"})
	s.Require().NoError(err)
	s.Empty(previous)

	withImage, previous, err := s.tasks.SetTaskImage(ctx, SetTaskImageParams{ID: task.ID.Hex(), UserID: user, ImagePath: "/uploads/b.png"})
	s.Require().NoError(err)
	s.Equal("/uploads/a.png", previous)
	s.Equal("/uploads/b.png", withImage.Image)
}

func (s *MongoSuite) TestRegisterAndLogin() {
	ctx := context.Background()
	email := primitive.NewObjectID().Hex() + "@example.com"

	registered, err := s.auth.Register(ctx, LoginParams{Email: email, Password: "secret123", Fingerprint: "fp"})
	s.Require().NoError(err)
	s.NotEmpty(registered.AccessToken)

	_, err = s.auth.Register(ctx, LoginParams{Email: email, Password: "other-pass", Fingerprint: "fp"})
	s.ErrorIs(err, ErrUserAlreadyExists)

	loggedIn, err := s.auth.Login(ctx, LoginParams{Email: " " + email + " ", Password: "secret123", Fingerprint: "fp"})
	s.Require().NoError(err)
	s.Equal(registered.UserID, loggedIn.UserID)

	_, err = s.auth.Login(ctx, LoginParams{Email: email, Password: "wrong-pass", Fingerprint: "fp"})
	s.ErrorIs(err, ErrUserPasswordMismatch)

	_, err = s.auth.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "secret123", Fingerprint: "fp"})
	s.ErrorIs(err, ErrUserNotFound)
}

package app

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/adanyl0v/go-task-api/internal/config"
	"github.com/adanyl0v/go-task-api/internal/services"
)

var (
	globalMongoClient   *mongo.Client
	globalMongoDatabase *mongo.Database
)

func MustConnectMongo() {
	cfg := config.Global().Mongo

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	var err error
	globalMongoClient, err = mongo.Connect(context.Background(), clientOpts)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to mongo")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = globalMongoClient.Ping(ctx, readpref.Primary())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping mongo")
		panic(err)
	}

	globalMongoDatabase = globalMongoClient.Database(cfg.Database)

	err = services.EnsureIndexes(ctx, globalMongoDatabase)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ensure mongo indexes")
		panic(err)
	}
	globalLogger.Info().
		Str("database", cfg.Database).
		Msg("connected to mongo")
}

func DisconnectMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), config.Global().Mongo.PingTimeout)
	defer cancel()

	err := globalMongoClient.Disconnect(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to disconnect from mongo")
		return
	}
	globalLogger.Info().Msg("disconnected from mongo")
}

func pingMongo(ctx context.Context) error {
	return globalMongoClient.Ping(ctx, readpref.Primary())
}

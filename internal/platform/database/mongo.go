package database

import (
	"context"
	"fmt"
	"time"

	"taskboard/internal/platform/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo connects to MONGODB_URL and returns the configured database.
// The caller owns the client and must Disconnect it.
func ConnectMongo(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*mongo.Client, *mongo.Database, error) {
	if cfg.MongoURL == "" {
		return nil, nil, fmt.Errorf("no MongoDB connection string provided")
	}

	opts := options.Client().
		ApplyURI(cfg.MongoURL).
		SetServerSelectionTimeout(5 * time.Second).
		SetSocketTimeout(45 * time.Second).
		SetRetryWrites(true)

	var client *mongo.Client
	err := connectWithRetry(ctx, log, "mongodb", cfg.DBConnectRetries, cfg.DBConnectRetryDelay, func(ctx context.Context) error {
		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.WithField("database", cfg.MongoDatabase).Info("MongoDB connected successfully")
	return client, client.Database(cfg.MongoDatabase), nil
}

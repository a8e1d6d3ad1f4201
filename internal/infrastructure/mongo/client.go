package mongo

import (
	"context"

	mongolib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
)

// Connect dials MongoDB, verifies the primary is reachable and returns the
// client together with the tasks collection.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*mongolib.Client, *mongolib.Collection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongolib.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	logger.Info("connected to mongodb",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))
	return client, client.Database(cfg.Database).Collection(cfg.Collection), nil
}

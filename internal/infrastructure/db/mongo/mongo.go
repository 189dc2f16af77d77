// Package mongo holds the aggregator's durable state: the order registry and
// the raw carrier payload store.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	// defaultTimeout bounds a single repository operation.
	defaultTimeout = 10 * time.Second
)

// Config holds the connection settings for the tracking database.
type Config struct {
	URI      string
	Database string
	// Timeout bounds the initial connect and ping. Zero means 10s.
	Timeout time.Duration
}

// Connect dials MongoDB, confirms the primary answers a ping, and returns the
// client together with the tracking database handle.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = connectTimeout
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(dialCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

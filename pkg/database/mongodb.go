// Package database wraps the MongoDB client the repository layer runs
// against, grounded on the teacher's pkg/database/mongodb.go (connect
// with pooling options, ping to verify, create indexes up front,
// context-scoped Disconnect).
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fintual/rebalancer/internal/config"
)

// MongoDB wraps a connected client and its target database.
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoDB connects to MongoDB per cfg, verifies reachability with a
// ping, and creates the engine's indexes before returning.
func NewMongoDB(cfg config.DatabaseConfig) (*MongoDB, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)

	if cfg.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(uint64(cfg.MaxPoolSize))
	}
	if cfg.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(uint64(cfg.MinPoolSize))
	}
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second)
	}
	if cfg.SocketTimeout > 0 {
		clientOpts.SetSocketTimeout(time.Duration(cfg.SocketTimeout) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("database: connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("database: ping mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	if err := createIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("database: create indexes: %w", err)
	}

	return &MongoDB{client: client, database: db}, nil
}

// Database returns the underlying *mongo.Database.
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// Collection returns a named collection on the underlying database.
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Disconnect closes the client connection.
func (m *MongoDB) Disconnect() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// IsHealthy pings the database, swallowing the error into a bool for
// use from a health endpoint.
func (m *MongoDB) IsHealthy(ctx context.Context) bool {
	return m.client.Ping(ctx, readpref.Primary()) == nil
}

// createIndexes sets up the goal and rebalance-history collections'
// indexes: goals are looked up by user, history is looked up by goal
// and pruned after a year.
func createIndexes(ctx context.Context, db *mongo.Database) error {
	goals := db.Collection("goals")
	goalIndexes := []mongo.IndexModel{
		{Keys: map[string]interface{}{"user_id": 1}},
		{Keys: map[string]interface{}{"updated_at": -1}},
	}
	if _, err := goals.Indexes().CreateMany(ctx, goalIndexes); err != nil {
		return fmt.Errorf("create goal indexes: %w", err)
	}

	history := db.Collection("rebalance_history")
	historyIndexes := []mongo.IndexModel{
		{Keys: map[string]interface{}{"goal_id": 1, "created_at": -1}},
		{
			Keys:    map[string]interface{}{"created_at": -1},
			Options: options.Index().SetExpireAfterSeconds(31536000), // 1 year
		},
	}
	if _, err := history.Indexes().CreateMany(ctx, historyIndexes); err != nil {
		return fmt.Errorf("create rebalance history indexes: %w", err)
	}

	return nil
}

// Package mongo implements internal/repository's interfaces against
// MongoDB, grounded on the teacher's internal/repositories/mongo
// package (collection-per-aggregate, context-scoped calls,
// mongo.ErrNoDocuments translated to a package sentinel).
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fintual/rebalancer/internal/repository"
)

// GoalRepository implements repository.GoalRepository.
type GoalRepository struct {
	collection *mongo.Collection
}

// NewGoalRepository builds a MongoDB-backed GoalRepository.
func NewGoalRepository(db *mongo.Database) *GoalRepository {
	return &GoalRepository{collection: db.Collection("goals")}
}

func (r *GoalRepository) Create(ctx context.Context, goal *repository.GoalDocument) error {
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, goal)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("repository: goal %s already exists", goal.ID)
		}
		return fmt.Errorf("repository: create goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) GetByID(ctx context.Context, id string) (*repository.GoalDocument, error) {
	var doc repository.GoalDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repository: get goal %s: %w", id, err)
	}
	return &doc, nil
}

func (r *GoalRepository) Update(ctx context.Context, goal *repository.GoalDocument) error {
	goal.UpdatedAt = time.Now()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": goal.ID}, goal)
	if err != nil {
		return fmt.Errorf("repository: update goal %s: %w", goal.ID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *GoalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("repository: delete goal %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]*repository.GoalDocument, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("repository: list goals for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var docs []*repository.GoalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repository: decode goals for user %s: %w", userID, err)
	}
	return docs, nil
}

// RebalanceHistoryRepository implements repository.RebalanceHistoryRepository.
type RebalanceHistoryRepository struct {
	collection *mongo.Collection
}

// NewRebalanceHistoryRepository builds a MongoDB-backed history repository.
func NewRebalanceHistoryRepository(db *mongo.Database) *RebalanceHistoryRepository {
	return &RebalanceHistoryRepository{collection: db.Collection("rebalance_history")}
}

func (r *RebalanceHistoryRepository) Record(ctx context.Context, entry *repository.RebalanceHistoryEntry) error {
	entry.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("repository: record rebalance history for goal %s: %w", entry.GoalID, err)
	}
	return nil
}

func (r *RebalanceHistoryRepository) ListByGoal(ctx context.Context, goalID string, limit int) ([]*repository.RebalanceHistoryEntry, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"goal_id": goalID}, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: list rebalance history for goal %s: %w", goalID, err)
	}
	defer cursor.Close(ctx)

	var entries []*repository.RebalanceHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("repository: decode rebalance history for goal %s: %w", goalID, err)
	}
	return entries, nil
}

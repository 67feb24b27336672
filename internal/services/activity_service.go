package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agriconnect/backend/internal/db"
	"agriconnect/backend/internal/models"
)

// IActivityService defines the interface for audit-log operations.
type IActivityService interface {
	// Record writes an audit entry. Best-effort: failures are logged and
	// swallowed so they never fail the business operation being audited.
	Record(ctx context.Context, actorID primitive.ObjectID, action, resourceType string, resourceID primitive.ObjectID, metadata map[string]string, sourceIP string)
	FindByActor(ctx context.Context, actorID primitive.ObjectID, limit int) ([]models.Activity, error)
}

const activitiesCollection = "activities"

type activityService struct {
	db *mongo.Database
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *mongo.Database) IActivityService {
	return &activityService{db: db}
}

func (s *activityService) Record(ctx context.Context, actorID primitive.ObjectID, action, resourceType string, resourceID primitive.ObjectID, metadata map[string]string, sourceIP string) {
	collection := s.db.Collection(activitiesCollection)

	entry := models.Activity{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		SourceIP:     sourceIP,
		CreatedAt:    time.Now().UTC(),
	}

	operation := func() error {
		_, insertErr := collection.InsertOne(ctx, entry)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		log.Printf("WARN: failed to record activity %s on %s %s for actor %s: %v",
			action, resourceType, resourceID.Hex(), actorID.Hex(), err)
	}
}

// FindByActor returns the most recent audit entries for one actor.
func (s *activityService) FindByActor(ctx context.Context, actorID primitive.ObjectID, limit int) ([]models.Activity, error) {
	collection := s.db.Collection(activitiesCollection)
	filter := bson.M{"actor_id": actorID}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.Activity
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

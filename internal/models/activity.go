package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is an audit-log entry. Written best-effort; readers use it for the
// per-user activity feed and for tracing lifecycle transitions.
type Activity struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ActorID      primitive.ObjectID `bson:"actor_id" json:"actor_id"`
	Action       string             `bson:"action" json:"action"`               // e.g., "request_created", "request_expired"
	ResourceType string             `bson:"resource_type" json:"resource_type"` // e.g., "contact_request", "product"
	ResourceID   primitive.ObjectID `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Metadata     map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	SourceIP     string             `bson:"source_ip,omitempty" json:"source_ip,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

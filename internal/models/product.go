package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a farm product offered on the marketplace.
type Product struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	FarmerID             primitive.ObjectID `bson:"farmer_id" json:"farmer_id"`
	Name                 string             `bson:"name" json:"name"`
	Description          string             `bson:"description" json:"description"`
	Category             string             `bson:"category" json:"category"` // e.g., "vegetables", "dairy", "grain"
	Unit                 string             `bson:"unit" json:"unit"`         // e.g., "kg", "litre", "dozen"
	PricePerUnit         float64            `bson:"price_per_unit" json:"price_per_unit"`
	MinimumOrderQuantity float64            `bson:"minimum_order_quantity" json:"minimum_order_quantity"`
	AvailableQuantity    float64            `bson:"available_quantity" json:"available_quantity"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	Deleted              bool               `bson:"deleted" json:"-"` // Soft delete flag
}

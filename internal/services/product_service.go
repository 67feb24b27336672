package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agriconnect/backend/internal/models"
)

// IProductService defines the interface for product catalogue operations.
type IProductService interface {
	CreateProduct(ctx context.Context, farmerID primitive.ObjectID, name, description, category, unit string, pricePerUnit, minimumOrderQuantity, availableQuantity float64) (*models.Product, error)
	FindProductByID(ctx context.Context, productID primitive.ObjectID) (*models.Product, error)
	SearchProducts(ctx context.Context, category, query string, limit, offset int) ([]models.Product, error)
	UpdateProduct(ctx context.Context, productID, farmerID primitive.ObjectID, updates map[string]interface{}) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID, farmerID primitive.ObjectID) error
}

const productsCollection = "products"

type productService struct {
	db *mongo.Database
}

// NewProductService creates a new ProductService.
func NewProductService(db *mongo.Database) IProductService {
	return &productService{db: db}
}

// CreateProduct creates a new product owned by the given farmer.
func (s *productService) CreateProduct(ctx context.Context, farmerID primitive.ObjectID, name, description, category, unit string, pricePerUnit, minimumOrderQuantity, availableQuantity float64) (*models.Product, error) {
	if pricePerUnit <= 0 || minimumOrderQuantity <= 0 || availableQuantity < 0 {
		return nil, fmt.Errorf("price and quantities must be positive")
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:                   primitive.NewObjectID(),
		FarmerID:             farmerID,
		Name:                 name,
		Description:          description,
		Category:             category,
		Unit:                 unit,
		PricePerUnit:         pricePerUnit,
		MinimumOrderQuantity: minimumOrderQuantity,
		AvailableQuantity:    availableQuantity,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	collection := s.db.Collection(productsCollection)
	if _, err := collection.InsertOne(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to insert product for farmer %s: %w", farmerID.Hex(), err)
	}

	return product, nil
}

// FindProductByID finds a non-deleted product by its ID.
func (s *productService) FindProductByID(ctx context.Context, productID primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	collection := s.db.Collection(productsCollection)
	filter := bson.M{"_id": productID, "deleted": false}

	err := collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding product %s: %w", productID.Hex(), err)
	}
	return &product, nil
}

// SearchProducts returns visible products matching a category and/or text query.
func (s *productService) SearchProducts(ctx context.Context, category, query string, limit, offset int) ([]models.Product, error) {
	collection := s.db.Collection(productsCollection)

	filter := bson.M{"deleted": false}
	if category != "" {
		filter["category"] = category
	}
	if query != "" {
		filter["name"] = bson.M{"$regex": query, "$options": "i"}
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute product search: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.Product
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode product search results: %w", err)
	}
	return results, nil
}

// UpdateProduct updates mutable fields of a product owned by the given farmer.
// `updates` map should contain BSON field names and new values.
func (s *productService) UpdateProduct(ctx context.Context, productID, farmerID primitive.ObjectID, updates map[string]interface{}) (*models.Product, error) {
	collection := s.db.Collection(productsCollection)

	// Ownership and soft-delete state are never updatable
	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "description", "category", "unit", "price_per_unit", "minimum_order_quantity", "available_quantity":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via UpdateProduct", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}
	allowedUpdates["updated_at"] = time.Now().UTC()

	filter := bson.M{
		"_id":       productID,
		"farmer_id": farmerID,
		"deleted":   false,
	}
	update := bson.M{"$set": allowedUpdates}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Could be not found, wrong farmer or deleted
			var product models.Product
			checkErr := collection.FindOne(ctx, bson.M{"_id": productID, "deleted": false}).Decode(&product)
			if errors.Is(checkErr, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to update product %s: %w", productID.Hex(), err)
	}

	return &updated, nil
}

// DeleteProduct performs a soft delete by setting the deleted flag to true.
func (s *productService) DeleteProduct(ctx context.Context, productID, farmerID primitive.ObjectID) error {
	collection := s.db.Collection(productsCollection)
	now := time.Now().UTC()

	filter := bson.M{"_id": productID, "farmer_id": farmerID, "deleted": false}
	update := bson.M{"$set": bson.M{"deleted": true, "deleted_at": now, "updated_at": now}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error deleting product %s: %w", productID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		var product models.Product
		checkErr := collection.FindOne(ctx, bson.M{"_id": productID, "deleted": false}).Decode(&product)
		if errors.Is(checkErr, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return ErrForbidden
	}
	return nil
}

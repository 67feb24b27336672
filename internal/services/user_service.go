package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"agriconnect/backend/internal/auth"
	"agriconnect/backend/internal/db"
	"agriconnect/backend/internal/models"
)

// IUserService defines the interface for user account operations.
type IUserService interface {
	Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	SuspendUser(ctx context.Context, userID primitive.ObjectID) error
	UnsuspendUser(ctx context.Context, userID primitive.ObjectID) error
}

const usersCollection = "users"

type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database) IUserService {
	return &userService{db: db}
}

// Register creates a new user account with a bcrypt password hash.
func (s *userService) Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	collection := s.db.Collection(usersCollection)
	_, err = collection.InsertOne(ctx, user)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// Authenticate verifies credentials and returns the matching user.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email)), "deleted": false}

	err := collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Run the hash comparison anyway so response timing does not
			// reveal whether the email exists.
			auth.CheckPasswordHash(password, "$2a$10$000000000000000000000u1t1sJ2Y5nJ8fGkQb8P1x6o3S1nS9uXK")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if user.Suspended {
		return nil, ErrUserSuspended
	}

	return &user, nil
}

// FindUserByID finds a non-deleted user by ID.
func (s *userService) FindUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)
	filter := bson.M{"_id": userID, "deleted": false}

	err := collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user %s: %w", userID.Hex(), err)
	}
	return &user, nil
}

// SuspendUser marks a user account as suspended.
func (s *userService) SuspendUser(ctx context.Context, userID primitive.ObjectID) error {
	return s.setSuspended(ctx, userID, true)
}

// UnsuspendUser lifts a suspension.
func (s *userService) UnsuspendUser(ctx context.Context, userID primitive.ObjectID) error {
	return s.setSuspended(ctx, userID, false)
}

func (s *userService) setSuspended(ctx context.Context, userID primitive.ObjectID, suspended bool) error {
	collection := s.db.Collection(usersCollection)
	filter := bson.M{"_id": userID, "deleted": false, "suspended": !suspended}
	update := bson.M{"$set": bson.M{"suspended": suspended, "updated_at": time.Now().UTC()}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error updating suspension for user %s: %w", userID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		// Either the user does not exist or is already in the desired state
		var user models.User
		checkErr := collection.FindOne(ctx, bson.M{"_id": userID, "deleted": false}).Decode(&user)
		if errors.Is(checkErr, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("user %s is already %s", userID.Hex(), map[bool]string{true: "suspended", false: "active"}[suspended])
	}
	return nil
}

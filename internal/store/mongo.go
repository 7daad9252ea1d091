package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/invision-app/backend/internal/models"
)

// MongoStore handles user persistence in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("users")}
}

// FindByEmail returns the user with the given email. A missing user is
// reported as mongo.ErrNoDocuments; any other error means the store itself
// failed, and callers must treat the two differently.
func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Insert stores a new user and returns the assigned id.
func (s *MongoStore) Insert(ctx context.Context, user *models.User) (string, error) {
	res, err := s.col.InsertOne(ctx, user)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

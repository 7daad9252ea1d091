package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is a registered account stored in the MongoDB users collection.
// Password holds the bcrypt hash, never the plaintext.
type User struct {
	ID       primitive.ObjectID `json:"id"       bson:"_id,omitempty"`
	Username string             `json:"username" bson:"username"`
	Email    string             `json:"email"    bson:"email"`
	Password string             `json:"-"        bson:"password"`
}

// RegisterRequest is the JSON body for POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AdminLogin is an append-only audit record of an administrator login attempt.
type AdminLogin struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time     `bson:"timestamp"`
	UserID    string        `bson:"userId"`
	Success   bool          `bson:"success"`
	IPAddress string        `bson:"ipAddress"`
}

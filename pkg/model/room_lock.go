package model

import "time"

// RoomLock is an advisory lock serializing occupancy mutations per room.
// Confirm and assign both take it before their overlap check so two
// concurrent winners cannot both succeed. Acquired by inserting a document
// with the room-derived _id; a duplicate key error means somebody else
// holds the lock. A TTL index on expires_at reaps abandoned locks.
type RoomLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

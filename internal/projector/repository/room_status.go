package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"stayd/pkg/config"
	"stayd/pkg/model"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomStatusRepository is the projector's write path: it owns the
// materialized status column on Rooms and nothing else.
type RoomStatusRepository interface {
	FindRoom(ctx context.Context, id string) (*model.Room, error)
	UpdateRoomStatus(ctx context.Context, id string, status model.RoomStatus) error
}

type mongoRoomStatusRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomStatusRepository(cfg *config.Config) RoomStatusRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoRoomStatusRepository{
		cfg:        cfg,
		collection: db.Collection("Rooms"),
	}
}

func (r *mongoRoomStatusRepository) FindRoom(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid room ID %s: %w", id, err)
	}

	var room model.Room
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	return &room, nil
}

func (r *mongoRoomStatusRepository) UpdateRoomStatus(ctx context.Context, id string, status model.RoomStatus) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid room ID %s: %w", id, err)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrRoomNotFound
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "stayd/internal/bookings/errors"
	"stayd/pkg/config"
	"stayd/pkg/model"
)

// RoomReader gives the booking service read access to the room catalog
// for price and maintenance checks. Writes stay with the catalog service.
type RoomReader interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
}

type mongoRoomReader struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomReader(cfg *config.Config) RoomReader {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoRoomReader{
		cfg:        cfg,
		collection: db.Collection("Rooms"),
	}
}

func (r *mongoRoomReader) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if _, ok := ctx.(mongo.SessionContext); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var room model.Room
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	return &room, nil
}

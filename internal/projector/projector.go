// Package projector materializes the derived room status into the Rooms
// collection. It consumes booking status events and recomputes the status
// from the full occupancy set, so replays and out-of-order deliveries
// converge on the same answer.
package projector

import (
	"context"
	"errors"
	"fmt"

	"stayd/internal/projector/repository"
	"stayd/pkg/config"
	"stayd/pkg/kafka"
	"stayd/pkg/model"
	"stayd/pkg/occupancy"
)

// BookingReader is the slice of the bookings store the projector reads.
type BookingReader interface {
	FindActiveByRoom(ctx context.Context, roomID string) ([]*model.Booking, error)
}

// RoomEvent is the subset of the booking status payload the projector
// cares about.
type RoomEvent struct {
	RoomID string `json:"room_id"`
}

type Projector struct {
	rooms    repository.RoomStatusRepository
	bookings BookingReader
	cfg      *config.Config
}

func New(rooms repository.RoomStatusRepository, bookings BookingReader, cfg *config.Config) *Projector {
	return &Projector{
		rooms:    rooms,
		bookings: bookings,
		cfg:      cfg,
	}
}

// HandleMessage recomputes and stores one room's status. A missing room
// is not an error; the event may outlive a deleted room.
func (p *Projector) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event RoomEvent
	if err := msg.DecodeValue(&event); err != nil {
		p.cfg.Log.Error("Failed to decode booking status event",
			"event_id", msg.GetEventID(),
			"error", err,
		)
		// Undecodable payloads will never succeed; let the DLQ have them.
		return fmt.Errorf("failed to decode event %s: %w", msg.GetEventID(), err)
	}
	if event.RoomID == "" {
		return fmt.Errorf("event %s carries no room_id", msg.GetEventID())
	}

	status, err := p.Recompute(ctx, event.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			p.cfg.Log.Warn("Room gone, skipping projection", "room_id", event.RoomID)
			return nil
		}
		return err
	}

	p.cfg.Log.Info("Room status projected",
		"room_id", event.RoomID,
		"status", status,
		"event_id", msg.GetEventID(),
	)
	return nil
}

// Recompute derives the room's status from its maintenance flag and live
// occupancy, then persists it.
func (p *Projector) Recompute(ctx context.Context, roomID string) (model.RoomStatus, error) {
	room, err := p.rooms.FindRoom(ctx, roomID)
	if err != nil {
		return "", err
	}

	occupants, err := p.bookings.FindActiveByRoom(ctx, roomID)
	if err != nil {
		return "", fmt.Errorf("failed to load occupants for room %s: %w", roomID, err)
	}

	status := occupancy.ResolveRoom(room, occupants, model.Today())
	if err := p.rooms.UpdateRoomStatus(ctx, roomID, status); err != nil {
		return "", err
	}

	return status, nil
}

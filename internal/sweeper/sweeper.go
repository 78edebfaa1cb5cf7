// Package sweeper closes out confirmed bookings whose stay has ended.
// It drives the bookings API rather than the database so every completion
// goes through the same state machine, locks, and events as a manual one.
package sweeper

import (
	"fmt"

	"stayd/pkg/client"
	"stayd/pkg/logger"
	"stayd/pkg/model"
)

// BookingsAPI is the slice of the bookings client the sweeper uses.
type BookingsAPI interface {
	SearchEndedConfirmed(endBefore string, limit int, offset int64) (*client.Response, error)
	Complete(id string) (*client.Response, error)
	DecodeBookings(resp *client.Response) ([]*model.Booking, *client.Metadata, error)
}

// Result summarizes one sweep run.
type Result struct {
	Scanned   int
	Completed int
	Failed    int
}

type Sweeper struct {
	api       BookingsAPI
	log       *logger.Logger
	batchSize int
}

func New(api BookingsAPI, log *logger.Logger, batchSize int) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		api:       api,
		log:       log,
		batchSize: batchSize,
	}
}

// Sweep completes every confirmed booking that ended strictly before
// asOf. Individual failures are logged and counted, not fatal; the next
// run picks up whatever was left behind.
func (s *Sweeper) Sweep(asOf model.Date) (*Result, error) {
	result := &Result{}
	endBefore := asOf.String()

	for {
		resp, err := s.api.SearchEndedConfirmed(endBefore, s.batchSize, 0)
		if err != nil {
			return result, fmt.Errorf("failed to search ended bookings: %w", err)
		}

		bookings, _, err := s.api.DecodeBookings(resp)
		if err != nil {
			return result, fmt.Errorf("failed to decode ended bookings: %w", err)
		}
		if len(bookings) == 0 {
			break
		}

		completed := 0
		for _, booking := range bookings {
			result.Scanned++
			if _, err := s.api.Complete(booking.ID); err != nil {
				result.Failed++
				s.log.Error("Failed to complete booking",
					"booking_id", booking.ID,
					"room_id", booking.RoomID,
					"error", err,
				)
				continue
			}
			completed++
			result.Completed++
			s.log.Info("Booking swept to completed",
				"booking_id", booking.ID,
				"room_id", booking.RoomID,
				"end_date", booking.EndDate,
			)
		}

		// Every booking in the batch failed; bail rather than spin on
		// the same page forever.
		if completed == 0 {
			break
		}
	}

	s.log.Info("Sweep finished",
		"scanned", result.Scanned,
		"completed", result.Completed,
		"failed", result.Failed,
	)
	return result, nil
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "stayd/internal/bookings/errors"
	"stayd/internal/bookings/repository"
	"stayd/internal/bookings/validator"
	"stayd/pkg/config"
	apperrors "stayd/pkg/errors"
	"stayd/pkg/events"
	"stayd/pkg/kafka"
	"stayd/pkg/middleware"
	"stayd/pkg/model"
	"stayd/pkg/occupancy"
)

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookingService interface {
	Request(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Search(ctx context.Context, filter repository.SearchFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate, actor model.Actor) error
	Confirm(ctx context.Context, id string, actor model.Actor) error
	Cancel(ctx context.Context, id string, actor model.Actor) error
	Complete(ctx context.Context, id string, actor model.Actor) error
}

type bookingService struct {
	repo      repository.BookingRepository
	rooms     repository.RoomReader
	lockRepo  repository.RoomLockRepository
	validator *validator.BookingValidator
	producer  EventPublisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms repository.RoomReader,
	lockRepo repository.RoomLockRepository,
	validator *validator.BookingValidator,
	producer EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		rooms:     rooms,
		lockRepo:  lockRepo,
		validator: validator,
		producer:  producer,
		cfg:       cfg,
	}
}

// Request records a tenant's booking request. Confirmed occupants block
// the range outright; other pending requests do not, they race to the
// confirm step instead.
func (s *bookingService) Request(ctx context.Context, booking *model.Booking) error {
	booking.ID = ""
	booking.Status = model.BookingPending
	if booking.Source == "" {
		booking.Source = model.SourceRequest
	}

	room, err := s.findRoom(ctx, booking.RoomID)
	if err != nil {
		return err
	}

	if err := s.validate(booking, room); err != nil {
		return err
	}

	active, err := s.repo.FindActiveByRoom(ctx, booking.RoomID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	if blocking := occupancy.ConfirmedOverlap(active, booking.StartDate, booking.EndDate, ""); blocking != nil {
		return apperrors.RoomUnavailable(booking.RoomID, blocking.ID)
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.publishStatusChange(ctx, booking, "")

	s.cfg.Log.Info("Booking requested",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"tenant_id", booking.TenantID,
		"start_date", booking.StartDate,
		"end_date", booking.EndDate,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Search(ctx context.Context, filter repository.SearchFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountBySearch(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings by search", "room_id", filter.RoomID, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.Search(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search bookings", "room_id", filter.RoomID, "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to search bookings", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Update edits the staff-adjustable fields of an active booking. A
// confirmed booking's new range must clear the hard conflict check under
// the room lock, the same bar a fresh confirm faces. A pending booking's
// new range faces the same soft check as a fresh request.
func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can edit bookings")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsTerminal() {
		return apperrors.StateError("Cannot edit a booking in a terminal state", map[string]any{
			"booking_id": id,
			"status":     existing.Status,
		})
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeBookingUpdates(existing, updates)

	room, err := s.findRoom(ctx, merged.RoomID)
	if err != nil {
		return err
	}
	if err := s.validate(merged, room); err != nil {
		return err
	}

	if existing.Status == model.BookingConfirmed {
		return s.withRoomLock(ctx, merged.RoomID, func() error {
			return s.updateWithConflictCheck(ctx, id, merged)
		})
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		active, err := s.repo.FindActiveByRoom(sessCtx, merged.RoomID)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		if blocking := occupancy.ConfirmedOverlap(active, merged.StartDate, merged.EndDate, id); blocking != nil {
			return apperrors.RoomUnavailable(merged.RoomID, blocking.ID)
		}
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking updated", "id", id)
	return nil
}

func (s *bookingService) updateWithConflictCheck(ctx context.Context, id string, merged *model.Booking) error {
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		active, err := s.repo.FindActiveByRoom(sessCtx, merged.RoomID)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		if blocking := occupancy.ConfirmedOverlap(active, merged.StartDate, merged.EndDate, id); blocking != nil {
			return apperrors.RoomConflict(merged.RoomID, blocking.ID)
		}
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking updated", "id", id)
	return nil
}

// Confirm promotes a pending booking. This is the only place a request
// acquires the room, so the hard conflict check and the per-room lock
// both live here.
func (s *bookingService) Confirm(ctx context.Context, id string, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can confirm bookings")
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != model.BookingPending {
		return apperrors.StateError("Only pending bookings can be confirmed", map[string]any{
			"booking_id": id,
			"status":     booking.Status,
		})
	}

	err = s.withRoomLock(ctx, booking.RoomID, func() error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			active, err := s.repo.FindActiveByRoom(sessCtx, booking.RoomID)
			if err != nil {
				return apperrors.Internal("Failed to check existing bookings", err)
			}
			if blocking := occupancy.ConfirmedOverlap(active, booking.StartDate, booking.EndDate, id); blocking != nil {
				return apperrors.RoomConflict(booking.RoomID, blocking.ID)
			}

			booking.Status = model.BookingConfirmed
			if _, err := s.repo.Update(sessCtx, id, booking); err != nil {
				return apperrors.Internal("Failed to confirm booking", err)
			}
			return nil
		})
	})
	if err != nil {
		s.cfg.Log.Error("Failed to confirm booking", "id", id, "error", err)
		return err
	}

	s.publishStatusChange(ctx, booking, model.BookingPending)

	s.cfg.Log.Info("Booking confirmed", "id", id, "room_id", booking.RoomID)
	return nil
}

// Cancel moves a pending or confirmed booking to cancelled. Cancelling a
// confirmed booking frees the range again.
func (s *bookingService) Cancel(ctx context.Context, id string, actor model.Actor) error {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.MayCancel(booking) {
		return apperrors.Forbidden("Not allowed to cancel this booking")
	}
	if booking.IsTerminal() {
		return apperrors.StateError("Booking is already in a terminal state", map[string]any{
			"booking_id": id,
			"status":     booking.Status,
		})
	}

	oldStatus := booking.Status
	booking.Status = model.BookingCancelled

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, booking); err != nil {
			return apperrors.Internal("Failed to cancel booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return err
	}

	s.publishStatusChange(ctx, booking, oldStatus)

	s.cfg.Log.Info("Booking cancelled", "id", id, "previous_status", oldStatus)
	return nil
}

// Complete closes out a confirmed booking whose stay has ended.
func (s *bookingService) Complete(ctx context.Context, id string, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can complete bookings")
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != model.BookingConfirmed {
		return apperrors.StateError("Only confirmed bookings can be completed", map[string]any{
			"booking_id": id,
			"status":     booking.Status,
		})
	}

	booking.Status = model.BookingCompleted

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, booking); err != nil {
			return apperrors.Internal("Failed to complete booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to complete booking", "id", id, "error", err)
		return err
	}

	s.publishStatusChange(ctx, booking, model.BookingConfirmed)

	s.cfg.Log.Info("Booking completed", "id", id, "room_id", booking.RoomID)
	return nil
}

// --- Helpers ---

func (s *bookingService) findRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrRoomNotFound) {
			return nil, apperrors.NotFoundWithID("Room", roomID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	return room, nil
}

func (s *bookingService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.StartDate != nil {
		merged.StartDate = *updates.StartDate
	}
	if updates.EndDate != nil {
		merged.EndDate = *updates.EndDate
	}
	if updates.BillingCycle != "" {
		merged.BillingCycle = updates.BillingCycle
	}

	return &merged
}

func (s *bookingService) validate(booking *model.Booking, room *model.Room) error {
	if err := s.validator.Validate(booking, room); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// withRoomLock runs fn holding the room's advisory lock. Contention gets
// one retry after a short delay before the caller sees a conflict.
func (s *bookingService) withRoomLock(ctx context.Context, roomID string, fn func() error) error {
	lockID, err := s.acquireRoomLock(ctx, roomID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	return fn()
}

func (s *bookingService) acquireRoomLock(ctx context.Context, roomID string) (string, error) {
	lockID := "room_lock_" + roomID

	for attempt := 0; ; attempt++ {
		lock := &model.RoomLock{
			ID:        lockID,
			ExpiresAt: time.Now().Add(s.cfg.RoomLockTTL),
		}

		_, err := s.lockRepo.Create(ctx, lock)
		if err == nil {
			return lockID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Internal("Failed to acquire room lock", err)
		}
		if attempt >= 1 {
			return "", apperrors.RoomBusy(roomID)
		}

		select {
		case <-ctx.Done():
			return "", apperrors.Timeout("Timed out waiting for room lock")
		case <-time.After(s.cfg.RoomLockRetryDelay):
		}
	}
}

func (s *bookingService) publishStatusChange(ctx context.Context, booking *model.Booking, oldStatus model.BookingStatus) {
	if s.producer == nil {
		return
	}

	msg := events.NewBookingStatusChanged(booking, oldStatus, config.ServiceBookings, middleware.RequestIDFrom(ctx))
	if err := s.producer.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish booking status event",
			"booking_id", booking.ID,
			"new_status", booking.Status,
			"error", err,
		)
	}
}

package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "stayd/internal/bookings/errors"
	"stayd/internal/bookings/repository"
	bookingvalidator "stayd/internal/bookings/validator"
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

// ReassignRequest moves an existing assignment onto a different room,
// optionally adjusting the stay window at the same time.
type ReassignRequest struct {
	RoomID    string      `json:"room_id" validate:"required,mongodb"`
	StartDate *model.Date `json:"start_date,omitempty"`
	EndDate   *model.Date `json:"end_date,omitempty"`
}

type TenancyService interface {
	Assign(ctx context.Context, assignment *model.Booking, actor model.Actor) error
	Reassign(ctx context.Context, id string, req *ReassignRequest, actor model.Actor) (*model.Booking, error)
	Unassign(ctx context.Context, id string, actor model.Actor) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

type tenancyService struct {
	repo      repository.BookingRepository
	rooms     repository.RoomReader
	lockRepo  repository.RoomLockRepository
	validator *bookingvalidator.BookingValidator
	producer  EventPublisher
	cfg       *config.Config
}

func NewTenancyService(
	repo repository.BookingRepository,
	rooms repository.RoomReader,
	lockRepo repository.RoomLockRepository,
	validator *bookingvalidator.BookingValidator,
	producer EventPublisher,
	cfg *config.Config,
) TenancyService {
	return &tenancyService{
		repo:      repo,
		rooms:     rooms,
		lockRepo:  lockRepo,
		validator: validator,
		producer:  producer,
		cfg:       cfg,
	}
}

// Assign places a tenant directly into a room. Status defaults to
// confirmed, so the assignment clears the hard conflict bar under the room
// lock; an explicitly pending assignment is a soft hold that races to the
// confirm step like a booking request. A tenant holds at most one active
// assignment per property: a confirmed assignment over an existing one
// replaces it in the same transaction.
func (s *tenancyService) Assign(ctx context.Context, assignment *model.Booking, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can assign tenants")
	}

	assignment.ID = ""
	assignment.Source = model.SourceAssignment
	switch assignment.Status {
	case "":
		assignment.Status = model.BookingConfirmed
	case model.BookingPending, model.BookingConfirmed:
	default:
		return apperrors.Validation("Assignment status must be pending or confirmed", map[string]any{
			"status": assignment.Status,
		})
	}

	room, err := s.findRoom(ctx, assignment.RoomID)
	if err != nil {
		return err
	}
	if err := s.validate(assignment, room); err != nil {
		return err
	}

	if assignment.Status == model.BookingPending {
		return s.assignPending(ctx, assignment)
	}

	previous, err := s.findCurrentAssignment(ctx, assignment.TenantID, assignment.PropertyID)
	if err != nil {
		return err
	}

	excludeID := ""
	var released *model.Booking
	if previous != nil {
		excludeID = previous.ID
		cancelled := *previous
		cancelled.Status = model.BookingCancelled
		released = &cancelled
	}

	err = s.withRoomLock(ctx, assignment.RoomID, func() error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			active, err := s.repo.FindActiveByRoom(sessCtx, assignment.RoomID)
			if err != nil {
				return apperrors.Internal("Failed to check existing bookings", err)
			}
			if blocking := occupancy.ConfirmedOverlap(active, assignment.StartDate, assignment.EndDate, excludeID); blocking != nil {
				return apperrors.RoomConflict(assignment.RoomID, blocking.ID)
			}
			if released != nil {
				if _, err := s.repo.Update(sessCtx, released.ID, released); err != nil {
					return apperrors.Internal("Failed to release previous assignment", err)
				}
			}
			if err := s.repo.Create(sessCtx, assignment); err != nil {
				return apperrors.Internal("Failed to create assignment", err)
			}
			return nil
		})
	})
	if err != nil {
		s.cfg.Log.Error("Failed to assign tenant", "room_id", assignment.RoomID, "tenant_id", assignment.TenantID, "error", err)
		return err
	}

	if released != nil {
		s.publishStatusChange(ctx, released, previous.Status)
	}
	s.publishStatusChange(ctx, assignment, "")

	s.cfg.Log.Info("Tenant assigned",
		"id", assignment.ID,
		"room_id", assignment.RoomID,
		"tenant_id", assignment.TenantID,
	)
	return nil
}

// assignPending records a soft hold. Confirmed occupants block the range,
// other pending records do not, and the tenant's current assignment stays
// untouched until this one is confirmed.
func (s *tenancyService) assignPending(ctx context.Context, assignment *model.Booking) error {
	active, err := s.repo.FindActiveByRoom(ctx, assignment.RoomID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	if blocking := occupancy.ConfirmedOverlap(active, assignment.StartDate, assignment.EndDate, ""); blocking != nil {
		return apperrors.RoomUnavailable(assignment.RoomID, blocking.ID)
	}

	if err := s.repo.Create(ctx, assignment); err != nil {
		s.cfg.Log.Error("Failed to create assignment", "room_id", assignment.RoomID, "tenant_id", assignment.TenantID, "error", err)
		return apperrors.Internal("Failed to create assignment", err)
	}

	s.publishStatusChange(ctx, assignment, "")

	s.cfg.Log.Info("Tenant assignment held",
		"id", assignment.ID,
		"room_id", assignment.RoomID,
		"tenant_id", assignment.TenantID,
	)
	return nil
}

// Reassign moves a tenancy to another room in one transaction: the old
// assignment is cancelled and the new one created, or neither happens.
func (s *tenancyService) Reassign(ctx context.Context, id string, req *ReassignRequest, actor model.Actor) (*model.Booking, error) {
	if !actor.IsStaff() {
		return nil, apperrors.Forbidden("Only staff can reassign tenants")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsTerminal() {
		return nil, apperrors.StateError("Cannot reassign a tenancy in a terminal state", map[string]any{
			"assignment_id": id,
			"status":        existing.Status,
		})
	}

	replacement := *existing
	replacement.ID = ""
	replacement.RoomID = req.RoomID
	replacement.Status = model.BookingConfirmed
	replacement.Source = model.SourceAssignment
	if req.StartDate != nil {
		replacement.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		replacement.EndDate = *req.EndDate
	}

	room, err := s.findRoom(ctx, replacement.RoomID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&replacement, room); err != nil {
		return nil, err
	}

	cancelled := *existing
	cancelled.Status = model.BookingCancelled

	err = s.withRoomLock(ctx, replacement.RoomID, func() error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			active, err := s.repo.FindActiveByRoom(sessCtx, replacement.RoomID)
			if err != nil {
				return apperrors.Internal("Failed to check existing bookings", err)
			}
			if blocking := occupancy.ConfirmedOverlap(active, replacement.StartDate, replacement.EndDate, id); blocking != nil {
				return apperrors.RoomConflict(replacement.RoomID, blocking.ID)
			}
			if _, err := s.repo.Update(sessCtx, id, &cancelled); err != nil {
				return apperrors.Internal("Failed to release previous assignment", err)
			}
			if err := s.repo.Create(sessCtx, &replacement); err != nil {
				return apperrors.Internal("Failed to create replacement assignment", err)
			}
			return nil
		})
	})
	if err != nil {
		s.cfg.Log.Error("Failed to reassign tenant", "id", id, "new_room_id", req.RoomID, "error", err)
		return nil, err
	}

	s.publishStatusChange(ctx, &cancelled, existing.Status)
	s.publishStatusChange(ctx, &replacement, "")

	s.cfg.Log.Info("Tenant reassigned",
		"previous_id", id,
		"id", replacement.ID,
		"room_id", replacement.RoomID,
		"tenant_id", replacement.TenantID,
	)
	return &replacement, nil
}

// Unassign cancels an active assignment, freeing the room's range.
func (s *tenancyService) Unassign(ctx context.Context, id string, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can unassign tenants")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsTerminal() {
		return apperrors.StateError("Assignment is already in a terminal state", map[string]any{
			"assignment_id": id,
			"status":        existing.Status,
		})
	}

	oldStatus := existing.Status
	existing.Status = model.BookingCancelled

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, existing); err != nil {
			return apperrors.Internal("Failed to unassign tenant", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to unassign tenant", "id", id, "error", err)
		return err
	}

	s.publishStatusChange(ctx, existing, oldStatus)

	s.cfg.Log.Info("Tenant unassigned", "id", id, "room_id", existing.RoomID)
	return nil
}

func (s *tenancyService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Assignment ID cannot be empty")
	}

	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Assignment", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid assignment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve assignment", err)
	}
	if assignment.Source != model.SourceAssignment {
		return nil, apperrors.NotFoundWithID("Assignment", id)
	}

	return assignment, nil
}

func (s *tenancyService) ListByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if tenantID == "" {
		return nil, 0, apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	filter := repository.SearchFilter{TenantID: tenantID}

	count, err := s.repo.CountBySearch(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to count tenancies", "tenant_id", tenantID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count tenancies", err)
	}

	assignments, err := s.repo.Search(ctx, filter, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list tenancies", "tenant_id", tenantID, "error", err)
		return nil, 0, apperrors.Internal("Failed to list tenancies", err)
	}

	return assignments, count, nil
}

// --- Helpers ---

func (s *tenancyService) findRoom(ctx context.Context, roomID string) (*model.Room, error) {
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

// findCurrentAssignment returns the tenant's active assignment in the
// property, or nil when they hold none. The repository filters by source
// and property so the lookup never depends on a page size.
func (s *tenancyService) findCurrentAssignment(ctx context.Context, tenantID, propertyID string) (*model.Booking, error) {
	filter := repository.SearchFilter{
		TenantID:   tenantID,
		PropertyID: propertyID,
		Source:     model.SourceAssignment,
		Statuses:   []model.BookingStatus{model.BookingConfirmed},
	}
	candidates, err := s.repo.Search(ctx, filter, 1, 0)
	if err != nil {
		return nil, apperrors.Internal("Failed to check existing assignments", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[0], nil
}

func (s *tenancyService) validate(assignment *model.Booking, room *model.Room) error {
	if err := s.validator.Validate(assignment, room); err != nil {
		s.cfg.Log.Warn("Assignment validation failed", "error", err)
		return apperrors.Validation("Assignment validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *tenancyService) withRoomLock(ctx context.Context, roomID string, fn func() error) error {
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

func (s *tenancyService) acquireRoomLock(ctx context.Context, roomID string) (string, error) {
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

func (s *tenancyService) publishStatusChange(ctx context.Context, assignment *model.Booking, oldStatus model.BookingStatus) {
	if s.producer == nil {
		return
	}

	msg := events.NewBookingStatusChanged(assignment, oldStatus, config.ServiceTenancies, middleware.RequestIDFrom(ctx))
	if err := s.producer.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish tenancy status event",
			"assignment_id", assignment.ID,
			"new_status", assignment.Status,
			"error", err,
		)
	}
}

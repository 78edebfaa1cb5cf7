package service

import (
	"context"
	"errors"
	"sync"

	catalogerrors "stayd/internal/catalog/errors"
	"stayd/internal/catalog/repository"
	"stayd/internal/catalog/validator"
	"stayd/pkg/config"
	apperrors "stayd/pkg/errors"
	"stayd/pkg/model"
	"stayd/pkg/occupancy"
	"stayd/pkg/sanitizer"
)

// BookingReader is the read-only slice of the bookings store the catalog
// needs to resolve live occupancy.
type BookingReader interface {
	FindActiveByRoom(ctx context.Context, roomID string) ([]*model.Booking, error)
}

type RoomService interface {
	Create(ctx context.Context, room *model.Room, actor model.Actor) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetByProperty(ctx context.Context, propertyID string, limit int, offset int64) ([]*model.Room, int64, error)
	Update(ctx context.Context, id string, updates *model.RoomUpdate, actor model.Actor) error
	SetMaintenance(ctx context.Context, id string, maintenance bool, actor model.Actor) error
	Delete(ctx context.Context, id string, actor model.Actor) error
	Availability(ctx context.Context, propertyID string, asOf model.Date) ([]*model.RoomAvailability, error)
	ResolveStatus(ctx context.Context, roomID string, asOf model.Date) (model.RoomStatus, error)
}

type roomService struct {
	repo      repository.RoomRepository
	props     repository.PropertyRepository
	bookings  BookingReader
	validator *validator.CatalogValidator
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	props repository.PropertyRepository,
	bookings BookingReader,
	validator *validator.CatalogValidator,
	cfg *config.Config,
) RoomService {
	return &roomService{
		repo:      repo,
		props:     props,
		bookings:  bookings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *roomService) Create(ctx context.Context, room *model.Room, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can create rooms")
	}

	room.ID = ""
	room.Status = ""
	s.sanitize(room)

	if _, err := s.props.FindByID(ctx, room.PropertyID); err != nil {
		if errors.Is(err, catalogerrors.ErrPropertyNotFound) {
			return apperrors.NotFoundWithID("Property", room.PropertyID)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid property ID format")
		}
		return apperrors.Internal("Failed to retrieve property", err)
	}

	if err := s.validator.ValidateRoom(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, catalogerrors.ErrDuplicateRoomCode) {
			return apperrors.Conflict("A room with this code already exists in the property")
		}
		s.cfg.Log.Error("Failed to create room", "error", err)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created", "id", room.ID, "property_id", room.PropertyID, "code", room.Code)
	return nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrRoomNotFound) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}

	return room, nil
}

func (s *roomService) GetByProperty(ctx context.Context, propertyID string, limit int, offset int64) ([]*model.Room, int64, error) {
	if propertyID == "" {
		return nil, 0, apperrors.InvalidInput("Property ID cannot be empty")
	}

	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByProperty(ctx, propertyID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count rooms", "property_id", propertyID, "error", errCount)
			errCount = apperrors.Internal("Failed to count rooms", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		rooms, errFind = s.repo.FindByProperty(ctx, propertyID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list rooms", "property_id", propertyID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve rooms", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rooms, count, nil
}

func (s *roomService) Update(ctx context.Context, id string, updates *model.RoomUpdate, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can edit rooms")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateRoomUpdate(updates); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeRoomUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.ValidateRoom(merged); err != nil {
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, catalogerrors.ErrRoomNotFound) {
			return apperrors.NotFoundWithID("Room", id)
		}
		s.cfg.Log.Error("Failed to update room", "id", id, "error", err)
		return apperrors.Internal("Failed to update room", err)
	}

	s.cfg.Log.Info("Room updated", "id", id)
	return nil
}

// SetMaintenance flips the maintenance flag. Occupied rooms can enter
// maintenance; the resolver reports them as occupied_maintenance.
func (s *roomService) SetMaintenance(ctx context.Context, id string, maintenance bool, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can change maintenance state")
	}

	if err := s.repo.SetMaintenance(ctx, id, maintenance); err != nil {
		if errors.Is(err, catalogerrors.ErrRoomNotFound) {
			return apperrors.NotFoundWithID("Room", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid room ID format")
		}
		s.cfg.Log.Error("Failed to set maintenance", "id", id, "error", err)
		return apperrors.Internal("Failed to set maintenance", err)
	}

	s.cfg.Log.Info("Room maintenance changed", "id", id, "maintenance", maintenance)
	return nil
}

func (s *roomService) Delete(ctx context.Context, id string, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can delete rooms")
	}

	active, err := s.bookings.FindActiveByRoom(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to check room occupancy", err)
	}
	if len(active) > 0 {
		return apperrors.StateError("Cannot delete a room with active bookings", map[string]any{
			"room_id":         id,
			"active_bookings": len(active),
		})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, catalogerrors.ErrRoomNotFound) {
			return apperrors.NotFoundWithID("Room", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid room ID format")
		}
		return apperrors.Internal("Failed to delete room", err)
	}

	s.cfg.Log.Info("Room deleted", "id", id)
	return nil
}

// Availability lists each of the property's rooms with its occupancy
// status resolved live against the booking set, not the projected status
// column.
func (s *roomService) Availability(ctx context.Context, propertyID string, asOf model.Date) ([]*model.RoomAvailability, error) {
	if _, err := s.props.FindByID(ctx, propertyID); err != nil {
		if errors.Is(err, catalogerrors.ErrPropertyNotFound) {
			return nil, apperrors.NotFoundWithID("Property", propertyID)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve property", err)
	}

	rooms, err := s.repo.FindByProperty(ctx, propertyID, config.DefaultPaginationLimit, 0)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve rooms", err)
	}

	listing := make([]*model.RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		occupants, err := s.bookings.FindActiveByRoom(ctx, room.ID)
		if err != nil {
			return nil, apperrors.Internal("Failed to retrieve room occupancy", err)
		}

		listing = append(listing, &model.RoomAvailability{
			RoomID:       room.ID,
			Code:         room.Code,
			Status:       occupancy.ResolveRoom(room, occupants, asOf),
			PriceMonthly: room.PriceMonthly,
			PriceTerm:    room.PriceTerm,
			Deposit:      room.Deposit,
		})
	}

	return listing, nil
}

// ResolveStatus derives one room's current status on demand.
func (s *roomService) ResolveStatus(ctx context.Context, roomID string, asOf model.Date) (model.RoomStatus, error) {
	room, err := s.GetByID(ctx, roomID)
	if err != nil {
		return "", err
	}

	occupants, err := s.bookings.FindActiveByRoom(ctx, roomID)
	if err != nil {
		return "", apperrors.Internal("Failed to retrieve room occupancy", err)
	}

	return occupancy.ResolveRoom(room, occupants, asOf), nil
}

// --- Helpers ---

func (s *roomService) sanitize(room *model.Room) {
	room.Code = sanitizer.SanitizeRoomCode(room.Code)
	room.Name = sanitizer.NormalizeName(room.Name)
	room.Images = sanitizer.NormalizeImageURLs(room.Images)
}

func (s *roomService) mergeRoomUpdates(existing *model.Room, updates *model.RoomUpdate) *model.Room {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.PriceMonthly != nil {
		merged.PriceMonthly = updates.PriceMonthly
	}
	if updates.PriceTerm != nil {
		merged.PriceTerm = updates.PriceTerm
	}
	if updates.Deposit != nil {
		merged.Deposit = *updates.Deposit
	}
	if updates.HasAC != nil {
		merged.HasAC = *updates.HasAC
	}
	if updates.HasFan != nil {
		merged.HasFan = *updates.HasFan
	}
	if updates.Images != nil {
		merged.Images = updates.Images
	}

	return &merged
}

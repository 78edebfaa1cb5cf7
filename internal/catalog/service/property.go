package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	catalogerrors "stayd/internal/catalog/errors"
	"stayd/internal/catalog/repository"
	"stayd/internal/catalog/validator"
	"stayd/pkg/config"
	apperrors "stayd/pkg/errors"
	"stayd/pkg/model"
	"stayd/pkg/sanitizer"
)

type PropertyService interface {
	Create(ctx context.Context, property *model.Property, actor model.Actor) error
	GetByID(ctx context.Context, id string) (*model.Property, error)
	GetAll(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Property, int64, error)
	Update(ctx context.Context, id string, updates *model.PropertyUpdate, actor model.Actor) error
	Delete(ctx context.Context, id string, actor model.Actor) error
}

type propertyService struct {
	repo      repository.PropertyRepository
	rooms     repository.RoomRepository
	validator *validator.CatalogValidator
	cfg       *config.Config
}

func NewPropertyService(
	repo repository.PropertyRepository,
	rooms repository.RoomRepository,
	validator *validator.CatalogValidator,
	cfg *config.Config,
) PropertyService {
	return &propertyService{
		repo:      repo,
		rooms:     rooms,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *propertyService) Create(ctx context.Context, property *model.Property, actor model.Actor) error {
	if !actor.IsStaff() {
		return apperrors.Forbidden("Only staff can create properties")
	}

	property.ID = ""
	s.sanitize(property)

	// An owner creating a property always ends up in its owner set.
	if actor.Role == model.RoleOwner && !property.OwnedBy(actor.ID) {
		property.OwnerIDs = append(property.OwnerIDs, actor.ID)
	}

	if err := s.validator.ValidateProperty(property); err != nil {
		s.cfg.Log.Warn("Property validation failed", "error", err)
		return apperrors.Validation("Property validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, property); err != nil {
		s.cfg.Log.Error("Failed to create property", "error", err)
		return apperrors.Internal("Failed to create property", err)
	}

	s.cfg.Log.Info("Property created", "id", property.ID, "name", property.Name)
	return nil
}

func (s *propertyService) GetByID(ctx context.Context, id string) (*model.Property, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrPropertyNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve property", err)
	}

	return property, nil
}

func (s *propertyService) GetAll(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Property, int64, error) {
	var count int64
	var properties []*model.Property
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, ownerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count properties", "error", errCount)
			errCount = apperrors.Internal("Failed to count properties", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		properties, errFind = s.repo.FindAll(ctx, ownerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list properties", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve properties", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return properties, count, nil
}

func (s *propertyService) Update(ctx context.Context, id string, updates *model.PropertyUpdate, actor model.Actor) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeManage(existing, actor); err != nil {
		return err
	}

	if err := s.validator.ValidatePropertyUpdate(updates); err != nil {
		s.cfg.Log.Warn("Property update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergePropertyUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.ValidateProperty(merged); err != nil {
		return apperrors.Validation("Property validation failed", map[string]any{"error": err.Error()})
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update property", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update property", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Property updated", "id", id)
	return nil
}

// Delete removes a property. Properties still holding rooms are refused;
// the rooms carry the occupancy history.
func (s *propertyService) Delete(ctx context.Context, id string, actor model.Actor) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeManage(existing, actor); err != nil {
		return err
	}

	roomCount, err := s.rooms.CountByProperty(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to count property rooms", err)
	}
	if roomCount > 0 {
		return apperrors.StateError("Cannot delete a property that still has rooms", map[string]any{
			"property_id": id,
			"room_count":  roomCount,
		})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, catalogerrors.ErrPropertyNotFound) {
			return apperrors.NotFoundWithID("Property", id)
		}
		return apperrors.Internal("Failed to delete property", err)
	}

	s.cfg.Log.Info("Property deleted", "id", id)
	return nil
}

// --- Helpers ---

func (s *propertyService) authorizeManage(property *model.Property, actor model.Actor) error {
	if actor.Role == model.RoleAdmin || actor.Role == model.RoleStaff {
		return nil
	}
	if actor.Role == model.RoleOwner && property.OwnedBy(actor.ID) {
		return nil
	}
	return apperrors.Forbidden("Not allowed to manage this property")
}

func (s *propertyService) sanitize(p *model.Property) {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.Address = sanitizer.NormalizeAddress(p.Address)
	p.Description = sanitizer.NormalizeDescription(p.Description)
	p.OwnerIDs = sanitizer.NormalizeStringSlice(p.OwnerIDs, sanitizer.TrimAndNormalize)
}

func (s *propertyService) mergePropertyUpdates(existing *model.Property, updates *model.PropertyUpdate) *model.Property {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.ElectricityRate != nil {
		merged.ElectricityRate = *updates.ElectricityRate
	}
	if updates.WaterRate != nil {
		merged.WaterRate = *updates.WaterRate
	}
	if updates.OwnerIDs != nil {
		merged.OwnerIDs = updates.OwnerIDs
	}

	return &merged
}

package model

import "time"

type Property struct {
	ID          string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Address     string `json:"address" bson:"address" validate:"required,min=5,max=200"`
	Description string `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`

	// Per-unit utility rates billed on top of rent.
	ElectricityRate Money `json:"electricity_rate" bson:"electricity_rate"`
	WaterRate       Money `json:"water_rate" bson:"water_rate"`

	// OwnerIDs is the owner set; a property may be co-owned.
	OwnerIDs []string `json:"owner_ids" bson:"owner_ids" validate:"required,min=1,max=20,dive,required"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

type PropertyUpdate struct {
	Name            string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Address         string   `json:"address,omitempty" validate:"omitempty,min=5,max=200"`
	Description     string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	ElectricityRate *Money   `json:"electricity_rate,omitempty"`
	WaterRate       *Money   `json:"water_rate,omitempty"`
	OwnerIDs        []string `json:"owner_ids,omitempty" validate:"omitempty,min=1,max=20,dive,required"`
}

// OwnedBy reports whether the given user id is in the property's owner set.
func (p *Property) OwnedBy(userID string) bool {
	for _, id := range p.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

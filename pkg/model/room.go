package model

import "time"

type RoomStatus string

const (
	RoomAvailable           RoomStatus = "available"
	RoomOccupied            RoomStatus = "occupied"
	RoomMaintenance         RoomStatus = "maintenance"
	RoomOccupiedMaintenance RoomStatus = "occupied_maintenance"
)

type Room struct {
	ID         string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PropertyID string `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	Code       string `json:"code" bson:"code" validate:"required,min=1,max=20"`
	Name       string `json:"name" bson:"name" validate:"required,min=2,max=100"`

	// Prices are nullable: a room that cannot be let on a given billing
	// cycle simply has no price for it.
	PriceMonthly *Money `json:"price_monthly,omitempty" bson:"price_monthly,omitempty"`
	PriceTerm    *Money `json:"price_term,omitempty" bson:"price_term,omitempty"`
	Deposit      Money  `json:"deposit" bson:"deposit"`

	HasAC  bool     `json:"has_ac" bson:"has_ac"`
	HasFan bool     `json:"has_fan" bson:"has_fan"`
	Images []string `json:"images,omitempty" bson:"images,omitempty" validate:"omitempty,max=20,dive,url"`

	// Maintenance is the only status input staff own directly. The
	// effective status below is derived from it plus the occupancy set.
	Maintenance bool `json:"maintenance" bson:"maintenance"`

	// Status is a materialized projection maintained by the projector.
	// Nothing else writes it; reads that need a fresh answer derive it
	// through the occupancy resolver instead.
	Status RoomStatus `json:"status,omitempty" bson:"status,omitempty" validate:"omitempty,oneof=available occupied maintenance occupied_maintenance"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

type RoomUpdate struct {
	Name         string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	PriceMonthly *Money   `json:"price_monthly,omitempty"`
	PriceTerm    *Money   `json:"price_term,omitempty"`
	Deposit      *Money   `json:"deposit,omitempty"`
	HasAC        *bool    `json:"has_ac,omitempty"`
	HasFan       *bool    `json:"has_fan,omitempty"`
	Images       []string `json:"images,omitempty" validate:"omitempty,max=20,dive,url"`
}

// PriceFor returns the room's price for the given billing cycle, or nil
// when the room is not offered on that cycle.
func (r *Room) PriceFor(cycle BillingCycle) *Money {
	switch cycle {
	case BillingMonthly:
		return r.PriceMonthly
	case BillingTerm:
		return r.PriceTerm
	default:
		return nil
	}
}

// RoomAvailability is the catalog listing row: the derived status plus the
// pricing a prospective tenant needs to choose a billing cycle.
type RoomAvailability struct {
	RoomID       string     `json:"room_id"`
	Code         string     `json:"code"`
	Status       RoomStatus `json:"status"`
	PriceMonthly *Money     `json:"price_monthly,omitempty"`
	PriceTerm    *Money     `json:"price_term,omitempty"`
	Deposit      Money      `json:"deposit"`
}

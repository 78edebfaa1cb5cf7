package model

import (
	"time"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingTerm    BillingCycle = "term"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// OccupancySource distinguishes self-service booking requests from direct
// staff assignments. Both live in the same collection so the occupancy
// resolver treats them uniformly.
type OccupancySource string

const (
	SourceRequest    OccupancySource = "request"
	SourceAssignment OccupancySource = "assignment"
)

type Booking struct {
	ID           string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PropertyID   string          `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	RoomID       string          `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	TenantID     string          `json:"tenant_id" bson:"tenant_id" validate:"required,min=1,max=64"`
	StartDate    Date            `json:"start_date" bson:"start_date" validate:"required"`
	EndDate      Date            `json:"end_date" bson:"end_date" validate:"required"`
	BillingCycle BillingCycle    `json:"billing_cycle" bson:"billing_cycle" validate:"required,oneof=monthly term"`
	Status       BookingStatus   `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	Source       OccupancySource `json:"source" bson:"source" validate:"required,oneof=request assignment"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

// BookingUpdate carries the staff-editable fields. Status transitions go
// through the dedicated confirm/cancel/complete operations, never here.
type BookingUpdate struct {
	StartDate    *Date        `json:"start_date,omitempty" validate:"omitempty"`
	EndDate      *Date        `json:"end_date,omitempty" validate:"omitempty"`
	BillingCycle BillingCycle `json:"billing_cycle,omitempty" validate:"omitempty,oneof=monthly term"`
}

// IsActive reports whether the booking still reserves the room.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// IsTerminal reports whether the booking reached a final state.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCancelled || b.Status == BookingCompleted
}

// Covers reports whether the booking's date range includes d.
func (b *Booking) Covers(d Date) bool {
	return !b.StartDate.After(d) && d.Before(b.EndDate)
}

// Overlaps reports whether the booking's range intersects [start, end).
func (b *Booking) Overlaps(start, end Date) bool {
	return RangesOverlap(b.StartDate, b.EndDate, start, end)
}

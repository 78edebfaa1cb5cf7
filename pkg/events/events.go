package events

import (
	"time"

	"stayd/pkg/kafka"
	"stayd/pkg/model"
)

// Topic names shared by the producers and the projector.
const (
	TopicBookingStatus    = "stayd.booking.status"
	TopicBookingStatusDLQ = "stayd.booking.status.dlq"
)

// Event types carried in the event-type header.
const (
	TypeBookingStatusChanged = "booking.status.changed"
)

// BookingStatusChanged is emitted whenever a booking or tenancy
// assignment enters a new lifecycle state. OldStatus is empty for
// freshly created records.
type BookingStatusChanged struct {
	BookingID  string                `json:"booking_id"`
	PropertyID string                `json:"property_id"`
	RoomID     string                `json:"room_id"`
	TenantID   string                `json:"tenant_id"`
	OldStatus  model.BookingStatus   `json:"old_status,omitempty"`
	NewStatus  model.BookingStatus   `json:"new_status"`
	Source     model.OccupancySource `json:"source"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// NewBookingStatusChanged builds the Kafka message for a status
// transition. The room ID is the partition key so a room's transitions
// stay ordered.
func NewBookingStatusChanged(booking *model.Booking, oldStatus model.BookingStatus, source string, correlationID string) kafka.Message {
	event := BookingStatusChanged{
		BookingID:  booking.ID,
		PropertyID: booking.PropertyID,
		RoomID:     booking.RoomID,
		TenantID:   booking.TenantID,
		OldStatus:  oldStatus,
		NewStatus:  booking.Status,
		Source:     booking.Source,
		OccurredAt: time.Now().UTC(),
	}

	return kafka.NewMessage().
		WithKey(booking.RoomID).
		WithValue(event).
		WithEventType(TypeBookingStatusChanged).
		WithCorrelationID(correlationID).
		WithSource(source).
		Build()
}

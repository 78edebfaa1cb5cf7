package occupancy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stayd/pkg/model"
)

var (
	jan1 = model.NewDate(2024, time.January, 1)
	feb1 = model.NewDate(2024, time.February, 1)
	mar1 = model.NewDate(2024, time.March, 1)
	apr1 = model.NewDate(2024, time.April, 1)
	jun1 = model.NewDate(2024, time.June, 1)
)

func booking(id string, status model.BookingStatus, start, end model.Date) *model.Booking {
	return &model.Booking{
		ID:        id,
		RoomID:    "65f000000000000000000001",
		Status:    status,
		Source:    model.SourceRequest,
		StartDate: start,
		EndDate:   end,
	}
}

func TestResolve_PriorityOrder(t *testing.T) {
	confirmed := booking("b1", model.BookingConfirmed, jan1, jun1)
	asOf := feb1

	tests := []struct {
		name        string
		maintenance bool
		occupants   []*model.Booking
		want        model.RoomStatus
	}{
		{"maintenance with confirmed occupant", true, []*model.Booking{confirmed}, model.RoomOccupiedMaintenance},
		{"maintenance without occupant", true, nil, model.RoomMaintenance},
		{"confirmed occupant", false, []*model.Booking{confirmed}, model.RoomOccupied},
		{"no occupants", false, nil, model.RoomAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.maintenance, tt.occupants, asOf))
		})
	}
}

func TestResolve_PendingDoesNotOccupy(t *testing.T) {
	pending := booking("b1", model.BookingPending, jan1, jun1)

	assert.Equal(t, model.RoomAvailable, Resolve(false, []*model.Booking{pending}, feb1))
	assert.Equal(t, model.RoomMaintenance, Resolve(true, []*model.Booking{pending}, feb1))
}

func TestResolve_TerminalStatesAreIgnored(t *testing.T) {
	occupants := []*model.Booking{
		booking("b1", model.BookingCancelled, jan1, jun1),
		booking("b2", model.BookingCompleted, jan1, jun1),
	}

	assert.Equal(t, model.RoomAvailable, Resolve(false, occupants, feb1))
}

func TestResolve_ConfirmedOutsideRangeDoesNotOccupy(t *testing.T) {
	// Confirmed occupant whose stay has not started yet as of asOf.
	future := booking("b1", model.BookingConfirmed, mar1, jun1)

	assert.Equal(t, model.RoomAvailable, Resolve(false, []*model.Booking{future}, feb1))
	assert.Equal(t, model.RoomOccupied, Resolve(false, []*model.Booking{future}, mar1))
}

func TestResolve_Idempotent(t *testing.T) {
	occupants := []*model.Booking{
		booking("b1", model.BookingConfirmed, jan1, jun1),
		booking("b2", model.BookingPending, feb1, apr1),
	}

	first := Resolve(true, occupants, feb1)
	second := Resolve(true, occupants, feb1)

	assert.Equal(t, first, second)
	assert.Equal(t, model.RoomOccupiedMaintenance, first)
}

func TestConfirmedOverlap(t *testing.T) {
	confirmed := booking("b1", model.BookingConfirmed, jan1, mar1)
	pending := booking("b2", model.BookingPending, jan1, mar1)
	occupants := []*model.Booking{pending, confirmed}

	hit := ConfirmedOverlap(occupants, feb1, apr1, "")
	if assert.NotNil(t, hit) {
		assert.Equal(t, "b1", hit.ID)
	}

	// The candidate's own record never conflicts with itself.
	assert.Nil(t, ConfirmedOverlap(occupants, feb1, apr1, "b1"))

	// Pending records never block.
	assert.Nil(t, ConfirmedOverlap([]*model.Booking{pending}, feb1, apr1, ""))

	// Disjoint ranges do not conflict.
	assert.Nil(t, ConfirmedOverlap(occupants, apr1, jun1, ""))
}

func TestActiveOccupants(t *testing.T) {
	occupants := []*model.Booking{
		booking("b1", model.BookingPending, jan1, mar1),
		booking("b2", model.BookingConfirmed, jan1, mar1),
		booking("b3", model.BookingCancelled, jan1, mar1),
		booking("b4", model.BookingCompleted, jan1, mar1),
	}

	active := ActiveOccupants(occupants)

	assert.Len(t, active, 2)
	assert.Equal(t, "b1", active[0].ID)
	assert.Equal(t, "b2", active[1].ID)
}

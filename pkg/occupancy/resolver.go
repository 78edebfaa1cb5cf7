// Package occupancy derives a room's effective status from its occupancy
// set. It is pure: callers load the room flag and the bookings/assignments
// referencing the room, and every mutation path (confirm, cancel, assign,
// unassign) funnels its conflict checks through here so no caller can set
// a room status that disagrees with the authoritative occupancy records.
package occupancy

import (
	"stayd/pkg/model"
)

// Resolve computes the effective room status. Priority order, first match
// wins:
//
//  1. maintenance flag set and a confirmed occupant covers asOf -> occupied_maintenance
//  2. maintenance flag set                                      -> maintenance
//  3. a confirmed occupant covers asOf                          -> occupied
//  4. otherwise                                                 -> available
//
// A pending booking reserves but never occupies: it is visible to staff
// for confirmation yet does not flip the room's status.
func Resolve(maintenance bool, occupants []*model.Booking, asOf model.Date) model.RoomStatus {
	occupied := false
	for _, o := range occupants {
		if o.Status == model.BookingConfirmed && o.Covers(asOf) {
			occupied = true
			break
		}
	}

	switch {
	case maintenance && occupied:
		return model.RoomOccupiedMaintenance
	case maintenance:
		return model.RoomMaintenance
	case occupied:
		return model.RoomOccupied
	default:
		return model.RoomAvailable
	}
}

// ResolveRoom is a convenience wrapper over Resolve for a loaded room.
func ResolveRoom(room *model.Room, occupants []*model.Booking, asOf model.Date) model.RoomStatus {
	return Resolve(room.Maintenance, occupants, asOf)
}

// ConfirmedOverlap returns the first confirmed occupant whose date range
// intersects [start, end), skipping the record with excludeID. This is the
// single conflict test behind RoomUnavailable (at request time) and
// RoomConflict (at confirm/assign time).
func ConfirmedOverlap(occupants []*model.Booking, start, end model.Date, excludeID string) *model.Booking {
	for _, o := range occupants {
		if o.ID == excludeID {
			continue
		}
		if o.Status != model.BookingConfirmed {
			continue
		}
		if o.Overlaps(start, end) {
			return o
		}
	}
	return nil
}

// ActiveOccupants filters the occupancy set down to records that still
// reserve the room (pending or confirmed), dropping historical ones.
func ActiveOccupants(occupants []*model.Booking) []*model.Booking {
	active := make([]*model.Booking, 0, len(occupants))
	for _, o := range occupants {
		if o.IsActive() {
			active = append(active, o)
		}
	}
	return active
}

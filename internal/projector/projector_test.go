package projector

import (
	"context"
	"testing"

	"stayd/internal/projector/repository"
	"stayd/pkg/config"
	"stayd/pkg/events"
	"stayd/pkg/kafka"
	"stayd/pkg/logger"
	"stayd/pkg/model"
)

const testRoomID = "64a0000000000000000000bb"

// --- Mocks ---

type mockRoomStatusRepository struct {
	rooms    map[string]*model.Room
	statuses map[string]model.RoomStatus
}

func newMockRoomStatusRepository() *mockRoomStatusRepository {
	return &mockRoomStatusRepository{
		rooms:    map[string]*model.Room{},
		statuses: map[string]model.RoomStatus{},
	}
}

func (m *mockRoomStatusRepository) FindRoom(ctx context.Context, id string) (*model.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (m *mockRoomStatusRepository) UpdateRoomStatus(ctx context.Context, id string, status model.RoomStatus) error {
	if _, ok := m.rooms[id]; !ok {
		return repository.ErrRoomNotFound
	}
	m.statuses[id] = status
	return nil
}

type mockBookingReader struct {
	byRoom map[string][]*model.Booking
}

func (m *mockBookingReader) FindActiveByRoom(ctx context.Context, roomID string) ([]*model.Booking, error) {
	return m.byRoom[roomID], nil
}

// --- Fixtures ---

func newProjector(t *testing.T, rooms *mockRoomStatusRepository, bookings *mockBookingReader) *Projector {
	t.Helper()
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
	return New(rooms, bookings, cfg)
}

func statusEvent(roomID string) kafka.Message {
	booking := &model.Booking{
		ID:        "64b000000000000000000001",
		RoomID:    roomID,
		StartDate: model.Today().AddDays(-10),
		EndDate:   model.Today().AddDays(20),
		Status:    model.BookingConfirmed,
	}
	return events.NewBookingStatusChanged(booking, model.BookingPending, "test", "")
}

// --- Tests ---

func TestHandleMessage_ProjectsOccupied(t *testing.T) {
	rooms := newMockRoomStatusRepository()
	rooms.rooms[testRoomID] = &model.Room{ID: testRoomID}
	bookings := &mockBookingReader{byRoom: map[string][]*model.Booking{
		testRoomID: {{
			ID:        "64b000000000000000000001",
			RoomID:    testRoomID,
			StartDate: model.Today().AddDays(-10),
			EndDate:   model.Today().AddDays(20),
			Status:    model.BookingConfirmed,
		}},
	}}
	p := newProjector(t, rooms, bookings)

	if err := p.HandleMessage(context.Background(), statusEvent(testRoomID)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := rooms.statuses[testRoomID]; got != model.RoomOccupied {
		t.Errorf("expected occupied, got %s", got)
	}
}

func TestHandleMessage_ProjectsAvailableAfterCancel(t *testing.T) {
	rooms := newMockRoomStatusRepository()
	rooms.rooms[testRoomID] = &model.Room{ID: testRoomID, Status: model.RoomOccupied}
	// No active bookings remain for the room.
	bookings := &mockBookingReader{byRoom: map[string][]*model.Booking{}}
	p := newProjector(t, rooms, bookings)

	if err := p.HandleMessage(context.Background(), statusEvent(testRoomID)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := rooms.statuses[testRoomID]; got != model.RoomAvailable {
		t.Errorf("expected available, got %s", got)
	}
}

func TestHandleMessage_MaintenanceWins(t *testing.T) {
	rooms := newMockRoomStatusRepository()
	rooms.rooms[testRoomID] = &model.Room{ID: testRoomID, Maintenance: true}
	bookings := &mockBookingReader{byRoom: map[string][]*model.Booking{}}
	p := newProjector(t, rooms, bookings)

	if err := p.HandleMessage(context.Background(), statusEvent(testRoomID)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := rooms.statuses[testRoomID]; got != model.RoomMaintenance {
		t.Errorf("expected maintenance, got %s", got)
	}
}

func TestHandleMessage_DeletedRoomSkipped(t *testing.T) {
	rooms := newMockRoomStatusRepository()
	bookings := &mockBookingReader{}
	p := newProjector(t, rooms, bookings)

	// The room behind the event no longer exists; the event is dropped,
	// not retried.
	if err := p.HandleMessage(context.Background(), statusEvent(testRoomID)); err != nil {
		t.Fatalf("expected deleted room to be skipped, got %v", err)
	}
}

func TestHandleMessage_UndecodablePayloadFails(t *testing.T) {
	rooms := newMockRoomStatusRepository()
	bookings := &mockBookingReader{}
	p := newProjector(t, rooms, bookings)

	msg := kafka.Message{
		Value:   []byte("not json"),
		Headers: map[string]string{kafka.HeaderEventID: "evt-1"},
	}
	if err := p.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error for undecodable payload")
	}
}

func TestHandleMessage_MissingRoomIDFails(t *testing.T) {
	rooms := newMockRoomStatusRepository()
	bookings := &mockBookingReader{}
	p := newProjector(t, rooms, bookings)

	msg := kafka.NewMessage().WithValue(map[string]string{"other": "field"}).Build()
	if err := p.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error for event without room_id")
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	rooms := newMockRoomStatusRepository()
	rooms.rooms[testRoomID] = &model.Room{ID: testRoomID}
	bookings := &mockBookingReader{byRoom: map[string][]*model.Booking{
		testRoomID: {{
			ID:        "64b000000000000000000001",
			RoomID:    testRoomID,
			StartDate: model.Today().AddDays(-1),
			EndDate:   model.Today().AddDays(30),
			Status:    model.BookingConfirmed,
		}},
	}}
	p := newProjector(t, rooms, bookings)
	ctx := context.Background()

	first, err := p.Recompute(ctx, testRoomID)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	second, err := p.Recompute(ctx, testRoomID)
	if err != nil {
		t.Fatalf("replayed recompute failed: %v", err)
	}
	if first != second {
		t.Errorf("replay diverged: %s then %s", first, second)
	}
	if first != model.RoomOccupied {
		t.Errorf("expected occupied, got %s", first)
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	catalogerrors "stayd/internal/catalog/errors"
	"stayd/internal/catalog/validator"
	"stayd/pkg/config"
	mongotx "stayd/pkg/db/mongo"
	apperrors "stayd/pkg/errors"
	"stayd/pkg/logger"
	"stayd/pkg/model"
)

const (
	testPropertyID = "64a0000000000000000000aa"
	testRoomID     = "64a0000000000000000000bb"
)

// --- Mocks ---

type mockPropertyRepository struct {
	mu         sync.Mutex
	properties map[string]*model.Property
	nextID     int
}

func newMockPropertyRepository() *mockPropertyRepository {
	return &mockPropertyRepository{properties: map[string]*model.Property{}}
}

func (m *mockPropertyRepository) Create(ctx context.Context, property *model.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *property
	cp.ID = fmt.Sprintf("64c%021d", m.nextID)
	cp.CreatedAt = time.Now().UTC()
	m.properties[cp.ID] = &cp
	property.ID = cp.ID
	return nil
}

func (m *mockPropertyRepository) FindByID(ctx context.Context, id string) (*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, catalogerrors.ErrPropertyNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPropertyRepository) FindAll(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Property
	for _, p := range m.properties {
		if ownerID != "" && !p.OwnedBy(ownerID) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockPropertyRepository) Count(ctx context.Context, ownerID string) (int64, error) {
	found, _ := m.FindAll(ctx, ownerID, 0, 0)
	return int64(len(found)), nil
}

func (m *mockPropertyRepository) Update(ctx context.Context, id string, property *model.Property) (*mongo.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[id]; !ok {
		return nil, catalogerrors.ErrPropertyNotFound
	}
	cp := *property
	cp.ID = id
	m.properties[id] = &cp
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockPropertyRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[id]; !ok {
		return catalogerrors.ErrPropertyNotFound
	}
	delete(m.properties, id)
	return nil
}

func (m *mockPropertyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockRoomRepository struct {
	mu     sync.Mutex
	rooms  map[string]*model.Room
	nextID int
}

func newMockRoomRepository() *mockRoomRepository {
	return &mockRoomRepository{rooms: map[string]*model.Room{}}
}

func (m *mockRoomRepository) Create(ctx context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.PropertyID == room.PropertyID && r.Code == room.Code {
			return catalogerrors.ErrDuplicateRoomCode
		}
	}
	m.nextID++
	cp := *room
	cp.ID = fmt.Sprintf("64d%021d", m.nextID)
	cp.CreatedAt = time.Now().UTC()
	m.rooms[cp.ID] = &cp
	room.ID = cp.ID
	return nil
}

func (m *mockRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, catalogerrors.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRoomRepository) FindByProperty(ctx context.Context, propertyID string, limit int, offset int64) ([]*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Room
	for _, r := range m.rooms {
		if r.PropertyID == propertyID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRoomRepository) CountByProperty(ctx context.Context, propertyID string) (int64, error) {
	found, _ := m.FindByProperty(ctx, propertyID, 0, 0)
	return int64(len(found)), nil
}

func (m *mockRoomRepository) Update(ctx context.Context, id string, room *model.Room) (*mongo.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rooms[id]
	if !ok {
		return nil, catalogerrors.ErrRoomNotFound
	}
	existing.Name = room.Name
	existing.PriceMonthly = room.PriceMonthly
	existing.PriceTerm = room.PriceTerm
	existing.Deposit = room.Deposit
	existing.HasAC = room.HasAC
	existing.HasFan = room.HasFan
	existing.Images = room.Images
	existing.UpdatedAt = time.Now().UTC()
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockRoomRepository) SetMaintenance(ctx context.Context, id string, maintenance bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return catalogerrors.ErrRoomNotFound
	}
	r.Maintenance = maintenance
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockRoomRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return catalogerrors.ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

type mockBookingReader struct {
	mu     sync.Mutex
	byRoom map[string][]*model.Booking
}

func (m *mockBookingReader) FindActiveByRoom(ctx context.Context, roomID string) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byRoom[roomID], nil
}

func (m *mockBookingReader) add(roomID string, booking *model.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byRoom == nil {
		m.byRoom = map[string][]*model.Booking{}
	}
	m.byRoom[roomID] = append(m.byRoom[roomID], booking)
}

// --- Fixtures ---

type fixture struct {
	rooms    RoomService
	props    PropertyService
	roomRepo *mockRoomRepository
	propRepo *mockPropertyRepository
	bookings *mockBookingReader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}

	propRepo := newMockPropertyRepository()
	propRepo.properties[testPropertyID] = &model.Property{
		ID:              testPropertyID,
		Name:            "Riverside House",
		Address:         "12 Riverside Road",
		ElectricityRate: model.MustMoney("7.50"),
		WaterRate:       model.MustMoney("25.00"),
		OwnerIDs:        []string{"owner-1"},
	}

	roomRepo := newMockRoomRepository()
	bookings := &mockBookingReader{}
	v := validator.NewCatalogValidator(cfg.Log)

	return &fixture{
		rooms:    NewRoomService(roomRepo, propRepo, bookings, v, cfg),
		props:    NewPropertyService(propRepo, roomRepo, v, cfg),
		roomRepo: roomRepo,
		propRepo: propRepo,
		bookings: bookings,
	}
}

func newRoom(code string) *model.Room {
	price := model.MustMoney("450.00")
	return &model.Room{
		PropertyID:   testPropertyID,
		Code:         code,
		Name:         "Room " + code,
		PriceMonthly: &price,
		Deposit:      model.MustMoney("450.00"),
	}
}

func confirmedStay(id string, start, end model.Date) *model.Booking {
	return &model.Booking{
		ID:        id,
		RoomID:    testRoomID,
		StartDate: start,
		EndDate:   end,
		Status:    model.BookingConfirmed,
	}
}

var staff = model.Actor{ID: "staff-1", Role: model.RoleStaff}

// --- Rooms ---

func TestRoomCreate_SanitizesCode(t *testing.T) {
	f := newFixture(t)

	room := newRoom(" Room 2-B ")
	if err := f.rooms.Create(context.Background(), room, staff); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if room.Code != "room_2_b" {
		t.Errorf("expected normalized code room_2_b, got %q", room.Code)
	}
}

func TestRoomCreate_DuplicateCodeConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.rooms.Create(ctx, newRoom("a101"), staff); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := f.rooms.Create(ctx, newRoom("a101"), staff)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT on duplicate code, got %v", err)
	}
}

func TestRoomCreate_UnknownProperty(t *testing.T) {
	f := newFixture(t)

	room := newRoom("a101")
	room.PropertyID = "64a0000000000000000000ff"
	err := f.rooms.Create(context.Background(), room, staff)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRoomCreate_IgnoresClientStatus(t *testing.T) {
	f := newFixture(t)

	room := newRoom("a101")
	room.Status = model.RoomOccupied
	if err := f.rooms.Create(context.Background(), room, staff); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := f.roomRepo.FindByID(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.Status != "" {
		t.Errorf("expected status cleared on create, got %q", stored.Status)
	}
}

func TestRoomDelete_RefusedWithActiveBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := newRoom("a101")
	if err := f.rooms.Create(ctx, room, staff); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	f.bookings.add(room.ID, &model.Booking{
		ID:     "64b000000000000000000001",
		RoomID: room.ID,
		Status: model.BookingPending,
	})

	err := f.rooms.Delete(ctx, room.ID, staff)
	if !apperrors.IsCode(err, apperrors.CodeStateError) {
		t.Fatalf("expected STATE_ERROR, got %v", err)
	}
	if _, err := f.roomRepo.FindByID(ctx, room.ID); err != nil {
		t.Errorf("room should still exist, got %v", err)
	}
}

// --- Status resolution ---

func TestResolveStatus(t *testing.T) {
	asOf := model.NewDate(2026, 10, 15)
	inStay := confirmedStay("64b000000000000000000001", model.NewDate(2026, 10, 1), model.NewDate(2026, 11, 1))
	pastStay := confirmedStay("64b000000000000000000002", model.NewDate(2026, 1, 1), model.NewDate(2026, 2, 1))
	pendingStay := confirmedStay("64b000000000000000000003", model.NewDate(2026, 10, 1), model.NewDate(2026, 11, 1))
	pendingStay.Status = model.BookingPending

	tests := []struct {
		name        string
		maintenance bool
		occupants   []*model.Booking
		want        model.RoomStatus
	}{
		{"empty room", false, nil, model.RoomAvailable},
		{"confirmed stay covering as_of", false, []*model.Booking{inStay}, model.RoomOccupied},
		{"confirmed stay already over", false, []*model.Booking{pastStay}, model.RoomAvailable},
		{"pending never occupies", false, []*model.Booking{pendingStay}, model.RoomAvailable},
		{"maintenance empty", true, nil, model.RoomMaintenance},
		{"maintenance while occupied", true, []*model.Booking{inStay}, model.RoomOccupiedMaintenance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			room := newRoom("a101")
			if err := f.rooms.Create(ctx, room, staff); err != nil {
				t.Fatalf("create failed: %v", err)
			}
			if tt.maintenance {
				if err := f.rooms.SetMaintenance(ctx, room.ID, true, staff); err != nil {
					t.Fatalf("set maintenance failed: %v", err)
				}
			}
			for _, o := range tt.occupants {
				f.bookings.add(room.ID, o)
			}

			got, err := f.rooms.ResolveStatus(ctx, room.ID, asOf)
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAvailability_ListsEveryRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asOf := model.NewDate(2026, 10, 15)

	occupied := newRoom("a101")
	free := newRoom("a102")
	if err := f.rooms.Create(ctx, occupied, staff); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := f.rooms.Create(ctx, free, staff); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	f.bookings.add(occupied.ID, confirmedStay("64b000000000000000000001", model.NewDate(2026, 10, 1), model.NewDate(2026, 11, 1)))

	listing, err := f.rooms.Availability(ctx, testPropertyID, asOf)
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if len(listing) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(listing))
	}

	statuses := map[string]model.RoomStatus{}
	for _, row := range listing {
		statuses[row.RoomID] = row.Status
	}
	if statuses[occupied.ID] != model.RoomOccupied {
		t.Errorf("expected occupied, got %s", statuses[occupied.ID])
	}
	if statuses[free.ID] != model.RoomAvailable {
		t.Errorf("expected available, got %s", statuses[free.ID])
	}
}

func TestAvailability_UnknownProperty(t *testing.T) {
	f := newFixture(t)

	_, err := f.rooms.Availability(context.Background(), "64a0000000000000000000ff", model.Today())
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

// --- Properties ---

func TestPropertyCreate_OwnerAddedToOwnerSet(t *testing.T) {
	f := newFixture(t)

	owner := model.Actor{ID: "owner-2", Role: model.RoleOwner}
	property := &model.Property{
		Name:            "Hillside House",
		Address:         "3 Hillside Lane",
		ElectricityRate: model.MustMoney("7.50"),
		WaterRate:       model.MustMoney("25.00"),
	}
	if err := f.props.Create(context.Background(), property, owner); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !property.OwnedBy("owner-2") {
		t.Errorf("expected creating owner in owner set, got %v", property.OwnerIDs)
	}
}

func TestPropertyCreate_NegativeRateRejected(t *testing.T) {
	f := newFixture(t)

	property := &model.Property{
		Name:            "Hillside House",
		Address:         "3 Hillside Lane",
		ElectricityRate: model.MustMoney("-1.00"),
		WaterRate:       model.MustMoney("25.00"),
		OwnerIDs:        []string{"owner-1"},
	}
	err := f.props.Create(context.Background(), property, staff)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestPropertyDelete_RefusedWithRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.rooms.Create(ctx, newRoom("a101"), staff); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := f.props.Delete(ctx, testPropertyID, staff)
	if !apperrors.IsCode(err, apperrors.CodeStateError) {
		t.Fatalf("expected STATE_ERROR, got %v", err)
	}
}

func TestPropertyUpdate_OwnerMayEditOwn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := model.Actor{ID: "owner-1", Role: model.RoleOwner}
	err := f.props.Update(ctx, testPropertyID, &model.PropertyUpdate{Name: "Riverside House II"}, owner)
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}

	stranger := model.Actor{ID: "owner-9", Role: model.RoleOwner}
	err = f.props.Update(ctx, testPropertyID, &model.PropertyUpdate{Name: "Hijacked"}, stranger)
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN for non-owning owner, got %v", err)
	}
}

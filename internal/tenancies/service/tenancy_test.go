package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "stayd/internal/bookings/errors"
	"stayd/internal/bookings/repository"
	bookingvalidator "stayd/internal/bookings/validator"
	"stayd/pkg/config"
	mongotx "stayd/pkg/db/mongo"
	apperrors "stayd/pkg/errors"
	"stayd/pkg/kafka"
	"stayd/pkg/logger"
	"stayd/pkg/model"
)

const (
	testPropertyID = "64a0000000000000000000aa"
	testRoomID     = "64a0000000000000000000bb"
	testRoom2ID    = "64a0000000000000000000bc"
)

// --- Mocks ---

type mockBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int
}

func newMockBookingRepository() *mockBookingRepository {
	return &mockBookingRepository{bookings: map[string]*model.Booking{}}
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *booking
	cp.ID = fmt.Sprintf("64b%021d", m.nextID)
	cp.CreatedAt = time.Now().UTC()
	m.bookings[cp.ID] = &cp
	booking.ID = cp.ID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	existing.StartDate = booking.StartDate
	existing.EndDate = booking.EndDate
	existing.BillingCycle = booking.BillingCycle
	existing.Status = booking.Status
	existing.TenantID = booking.TenantID
	existing.UpdatedAt = time.Now().UTC()
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookings, id)
	return nil
}

func (m *mockBookingRepository) Search(ctx context.Context, filter repository.SearchFilter, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if filter.TenantID != "" && b.TenantID != filter.TenantID {
			continue
		}
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.PropertyID != "" && b.PropertyID != filter.PropertyID {
			continue
		}
		if filter.Source != "" && b.Source != filter.Source {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if b.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= int64(len(out)) {
		out = nil
	} else if offset > 0 {
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockBookingRepository) CountBySearch(ctx context.Context, filter repository.SearchFilter) (int64, error) {
	found, _ := m.Search(ctx, filter, 0, 0)
	return int64(len(found)), nil
}

func (m *mockBookingRepository) FindActiveByRoom(ctx context.Context, roomID string) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.IsActive() {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.bookings)), nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockRoomReader struct {
	rooms map[string]*model.Room
}

func (m *mockRoomReader) FindByID(ctx context.Context, id string) (*model.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, bookingserrors.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

type mockLockRepository struct {
	mu    sync.Mutex
	locks map[string]*model.RoomLock
}

func newMockLockRepository() *mockLockRepository {
	return &mockLockRepository{locks: map[string]*model.RoomLock{}}
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.RoomLock) (*model.RoomLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[lock.ID]; held {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	m.locks[lock.ID] = lock
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, lockID)
	return nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// --- Fixtures ---

type fixture struct {
	svc      TenancyService
	repo     *mockBookingRepository
	locks    *mockLockRepository
	producer *mockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		RoomLockTTL:        10 * time.Second,
		RoomLockRetryDelay: 1 * time.Millisecond,
		MaxStayDays:        730,
	}

	price := model.MustMoney("450.00")
	rooms := map[string]*model.Room{
		testRoomID: {
			ID:           testRoomID,
			PropertyID:   testPropertyID,
			Code:         "a101",
			Name:         "Room A101",
			PriceMonthly: &price,
			Deposit:      model.MustMoney("450.00"),
		},
		testRoom2ID: {
			ID:           testRoom2ID,
			PropertyID:   testPropertyID,
			Code:         "a102",
			Name:         "Room A102",
			PriceMonthly: &price,
			Deposit:      model.MustMoney("450.00"),
		},
	}

	repo := newMockBookingRepository()
	locks := newMockLockRepository()
	producer := &mockPublisher{}

	svc := NewTenancyService(
		repo,
		&mockRoomReader{rooms: rooms},
		locks,
		bookingvalidator.NewBookingValidator(cfg.Log, cfg.MaxStayDays),
		producer,
		cfg,
	)
	return &fixture{svc: svc, repo: repo, locks: locks, producer: producer}
}

func newAssignment(roomID string, start, end model.Date) *model.Booking {
	return &model.Booking{
		PropertyID:   testPropertyID,
		RoomID:       roomID,
		TenantID:     "tenant-1",
		StartDate:    start,
		EndDate:      end,
		BillingCycle: model.BillingMonthly,
	}
}

var staff = model.Actor{ID: "staff-1", Role: model.RoleStaff}

// --- Assign ---

func TestAssign_ConfirmedOnCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, a, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	got, err := f.svc.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.BookingConfirmed {
		t.Errorf("expected confirmed, got %s", got.Status)
	}
	if got.Source != model.SourceAssignment {
		t.Errorf("expected assignment source, got %s", got.Source)
	}
}

func TestAssign_NonStaffForbidden(t *testing.T) {
	f := newFixture(t)

	a := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	tenant := model.Actor{ID: "tenant-1", Role: model.RoleTenant}
	err := f.svc.Assign(context.Background(), a, tenant)
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestAssign_ConflictLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, first, staff); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}

	second := newAssignment(testRoomID, model.NewDate(2026, 12, 1), model.NewDate(2027, 6, 1))
	second.TenantID = "tenant-2"
	err := f.svc.Assign(ctx, second, staff)
	if !apperrors.IsCode(err, apperrors.CodeRoomConflict) {
		t.Fatalf("expected ROOM_CONFLICT, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Details["conflicting_id"] != first.ID {
		t.Errorf("expected conflicting_id %s, got %v", first.ID, appErr.Details["conflicting_id"])
	}

	count, _ := f.repo.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 stored booking after rejected assign, got %d", count)
	}
	if len(f.locks.locks) != 0 {
		t.Errorf("expected lock released, still holding %d", len(f.locks.locks))
	}
}

func TestAssign_ReplacesTenantsCurrentRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, first, staff); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}

	// Same tenant, same property, different room: the old assignment goes.
	second := newAssignment(testRoom2ID, model.NewDate(2026, 11, 1), model.NewDate(2027, 5, 1))
	if err := f.svc.Assign(ctx, second, staff); err != nil {
		t.Fatalf("second assign failed: %v", err)
	}

	old, err := f.repo.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("old lookup failed: %v", err)
	}
	if old.Status != model.BookingCancelled {
		t.Errorf("expected first assignment cancelled, got %s", old.Status)
	}

	got, err := f.svc.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.RoomID != testRoom2ID || got.Status != model.BookingConfirmed {
		t.Errorf("expected confirmed assignment on second room, got status=%s room=%s", got.Status, got.RoomID)
	}
}

func TestAssign_FailedReplacementKeepsCurrentRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	current := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, current, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	blocker := newAssignment(testRoom2ID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	blocker.TenantID = "tenant-2"
	if err := f.svc.Assign(ctx, blocker, staff); err != nil {
		t.Fatalf("blocker assign failed: %v", err)
	}

	// Moving tenant-1 onto the blocked room must fail and leave the
	// original assignment alone.
	moved := newAssignment(testRoom2ID, model.NewDate(2026, 11, 1), model.NewDate(2027, 5, 1))
	err := f.svc.Assign(ctx, moved, staff)
	if !apperrors.IsCode(err, apperrors.CodeRoomConflict) {
		t.Fatalf("expected ROOM_CONFLICT, got %v", err)
	}

	kept, err := f.svc.GetByID(ctx, current.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if kept.Status != model.BookingConfirmed || kept.RoomID != testRoomID {
		t.Errorf("expected original assignment intact, got status=%s room=%s", kept.Status, kept.RoomID)
	}
}

func TestAssign_ReplacementUnaffectedByBookingHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A tenant with more confirmed booking requests than one result page
	// must still have their current assignment found and replaced.
	for i := 0; i < config.DefaultPaginationLimit; i++ {
		req := &model.Booking{
			PropertyID:   testPropertyID,
			RoomID:       fmt.Sprintf("64c%021d", i),
			TenantID:     "tenant-1",
			StartDate:    model.NewDate(2020, 1, 1),
			EndDate:      model.NewDate(2020, 7, 1),
			BillingCycle: model.BillingMonthly,
			Status:       model.BookingConfirmed,
			Source:       model.SourceRequest,
		}
		if err := f.repo.Create(ctx, req); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	first := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, first, staff); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	second := newAssignment(testRoom2ID, model.NewDate(2026, 11, 1), model.NewDate(2027, 5, 1))
	if err := f.svc.Assign(ctx, second, staff); err != nil {
		t.Fatalf("second assign failed: %v", err)
	}

	old, err := f.repo.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("old lookup failed: %v", err)
	}
	if old.Status != model.BookingCancelled {
		t.Errorf("expected first assignment cancelled, got %s", old.Status)
	}
}

func TestAssign_ExplicitPendingKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	current := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, current, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	held := newAssignment(testRoom2ID, model.NewDate(2026, 11, 1), model.NewDate(2027, 5, 1))
	held.Status = model.BookingPending
	if err := f.svc.Assign(ctx, held, staff); err != nil {
		t.Fatalf("pending assign failed: %v", err)
	}

	got, err := f.svc.GetByID(ctx, held.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.BookingPending {
		t.Errorf("expected pending, got %s", got.Status)
	}

	// A soft hold does not displace the tenant's current room.
	kept, err := f.svc.GetByID(ctx, current.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if kept.Status != model.BookingConfirmed {
		t.Errorf("expected current assignment untouched, got %s", kept.Status)
	}
}

func TestAssign_PendingBlockedByConfirmedOccupant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	occupant := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	occupant.TenantID = "tenant-2"
	if err := f.svc.Assign(ctx, occupant, staff); err != nil {
		t.Fatalf("occupant assign failed: %v", err)
	}

	held := newAssignment(testRoomID, model.NewDate(2026, 12, 1), model.NewDate(2027, 6, 1))
	held.Status = model.BookingPending
	err := f.svc.Assign(ctx, held, staff)
	if !apperrors.IsCode(err, apperrors.CodeRoomUnavailable) {
		t.Fatalf("expected ROOM_UNAVAILABLE, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Details["conflicting_id"] != occupant.ID {
		t.Errorf("expected conflicting_id %s, got %v", occupant.ID, appErr.Details["conflicting_id"])
	}
}

func TestAssign_TerminalStatusRejected(t *testing.T) {
	f := newFixture(t)

	a := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	a.Status = model.BookingCancelled
	err := f.svc.Assign(context.Background(), a, staff)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

// --- Reassign ---

func TestReassign_MovesAtomically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, a, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	replacement, err := f.svc.Reassign(ctx, a.ID, &ReassignRequest{RoomID: testRoom2ID}, staff)
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if replacement.RoomID != testRoom2ID {
		t.Errorf("expected new room %s, got %s", testRoom2ID, replacement.RoomID)
	}
	if replacement.ID == a.ID {
		t.Error("expected replacement to get a fresh ID")
	}
	if replacement.Status != model.BookingConfirmed {
		t.Errorf("expected replacement confirmed, got %s", replacement.Status)
	}

	old, err := f.repo.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("old lookup failed: %v", err)
	}
	if old.Status != model.BookingCancelled {
		t.Errorf("expected old assignment cancelled, got %s", old.Status)
	}
}

func TestReassign_ConflictChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	moving := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, moving, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	blocker := newAssignment(testRoom2ID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	blocker.TenantID = "tenant-2"
	if err := f.svc.Assign(ctx, blocker, staff); err != nil {
		t.Fatalf("blocker assign failed: %v", err)
	}

	_, err := f.svc.Reassign(ctx, moving.ID, &ReassignRequest{RoomID: testRoom2ID}, staff)
	if !apperrors.IsCode(err, apperrors.CodeRoomConflict) {
		t.Fatalf("expected ROOM_CONFLICT, got %v", err)
	}

	// The original tenancy still holds its room.
	got, err := f.svc.GetByID(ctx, moving.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.BookingConfirmed || got.RoomID != testRoomID {
		t.Errorf("expected original assignment untouched, got status=%s room=%s", got.Status, got.RoomID)
	}
	count, _ := f.repo.Count(ctx)
	if count != 2 {
		t.Errorf("expected no new booking after failed reassign, got %d", count)
	}
}

func TestReassign_TerminalIsStateError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, a, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := f.svc.Unassign(ctx, a.ID, staff); err != nil {
		t.Fatalf("unassign failed: %v", err)
	}

	_, err := f.svc.Reassign(ctx, a.ID, &ReassignRequest{RoomID: testRoom2ID}, staff)
	if !apperrors.IsCode(err, apperrors.CodeStateError) {
		t.Fatalf("expected STATE_ERROR, got %v", err)
	}
}

// --- Unassign ---

func TestUnassign_FreesRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, a, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := f.svc.Unassign(ctx, a.ID, staff); err != nil {
		t.Fatalf("unassign failed: %v", err)
	}

	next := newAssignment(testRoomID, model.NewDate(2026, 11, 1), model.NewDate(2027, 5, 1))
	next.TenantID = "tenant-2"
	if err := f.svc.Assign(ctx, next, staff); err != nil {
		t.Fatalf("range should be free after unassign, got %v", err)
	}
}

// --- GetByID and ListByTenant ---

func TestGetByID_FiltersBookingRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A tenant's booking request lives in the same collection but is not
	// a tenancy.
	request := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	request.Status = model.BookingPending
	request.Source = model.SourceRequest
	if err := f.repo.Create(ctx, request); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := f.svc.GetByID(ctx, request.ID)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for a booking request, got %v", err)
	}
}

func TestListByTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := newAssignment(testRoomID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	if err := f.svc.Assign(ctx, a, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	b := newAssignment(testRoom2ID, model.NewDate(2026, 10, 1), model.NewDate(2027, 4, 1))
	b.TenantID = "tenant-2"
	if err := f.svc.Assign(ctx, b, staff); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	got, count, err := f.svc.ListByTenant(ctx, "tenant-1", 100, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if count != 1 || len(got) != 1 {
		t.Fatalf("expected exactly one tenancy for tenant-1, got count=%d len=%d", count, len(got))
	}
	if got[0].ID != a.ID {
		t.Errorf("expected %s, got %s", a.ID, got[0].ID)
	}
}

func TestListByTenant_EmptyID(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.ListByTenant(context.Background(), "", 100, 0)
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

package bed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/apperr"
)

// -- Mock Repository --

// mockRepo emulates the partial unique index on active holding
// allocations for (bed_number, room_number).
type mockRepo struct {
	allocations map[uuid.UUID]*Allocation
}

func newMockRepo() *mockRepo {
	return &mockRepo{allocations: make(map[uuid.UUID]*Allocation)}
}

func (m *mockRepo) bedHeld(a *Allocation) bool {
	if !a.IsActive || !a.Status.Holding() {
		return false
	}
	for _, other := range m.allocations {
		if other.ID != a.ID && other.BedNumber == a.BedNumber && other.RoomNumber == a.RoomNumber &&
			other.IsActive && other.Status.Holding() {
			return true
		}
	}
	return false
}

func (m *mockRepo) Create(_ context.Context, a *Allocation) error {
	a.ID = uuid.New()
	if m.bedHeld(a) {
		return &pgconn.PgError{Code: "23505", ConstraintName: "uq_bed_active"}
	}
	a.AllocatedAt = time.Now()
	cp := *a
	m.allocations[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Allocation, error) {
	a, ok := m.allocations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Allocation) error {
	if m.bedHeld(a) {
		return &pgconn.PgError{Code: "23505", ConstraintName: "uq_bed_active"}
	}
	cp := *a
	m.allocations[a.ID] = &cp
	return nil
}

func (m *mockRepo) ListActive(_ context.Context, limit, offset int) ([]*Allocation, int, error) {
	var result []*Allocation
	for _, a := range m.allocations {
		if a.IsActive {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Allocation, int, error) {
	var result []*Allocation
	for _, a := range m.allocations {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) Stats(_ context.Context) (*Stats, error) {
	var s Stats
	for _, a := range m.allocations {
		if !a.IsActive {
			continue
		}
		switch a.Status {
		case StatusOccupied:
			s.Occupied++
		case StatusReserved:
			s.Reserved++
		case StatusMaintenance:
			s.Maintenance++
		}
		s.Total++
	}
	return &s, nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, passthroughTx, zerolog.Nop()), repo
}

func allocate(t *testing.T, svc *Service, bed, room string) *Allocation {
	t.Helper()
	a, err := svc.Allocate(context.Background(), &AllocateRequest{
		PatientID: uuid.New(), BedNumber: bed, RoomNumber: room, RoomType: "general", Floor: "1",
	})
	if err != nil {
		t.Fatalf("allocate %s/%s: %v", bed, room, err)
	}
	return a
}

func TestAllocateReleaseReallocate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first := allocate(t, svc, "B1", "101")
	if first.Status != StatusOccupied || !first.IsActive {
		t.Errorf("got status=%s active=%v", first.Status, first.IsActive)
	}

	// The same bed cannot be taken twice.
	_, err := svc.Allocate(ctx, &AllocateRequest{PatientID: uuid.New(), BedNumber: "B1", RoomNumber: "101"})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("double allocate: expected conflict, got %v", err)
	}

	released, err := svc.Release(ctx, first.ID, &ReleaseRequest{DischargeNotes: "discharged home"})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.IsActive || released.Status != StatusAvailable || released.DischargedAt == nil {
		t.Errorf("release left allocation in %s active=%v", released.Status, released.IsActive)
	}
	if released.DischargeNotes != "discharged home" {
		t.Errorf("notes %q", released.DischargeNotes)
	}

	// Release frees the bed for the next patient.
	allocate(t, svc, "B1", "101")
}

func TestAllocate_SameBedNumberDifferentRoom(t *testing.T) {
	svc, _ := newTestService()
	allocate(t, svc, "B1", "101")
	allocate(t, svc, "B1", "102")
}

func TestAllocate_Reserve(t *testing.T) {
	svc, _ := newTestService()
	a, err := svc.Allocate(context.Background(), &AllocateRequest{
		PatientID: uuid.New(), BedNumber: "B2", RoomNumber: "101", Reserve: true,
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if a.Status != StatusReserved {
		t.Errorf("status %s, want reserved", a.Status)
	}

	// A reservation holds the bed just like an occupation.
	_, err = svc.Allocate(context.Background(), &AllocateRequest{PatientID: uuid.New(), BedNumber: "B2", RoomNumber: "101"})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestAllocate_Validation(t *testing.T) {
	svc, _ := newTestService()
	cases := []*AllocateRequest{
		{BedNumber: "B1", RoomNumber: "101"},
		{PatientID: uuid.New(), RoomNumber: "101"},
		{PatientID: uuid.New(), BedNumber: "B1"},
	}
	for i, req := range cases {
		if _, err := svc.Allocate(context.Background(), req); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestRelease_Guards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Release(ctx, uuid.New(), &ReleaseRequest{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown id: expected not found, got %v", err)
	}

	a := allocate(t, svc, "B1", "101")
	if _, err := svc.Release(ctx, a.ID, &ReleaseRequest{}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := svc.Release(ctx, a.ID, &ReleaseRequest{}); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("double release: expected conflict, got %v", err)
	}
}

func TestRelease_ToMaintenance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := allocate(t, svc, "B1", "101")
	down, err := svc.Release(ctx, a.ID, &ReleaseRequest{Maintenance: true, DischargeNotes: "deep clean"})
	if err != nil {
		t.Fatalf("release to maintenance: %v", err)
	}
	if down.Status != StatusMaintenance || !down.IsActive || down.DischargedAt == nil {
		t.Errorf("got status=%s active=%v", down.Status, down.IsActive)
	}

	// The bed stays blocked while out of service.
	_, err = svc.Allocate(ctx, &AllocateRequest{PatientID: uuid.New(), BedNumber: "B1", RoomNumber: "101"})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("allocate during maintenance: expected conflict, got %v", err)
	}

	stats, err := svc.OccupancyStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Maintenance != 1 {
		t.Errorf("maintenance count %d, want 1", stats.Maintenance)
	}

	// A second release returns the bed to service.
	back, err := svc.Release(ctx, a.ID, &ReleaseRequest{})
	if err != nil {
		t.Fatalf("release from maintenance: %v", err)
	}
	if back.Status != StatusAvailable || back.IsActive {
		t.Errorf("got status=%s active=%v", back.Status, back.IsActive)
	}
	allocate(t, svc, "B1", "101")
}

func TestTransfer(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	src := allocate(t, svc, "B1", "101")
	dst, err := svc.Transfer(ctx, src.ID, &TransferRequest{BedNumber: "B2", RoomNumber: "102", Notes: "isolation"})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if dst.BedNumber != "B2" || dst.RoomNumber != "102" || !dst.IsActive {
		t.Errorf("target allocation %+v", dst)
	}
	if dst.PatientID != src.PatientID {
		t.Error("transfer changed patient")
	}

	released, _ := repo.GetByID(ctx, src.ID)
	if released.IsActive {
		t.Error("source allocation still active after transfer")
	}

	// The old bed is free again.
	allocate(t, svc, "B1", "101")
}

func TestTransfer_TargetOccupied(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	src := allocate(t, svc, "B1", "101")
	allocate(t, svc, "B2", "102")

	_, err := svc.Transfer(ctx, src.ID, &TransferRequest{BedNumber: "B2", RoomNumber: "102"})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// With a real transaction the source release rolls back; the mock
	// runner has no rollback, so only assert the conflict here and the
	// source row's fate under TestTransfer.
	if _, err := repo.GetByID(ctx, src.ID); err != nil {
		t.Fatalf("source allocation lost: %v", err)
	}
}

func TestOccupancyStats(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	allocate(t, svc, "B1", "101")
	allocate(t, svc, "B2", "101")
	if _, err := svc.Allocate(ctx, &AllocateRequest{PatientID: uuid.New(), BedNumber: "B3", RoomNumber: "102", Reserve: true}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	a := allocate(t, svc, "B4", "102")
	if _, err := svc.Release(ctx, a.ID, &ReleaseRequest{}); err != nil {
		t.Fatalf("release: %v", err)
	}

	stats, err := svc.OccupancyStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Occupied != 2 || stats.Reserved != 1 || stats.Total != 3 {
		t.Errorf("stats %+v", stats)
	}
}

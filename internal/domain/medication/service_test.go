package medication

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	schedules map[uuid.UUID]*Schedule
}

func newMockRepo() *mockRepo {
	return &mockRepo{schedules: make(map[uuid.UUID]*Schedule)}
}

func (m *mockRepo) Create(_ context.Context, s *Schedule) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, s *Schedule) error {
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var result []*Schedule
	for _, s := range m.schedules {
		if s.PatientID == patientID {
			result = append(result, s)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListActive(_ context.Context, limit, offset int) ([]*Schedule, int, error) {
	var result []*Schedule
	for _, s := range m.schedules {
		if s.Status == StatusActive {
			result = append(result, s)
		}
	}
	return result, len(result), nil
}

func newTestService(t *testing.T, now time.Time) (*Service, *clockStub) {
	t.Helper()
	stub := &clockStub{now: now}
	svc := NewService(newMockRepo(), zerolog.Nop())
	svc.now = stub.Now
	return svc, stub
}

type clockStub struct{ now time.Time }

func (c *clockStub) Now() time.Time  { return c.now }
func (c *clockStub) Set(t time.Time) { c.now = t }

func TestCreateComputesInitialNextDose(t *testing.T) {
	svc, _ := newTestService(t, at(t, "2026-06-01", "07:00"))
	sched, err := svc.Create(context.Background(), &CreateRequest{
		PatientID:      uuid.New(),
		MedicationName: "amoxicillin",
		Dosage:         "500mg",
		Times:          []string{"20:00", "8:0"},
		StartDate:      "2026-06-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sched.Status != StatusActive {
		t.Errorf("status %s", sched.Status)
	}
	if len(sched.Times) != 2 || sched.Times[0] != "08:00" {
		t.Errorf("times not normalized/sorted: %v", sched.Times)
	}
	if sched.NextDoseTime == nil || !sched.NextDoseTime.Equal(at(t, "2026-06-01", "08:00")) {
		t.Errorf("next dose %v, want 2026-06-01 08:00", sched.NextDoseTime)
	}
}

func TestCreate_WindowAlreadyOver(t *testing.T) {
	svc, _ := newTestService(t, at(t, "2026-06-10", "12:00"))
	sched, err := svc.Create(context.Background(), &CreateRequest{
		PatientID:      uuid.New(),
		MedicationName: "amoxicillin",
		Dosage:         "500mg",
		Times:          []string{"08:00"},
		StartDate:      "2026-06-01",
		EndDate:        "2026-06-05",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sched.Status != StatusCompleted || sched.NextDoseTime != nil {
		t.Errorf("got status=%s next=%v", sched.Status, sched.NextDoseTime)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t, at(t, "2026-06-01", "07:00"))
	cases := []*CreateRequest{
		{MedicationName: "x", Dosage: "1", Times: []string{"08:00"}, StartDate: "2026-06-01"},
		{PatientID: uuid.New(), Dosage: "1", Times: []string{"08:00"}, StartDate: "2026-06-01"},
		{PatientID: uuid.New(), MedicationName: "x", Times: []string{"08:00"}, StartDate: "2026-06-01"},
		{PatientID: uuid.New(), MedicationName: "x", Dosage: "1", StartDate: "2026-06-01"},
		{PatientID: uuid.New(), MedicationName: "x", Dosage: "1", Times: []string{"25:00"}, StartDate: "2026-06-01"},
		{PatientID: uuid.New(), MedicationName: "x", Dosage: "1", Times: []string{"08:00"}, StartDate: "bad"},
		{PatientID: uuid.New(), MedicationName: "x", Dosage: "1", Times: []string{"08:00"}, StartDate: "2026-06-02", EndDate: "2026-06-01"},
	}
	for i, req := range cases {
		if _, err := svc.Create(context.Background(), req); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestMarkAdministered_AdvancesAndRollsOver(t *testing.T) {
	svc, clk := newTestService(t, at(t, "2026-06-01", "07:00"))
	ctx := context.Background()
	sched, err := svc.Create(ctx, &CreateRequest{
		PatientID:      uuid.New(),
		MedicationName: "amoxicillin",
		Dosage:         "500mg",
		Times:          []string{"08:00", "20:00"},
		StartDate:      "2026-06-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clk.Set(at(t, "2026-06-01", "08:05"))
	sched, err = svc.MarkAdministered(ctx, sched.ID, &AdministerRequest{Notes: "taken with food"})
	if err != nil {
		t.Fatalf("administer: %v", err)
	}
	if sched.NextDoseTime == nil || !sched.NextDoseTime.Equal(at(t, "2026-06-01", "20:00")) {
		t.Errorf("next dose %v, want today 20:00", sched.NextDoseTime)
	}
	if sched.LastAdministered == nil || !sched.NextDoseTime.After(*sched.LastAdministered) {
		t.Error("next dose must be strictly after last administration")
	}
	if sched.Notes != "taken with food" {
		t.Errorf("notes %q", sched.Notes)
	}

	clk.Set(at(t, "2026-06-01", "20:10"))
	sched, err = svc.MarkAdministered(ctx, sched.ID, &AdministerRequest{})
	if err != nil {
		t.Fatalf("administer: %v", err)
	}
	if sched.NextDoseTime == nil || !sched.NextDoseTime.Equal(at(t, "2026-06-02", "08:00")) {
		t.Errorf("next dose %v, want tomorrow 08:00", sched.NextDoseTime)
	}
}

func TestMarkAdministered_CompletesAtEndDate(t *testing.T) {
	svc, clk := newTestService(t, at(t, "2026-06-01", "07:00"))
	ctx := context.Background()
	sched, err := svc.Create(ctx, &CreateRequest{
		PatientID:      uuid.New(),
		MedicationName: "amoxicillin",
		Dosage:         "500mg",
		Times:          []string{"08:00"},
		StartDate:      "2026-06-01",
		EndDate:        "2026-06-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clk.Set(at(t, "2026-06-01", "08:05"))
	sched, err = svc.MarkAdministered(ctx, sched.ID, &AdministerRequest{})
	if err != nil {
		t.Fatalf("administer: %v", err)
	}
	if sched.Status != StatusCompleted || sched.NextDoseTime != nil {
		t.Errorf("got status=%s next=%v", sched.Status, sched.NextDoseTime)
	}

	if _, err := svc.MarkAdministered(ctx, sched.ID, &AdministerRequest{}); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("administer after completion: expected conflict, got %v", err)
	}
}

func TestStopAndMissed(t *testing.T) {
	svc, clk := newTestService(t, at(t, "2026-06-01", "07:00"))
	ctx := context.Background()
	sched, err := svc.Create(ctx, &CreateRequest{
		PatientID:      uuid.New(),
		MedicationName: "amoxicillin",
		Dosage:         "500mg",
		Times:          []string{"08:00", "20:00"},
		StartDate:      "2026-06-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	missed, err := svc.MarkMissed(ctx, sched.ID)
	if err != nil {
		t.Fatalf("miss: %v", err)
	}
	if missed.Status != StatusMissed {
		t.Errorf("status %s", missed.Status)
	}

	// Administering a missed schedule reactivates it.
	clk.Set(at(t, "2026-06-01", "08:05"))
	reactivated, err := svc.MarkAdministered(ctx, sched.ID, &AdministerRequest{})
	if err != nil {
		t.Fatalf("administer: %v", err)
	}
	if reactivated.Status != StatusActive {
		t.Errorf("status %s, want active", reactivated.Status)
	}

	stopped, err := svc.Stop(ctx, sched.ID)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.Status != StatusStopped || stopped.NextDoseTime != nil {
		t.Errorf("got status=%s next=%v", stopped.Status, stopped.NextDoseTime)
	}
	if _, err := svc.Stop(ctx, sched.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("double stop: expected conflict, got %v", err)
	}
	if _, err := svc.MarkAdministered(ctx, sched.ID, &AdministerRequest{}); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("administer after stop: expected conflict, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t, time.Now())
	if _, err := svc.Get(context.Background(), uuid.New()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

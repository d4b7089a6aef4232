package bed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

// -- Mock Repositories --

type mockBedRepo struct {
	beds   map[string]*Bed
	nextID int64
}

func newMockBedRepo() *mockBedRepo {
	return &mockBedRepo{beds: make(map[string]*Bed), nextID: 1}
}

func (m *mockBedRepo) add(bedNumber string) *Bed {
	b := &Bed{
		ID:        m.nextID,
		BedNumber: bedNumber,
		Zone:      ZoneFor(bedNumber),
		Status:    StatusAvailable,
		UpdatedAt: time.Now(),
	}
	m.nextID++
	m.beds[bedNumber] = b
	return b
}

func (m *mockBedRepo) GetByNumber(_ context.Context, bedNumber string) (*Bed, error) {
	b, ok := m.beds[bedNumber]
	if !ok {
		return nil, ErrBedNotFound
	}
	copy := *b
	return &copy, nil
}

func (m *mockBedRepo) List(_ context.Context) ([]*View, error) {
	var views []*View
	for _, b := range m.beds {
		views = append(views, &View{Bed: *b, Label: LabelFor(b.BedNumber)})
	}
	return views, nil
}

func (m *mockBedRepo) Stats(_ context.Context) (*Stats, error) {
	s := &Stats{}
	for _, b := range m.beds {
		switch b.Status {
		case StatusAvailable:
			s.Available++
		case StatusOccupied:
			s.Occupied++
		}
	}
	return s, nil
}

func (m *mockBedRepo) SetESI(_ context.Context, bedNumber string, esiLevel int) error {
	b, ok := m.beds[bedNumber]
	if !ok {
		return ErrBedNotFound
	}
	b.ESILevel = &esiLevel
	return nil
}

func (m *mockBedRepo) Occupy(_ context.Context, bedNumber string, patientID int64, esiLevel *int) (bool, error) {
	b, ok := m.beds[bedNumber]
	if !ok {
		return false, ErrBedNotFound
	}
	if b.Status != StatusAvailable {
		return false, nil
	}
	now := time.Now()
	b.Status = StatusOccupied
	b.PatientID = &patientID
	b.ESILevel = esiLevel
	b.AdmittedAt = &now
	return true, nil
}

func (m *mockBedRepo) Clear(_ context.Context, bedNumber string) (bool, error) {
	b, ok := m.beds[bedNumber]
	if !ok {
		return false, ErrBedNotFound
	}
	if b.Status != StatusOccupied {
		return false, nil
	}
	b.Status = StatusAvailable
	b.PatientID = nil
	b.ESILevel = nil
	b.AdmittedAt = nil
	return true, nil
}

type mockHistoryRepo struct {
	entries []*HistoryEntry
	nextID  int64
}

func newMockHistoryRepo() *mockHistoryRepo { return &mockHistoryRepo{nextID: 1} }

func (m *mockHistoryRepo) Insert(_ context.Context, h *HistoryEntry) error {
	h.ID = m.nextID
	m.nextID++
	now := time.Now()
	h.AdmissionTime = now
	h.PerformedAt = now
	copy := *h
	m.entries = append(m.entries, &copy)
	return nil
}

func (m *mockHistoryRepo) GetOpen(_ context.Context, patientID, bedID int64) (*HistoryEntry, error) {
	for _, e := range m.entries {
		if e.PatientID == patientID && e.BedID == bedID && e.DischargeTime == nil {
			copy := *e
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *mockHistoryRepo) UpdateOpenESI(_ context.Context, patientID, bedID int64, esiLevel int) error {
	for _, e := range m.entries {
		if e.PatientID == patientID && e.BedID == bedID && e.DischargeTime == nil {
			level := esiLevel
			e.ESILevel = &level
		}
	}
	return nil
}

func (m *mockHistoryRepo) UpdateOpenStatus(_ context.Context, patientID, bedID int64, deliveryStatus string, otherSymptoms *string) error {
	for _, e := range m.entries {
		if e.PatientID == patientID && e.BedID == bedID && e.DischargeTime == nil {
			ds := deliveryStatus
			e.DeliveryStatus = &ds
			e.OtherSymptoms = otherSymptoms
		}
	}
	return nil
}

func (m *mockHistoryRepo) CloseOpen(_ context.Context, patientID, bedID int64, deliveryStatus string) error {
	for _, e := range m.entries {
		if e.PatientID == patientID && e.BedID == bedID && e.DischargeTime == nil {
			now := time.Now()
			e.DischargeTime = &now
			ds := deliveryStatus
			e.DeliveryStatus = &ds
		}
	}
	return nil
}

func (m *mockHistoryRepo) CloseOpenTransferred(_ context.Context, patientID, bedID int64) error {
	for _, e := range m.entries {
		if e.PatientID == patientID && e.BedID == bedID && e.DischargeTime == nil {
			now := time.Now()
			e.DischargeTime = &now
			prev := ""
			if e.DeliveryStatus != nil {
				prev = *e.DeliveryStatus
			}
			closed := prev + TransferredSuffix
			e.DeliveryStatus = &closed
		}
	}
	return nil
}

func (m *mockHistoryRepo) ListByBed(_ context.Context, bedID int64, limit, offset int) ([]*HistoryEntry, int, error) {
	var items []*HistoryEntry
	for _, e := range m.entries {
		if e.BedID == bedID {
			items = append(items, e)
		}
	}
	return items, len(items), nil
}

func (m *mockHistoryRepo) openFor(patientID int64) []*HistoryEntry {
	var open []*HistoryEntry
	for _, e := range m.entries {
		if e.PatientID == patientID && e.DischargeTime == nil {
			open = append(open, e)
		}
	}
	return open
}

type mockResolver struct {
	byHN map[string]int64
}

func (m *mockResolver) ResolveHN(_ context.Context, hn string) (int64, error) {
	id, ok := m.byHN[hn]
	if !ok {
		return 0, ErrPatientNotFound
	}
	return id, nil
}

// rollbackTx snapshots the mock stores before fn and restores them when fn
// fails, mirroring the rollback semantics of a real transaction.
func rollbackTx(beds *mockBedRepo, history *mockHistoryRepo) TxFunc {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		bedSnap := make(map[string]*Bed, len(beds.beds))
		for k, v := range beds.beds {
			copy := *v
			bedSnap[k] = &copy
		}
		histSnap := make([]*HistoryEntry, len(history.entries))
		for i, e := range history.entries {
			copy := *e
			histSnap[i] = &copy
		}
		histNext := history.nextID

		if err := fn(ctx); err != nil {
			beds.beds = bedSnap
			history.entries = histSnap
			history.nextID = histNext
			return err
		}
		return nil
	}
}

// -- Fixtures --

type fixture struct {
	svc     *Service
	beds    *mockBedRepo
	history *mockHistoryRepo
}

func newFixture() *fixture {
	beds := newMockBedRepo()
	for i := FirstBedNumber; i <= LastBedNumber; i++ {
		beds.add(strconv.Itoa(i))
	}
	history := newMockHistoryRepo()
	resolver := &mockResolver{byHN: map[string]int64{
		"0000007": 7,
		"0000008": 8,
	}}
	svc := NewService(beds, history, resolver, rollbackTx(beds, history))
	return &fixture{svc: svc, beds: beds, history: history}
}

func (f *fixture) mustAdmit(t *testing.T, bedNumber, hn string) {
	t.Helper()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionScanBarcode, BedNumber: bedNumber, HN: hn})
	if err != nil {
		t.Fatalf("admit to bed %s failed: %v", bedNumber, err)
	}
}

// checkBedInvariant verifies status=occupied iff patient_id set, and that
// available beds carry no residual patient data.
func (f *fixture) checkBedInvariant(t *testing.T) {
	t.Helper()
	for _, b := range f.beds.beds {
		occupied := b.Status == StatusOccupied
		if occupied != (b.PatientID != nil) {
			t.Errorf("bed %s: status %s but patient_id=%v", b.BedNumber, b.Status, b.PatientID)
		}
		if b.Status == StatusAvailable && (b.ESILevel != nil || b.AdmittedAt != nil) {
			t.Errorf("bed %s: available but carries esi/admitted_at", b.BedNumber)
		}
	}
}

// -- Admit --

func TestAdmit(t *testing.T) {
	f := newFixture()
	msg, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionScanBarcode, BedNumber: "5", HN: "0000007"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == "" {
		t.Error("expected confirmation message")
	}

	b := f.beds.beds["5"]
	if b.Status != StatusOccupied {
		t.Errorf("expected bed 5 occupied, got %s", b.Status)
	}
	if b.PatientID == nil || *b.PatientID != 7 {
		t.Errorf("expected patient 7 in bed 5, got %v", b.PatientID)
	}
	if b.AdmittedAt == nil {
		t.Error("expected admitted_at to be set")
	}

	open := f.history.openFor(7)
	if len(open) != 1 {
		t.Fatalf("expected exactly one open episode, got %d", len(open))
	}
	if open[0].Action != HistoryAdmit {
		t.Errorf("expected action %q, got %q", HistoryAdmit, open[0].Action)
	}
	if open[0].DeliveryStatus == nil || *open[0].DeliveryStatus != string(DeliveryPendingExam) {
		t.Errorf("expected default delivery status %q, got %v", DeliveryPendingExam, open[0].DeliveryStatus)
	}
	f.checkBedInvariant(t)
}

func TestAdmit_UnknownBed(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionScanBarcode, BedNumber: "99", HN: "0000007"})
	if !errors.Is(err, ErrBedNotFound) {
		t.Errorf("expected ErrBedNotFound, got %v", err)
	}
}

func TestAdmit_UnknownPatient(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionScanBarcode, BedNumber: "5", HN: "9999999"})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestAdmit_MissingHN(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionScanBarcode, BedNumber: "5"})
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestAdmit_TwiceConflicts(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionScanBarcode, BedNumber: "5", HN: "0000008"})
	if !errors.Is(err, ErrBedOccupied) {
		t.Fatalf("expected ErrBedOccupied, got %v", err)
	}
	// First occupant must not be overwritten.
	if b := f.beds.beds["5"]; b.PatientID == nil || *b.PatientID != 7 {
		t.Errorf("expected patient 7 still in bed 5, got %v", b.PatientID)
	}
	if open := f.history.openFor(8); len(open) != 0 {
		t.Errorf("expected no episode for the rejected admit, got %d", len(open))
	}
}

func TestAdmit_RaceLostAtWrite(t *testing.T) {
	// The validation read sees an available bed but the conditional update
	// finds it taken; the episode insert must be rolled back with it.
	f := newFixture()
	raced := false
	f.svc.inTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
		if !raced {
			raced = true
			f.beds.Occupy(ctx, "5", 8, nil)
		}
		return rollbackTx(f.beds, f.history)(ctx, fn)
	}

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionScanBarcode, BedNumber: "5", HN: "0000007"})
	if !errors.Is(err, ErrBedOccupied) {
		t.Fatalf("expected ErrBedOccupied, got %v", err)
	}
	if open := f.history.openFor(7); len(open) != 0 {
		t.Errorf("expected no episode after lost race, got %d", len(open))
	}
}

// -- Update ESI --

func TestUpdateESI(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	level := 2
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionUpdateESI, BedNumber: "5", ESILevel: &level})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b := f.beds.beds["5"]; b.ESILevel == nil || *b.ESILevel != 2 {
		t.Errorf("expected bed esi 2, got %v", b.ESILevel)
	}
	open := f.history.openFor(7)
	if len(open) != 1 || open[0].ESILevel == nil || *open[0].ESILevel != 2 {
		t.Error("expected open episode esi to follow the bed")
	}
}

func TestUpdateESI_OutOfRange(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	for _, level := range []int{0, 6, -1, 10} {
		l := level
		_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionUpdateESI, BedNumber: "5", ESILevel: &l})
		if !errors.Is(err, ErrInvalidESI) {
			t.Errorf("level %d: expected ErrInvalidESI, got %v", level, err)
		}
	}
	if b := f.beds.beds["5"]; b.ESILevel != nil {
		t.Errorf("expected esi unchanged (nil), got %v", *b.ESILevel)
	}
}

func TestUpdateESI_Missing(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionUpdateESI, BedNumber: "5"})
	if !errors.Is(err, ErrInvalidESI) {
		t.Errorf("expected ErrInvalidESI, got %v", err)
	}
}

func TestUpdateESI_EmptyBedSkipsHistory(t *testing.T) {
	f := newFixture()
	level := 3
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionUpdateESI, BedNumber: "5", ESILevel: &level})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b := f.beds.beds["5"]; b.ESILevel == nil || *b.ESILevel != 3 {
		t.Errorf("expected bed esi 3, got %v", b.ESILevel)
	}
	if len(f.history.entries) != 0 {
		t.Error("expected no history writes for an empty bed")
	}
}

// -- Update Status --

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	status := "กำลังรักษา"
	symptoms := "ปวดท้อง"
	level := 3
	_, err := f.svc.Apply(context.Background(), &ActionRequest{
		Action: ActionUpdateStatus, BedNumber: "5",
		DeliveryStatus: &status, OtherSymptoms: &symptoms, ESILevel: &level,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	open := f.history.openFor(7)
	if len(open) != 1 {
		t.Fatalf("expected one open episode, got %d", len(open))
	}
	e := open[0]
	if e.DeliveryStatus == nil || *e.DeliveryStatus != status {
		t.Errorf("expected delivery status %q, got %v", status, e.DeliveryStatus)
	}
	if e.OtherSymptoms == nil || *e.OtherSymptoms != symptoms {
		t.Errorf("expected symptoms %q, got %v", symptoms, e.OtherSymptoms)
	}
	if e.ESILevel == nil || *e.ESILevel != 3 {
		t.Errorf("expected esi 3 on episode, got %v", e.ESILevel)
	}
	if b := f.beds.beds["5"]; b.ESILevel == nil || *b.ESILevel != 3 {
		t.Errorf("expected esi 3 on bed, got %v", b.ESILevel)
	}
}

func TestUpdateStatus_DefaultsDelivery(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionUpdateStatus, BedNumber: "5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open := f.history.openFor(7)
	if open[0].DeliveryStatus == nil || *open[0].DeliveryStatus != string(DeliveryPendingExam) {
		t.Errorf("expected default delivery status, got %v", open[0].DeliveryStatus)
	}
}

func TestUpdateStatus_EmptyBed(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionUpdateStatus, BedNumber: "5"})
	if !errors.Is(err, ErrBedNotOccupied) {
		t.Errorf("expected ErrBedNotOccupied, got %v", err)
	}
}

func TestUpdateStatus_RejectsOutOfRangeESI(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	status := "กำลังรักษา"
	level := 6
	_, err := f.svc.Apply(context.Background(), &ActionRequest{
		Action: ActionUpdateStatus, BedNumber: "5", DeliveryStatus: &status, ESILevel: &level,
	})
	if !errors.Is(err, ErrInvalidESI) {
		t.Fatalf("expected ErrInvalidESI, got %v", err)
	}
	// Rejected request must not have written anything.
	open := f.history.openFor(7)
	if open[0].DeliveryStatus == nil || *open[0].DeliveryStatus != string(DeliveryPendingExam) {
		t.Errorf("expected delivery status untouched, got %v", open[0].DeliveryStatus)
	}
}

// -- Discharge --

func TestDischarge(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionDischarge, BedNumber: "5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := f.beds.beds["5"]
	if b.Status != StatusAvailable || b.PatientID != nil || b.ESILevel != nil || b.AdmittedAt != nil {
		t.Errorf("expected bed 5 fully cleared, got %+v", b)
	}
	if open := f.history.openFor(7); len(open) != 0 {
		t.Errorf("expected no open episode after discharge, got %d", len(open))
	}
	e := f.history.entries[0]
	if e.DischargeTime == nil {
		t.Error("expected discharge_time set")
	}
	if e.DeliveryStatus == nil || *e.DeliveryStatus != string(DeliveryDischarged) {
		t.Errorf("expected delivery status %q, got %v", DeliveryDischarged, e.DeliveryStatus)
	}
	f.checkBedInvariant(t)
}

func TestDischarge_EmptyBed(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionDischarge, BedNumber: "5"})
	if !errors.Is(err, ErrBedNotOccupied) {
		t.Errorf("expected ErrBedNotOccupied, got %v", err)
	}
}

// -- Transfer --

func TestTransfer(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	status := "รอผลตรวจ"
	symptoms := "เวียนหัว"
	level := 2
	if _, err := f.svc.Apply(context.Background(), &ActionRequest{
		Action: ActionUpdateStatus, BedNumber: "5", DeliveryStatus: &status, OtherSymptoms: &symptoms, ESILevel: &level,
	}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionTransfer, BedNumber: "5", TargetBedNumber: "9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := f.beds.beds["5"]
	if src.Status != StatusAvailable || src.PatientID != nil {
		t.Errorf("expected source cleared, got %+v", src)
	}
	dst := f.beds.beds["9"]
	if dst.Status != StatusOccupied || dst.PatientID == nil || *dst.PatientID != 7 {
		t.Errorf("expected patient 7 at target, got %+v", dst)
	}
	if dst.ESILevel == nil || *dst.ESILevel != 2 {
		t.Errorf("expected esi carried to target bed, got %v", dst.ESILevel)
	}

	open := f.history.openFor(7)
	if len(open) != 1 {
		t.Fatalf("expected exactly one open episode after transfer, got %d", len(open))
	}
	e := open[0]
	if e.BedID != dst.ID {
		t.Errorf("expected open episode at target bed %d, got %d", dst.ID, e.BedID)
	}
	if e.Action != HistoryTransferIn {
		t.Errorf("expected action %q, got %q", HistoryTransferIn, e.Action)
	}
	if e.DeliveryStatus == nil || *e.DeliveryStatus != status {
		t.Errorf("expected delivery status carried over, got %v", e.DeliveryStatus)
	}
	if e.OtherSymptoms == nil || *e.OtherSymptoms != symptoms {
		t.Errorf("expected symptoms carried over, got %v", e.OtherSymptoms)
	}
	if e.ESILevel == nil || *e.ESILevel != 2 {
		t.Errorf("expected esi carried over, got %v", e.ESILevel)
	}

	// The source episode is closed with the transfer marker appended.
	var closed *HistoryEntry
	for _, h := range f.history.entries {
		if h.BedID == src.ID && h.DischargeTime != nil {
			closed = h
		}
	}
	if closed == nil {
		t.Fatal("expected closed source episode")
	}
	if closed.DeliveryStatus == nil || *closed.DeliveryStatus != status+TransferredSuffix {
		t.Errorf("expected closed status %q, got %v", status+TransferredSuffix, closed.DeliveryStatus)
	}
	f.checkBedInvariant(t)
}

func TestTransfer_TargetOccupied(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")
	f.mustAdmit(t, "9", "0000008")

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionTransfer, BedNumber: "5", TargetBedNumber: "9"})
	if !errors.Is(err, ErrTargetOccupied) {
		t.Fatalf("expected ErrTargetOccupied, got %v", err)
	}
	// Nothing moved.
	if b := f.beds.beds["5"]; b.PatientID == nil || *b.PatientID != 7 {
		t.Error("expected source untouched")
	}
	if b := f.beds.beds["9"]; b.PatientID == nil || *b.PatientID != 8 {
		t.Error("expected target untouched")
	}
}

func TestTransfer_TargetNotFound(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionTransfer, BedNumber: "5", TargetBedNumber: "99"})
	if !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("expected ErrTargetNotFound, got %v", err)
	}
}

func TestTransfer_SameBed(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionTransfer, BedNumber: "5", TargetBedNumber: "5"})
	if !errors.Is(err, ErrSameBed) {
		t.Errorf("expected ErrSameBed, got %v", err)
	}
}

func TestTransfer_SourceEmpty(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionTransfer, BedNumber: "5", TargetBedNumber: "9"})
	if !errors.Is(err, ErrBedNotOccupied) {
		t.Errorf("expected ErrBedNotOccupied, got %v", err)
	}
}

func TestTransfer_RollbackOnMidflightConflict(t *testing.T) {
	// The target passes validation but the conditional occupy finds it taken;
	// the already-closed source episode and cleared source bed must be
	// restored by the rollback, never observed half-applied.
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	stolen := false
	f.svc.inTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
		return rollbackTx(f.beds, f.history)(ctx, func(ctx context.Context) error {
			if !stolen {
				stolen = true
				f.beds.Occupy(ctx, "9", 8, nil)
			}
			return fn(ctx)
		})
	}

	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionTransfer, BedNumber: "5", TargetBedNumber: "9"})
	if !errors.Is(err, ErrTargetOccupied) {
		t.Fatalf("expected ErrTargetOccupied, got %v", err)
	}

	src := f.beds.beds["5"]
	if src.Status != StatusOccupied || src.PatientID == nil || *src.PatientID != 7 {
		t.Errorf("expected source restored to occupied by 7, got %+v", src)
	}
	open := f.history.openFor(7)
	if len(open) != 1 || open[0].BedID != src.ID {
		t.Errorf("expected the original open episode back at the source, got %v", open)
	}
}

// -- Misc --

func TestApply_UnknownAction(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{Action: "explode", BedNumber: "5"})
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestApply_MissingFields(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Apply(context.Background(), &ActionRequest{})
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestStatusRoundTrip(t *testing.T) {
	// A fresh occupant must never see a prior occupant's episode data.
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	status := "รอ Admit"
	symptoms := "แขนหัก"
	if _, err := f.svc.Apply(context.Background(), &ActionRequest{
		Action: ActionUpdateStatus, BedNumber: "5", DeliveryStatus: &status, OtherSymptoms: &symptoms,
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := f.svc.Apply(context.Background(), &ActionRequest{Action: ActionDischarge, BedNumber: "5"}); err != nil {
		t.Fatalf("discharge failed: %v", err)
	}
	f.mustAdmit(t, "5", "0000008")

	open := f.history.openFor(8)
	if len(open) != 1 {
		t.Fatalf("expected one open episode for patient 8, got %d", len(open))
	}
	if open[0].DeliveryStatus == nil || *open[0].DeliveryStatus != string(DeliveryPendingExam) {
		t.Errorf("expected fresh default status, got %v", open[0].DeliveryStatus)
	}
	if open[0].OtherSymptoms != nil {
		t.Errorf("prior occupant's symptoms leaked: %v", *open[0].OtherSymptoms)
	}
}

func TestOpenEpisodeInvariantAcrossSequence(t *testing.T) {
	// Admit → transfer → transfer → discharge; at every step the patient has
	// at most one open episode.
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	steps := []*ActionRequest{
		{Action: ActionTransfer, BedNumber: "5", TargetBedNumber: "9"},
		{Action: ActionTransfer, BedNumber: "9", TargetBedNumber: "30"},
		{Action: ActionDischarge, BedNumber: "30"},
	}
	for i, req := range steps {
		if _, err := f.svc.Apply(context.Background(), req); err != nil {
			t.Fatalf("step %d (%s) failed: %v", i, req.Action, err)
		}
		if open := f.history.openFor(7); len(open) > 1 {
			t.Fatalf("step %d: %d open episodes", i, len(open))
		}
		f.checkBedInvariant(t)
	}
	if open := f.history.openFor(7); len(open) != 0 {
		t.Errorf("expected no open episode after discharge, got %d", len(open))
	}
}

func TestListBeds(t *testing.T) {
	f := newFixture()
	f.mustAdmit(t, "5", "0000007")

	views, stats, err := f.svc.ListBeds(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != LastBedNumber {
		t.Errorf("expected %d beds, got %d", LastBedNumber, len(views))
	}
	if stats.Occupied != 1 {
		t.Errorf("expected 1 occupied, got %d", stats.Occupied)
	}
	if stats.Available != LastBedNumber-1 {
		t.Errorf("expected %d available, got %d", LastBedNumber-1, stats.Available)
	}
}

func TestBedHistory_UnknownBed(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.BedHistory(context.Background(), "99", 20, 0)
	if !errors.Is(err, ErrBedNotFound) {
		t.Errorf("expected ErrBedNotFound, got %v", err)
	}
}

func TestStatusForCoversWholeTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrBedNotFound, 404},
		{ErrPatientNotFound, 404},
		{ErrTargetNotFound, 404},
		{ErrBedOccupied, 409},
		{ErrTargetOccupied, 409},
		{ErrBedNotOccupied, 400},
		{ErrInvalidESI, 400},
		{ErrSameBed, 400},
		{ErrMissingField, 400},
		{ErrUnknownAction, 400},
		{fmt.Errorf("connection reset"), 500},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

package bed

import "context"

// Repository persists beds. Occupy and Clear are conditional updates: they
// report false when the bed was not in the expected prior state, which is the
// race-safe signal the engine relies on instead of read-then-write.
type Repository interface {
	GetByNumber(ctx context.Context, bedNumber string) (*Bed, error)
	List(ctx context.Context) ([]*View, error)
	Stats(ctx context.Context) (*Stats, error)
	SetESI(ctx context.Context, bedNumber string, esiLevel int) error
	Occupy(ctx context.Context, bedNumber string, patientID int64, esiLevel *int) (bool, error)
	Clear(ctx context.Context, bedNumber string) (bool, error)
}

// HistoryRepository persists patient_bed_history rows. "Open" always means
// the row for (patient, bed) whose discharge_time is null.
type HistoryRepository interface {
	Insert(ctx context.Context, h *HistoryEntry) error
	GetOpen(ctx context.Context, patientID, bedID int64) (*HistoryEntry, error)
	UpdateOpenESI(ctx context.Context, patientID, bedID int64, esiLevel int) error
	UpdateOpenStatus(ctx context.Context, patientID, bedID int64, deliveryStatus string, otherSymptoms *string) error
	CloseOpen(ctx context.Context, patientID, bedID int64, deliveryStatus string) error
	CloseOpenTransferred(ctx context.Context, patientID, bedID int64) error
	ListByBed(ctx context.Context, bedID int64, limit, offset int) ([]*HistoryEntry, int, error)
}

// PatientResolver looks a patient up by hospital number. Implemented by the
// patient service; the engine only needs the numeric id.
type PatientResolver interface {
	ResolveHN(ctx context.Context, hn string) (int64, error)
}

package patient

import "context"

// Repository persists patients. Create must surface ErrDuplicateHN when the
// unique constraint on hn is violated; GetByHN surfaces ErrNotFound.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByHN(ctx context.Context, hn string) (*Patient, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	MaxHN(ctx context.Context) (int64, error)
}

// Enqueuer puts a freshly registered patient on the waiting queue. The queue
// service implements it; registration only needs this one operation.
type Enqueuer interface {
	EnsureTicket(ctx context.Context, patientID int64) error
}

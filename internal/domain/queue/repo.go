package queue

import (
	"context"
	"time"
)

// Repository persists queues and the append-only queue_calls log.
type Repository interface {
	Insert(ctx context.Context, patientID int64) (*Queue, error)
	GetByID(ctx context.Context, id int64) (*Queue, error)
	// FindActive returns the patient's waiting or called ticket, nil when
	// there is none.
	FindActive(ctx context.Context, patientID int64) (*Queue, error)
	ListWaiting(ctx context.Context) ([]*Ticket, error)
	ListCalled(ctx context.Context) ([]*Ticket, error)
	MarkCalled(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status string) error
	AppendCall(ctx context.Context, queueID int64) error
	ActiveCalls(ctx context.Context, window time.Duration) ([]*ActiveCall, error)
}

// PatientChecker verifies a patient id exists before a ticket is created.
type PatientChecker interface {
	Exists(ctx context.Context, patientID int64) (bool, error)
}

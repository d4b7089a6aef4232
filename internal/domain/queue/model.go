package queue

import (
	"errors"
	"time"
)

// Queue statuses. waiting → called → completed; waiting/called → cancelled.
// call and recall both land on called and re-stamp called_at.
const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Ticket update actions.
const (
	ActionCall     = "call"
	ActionRecall   = "recall"
	ActionComplete = "complete"
	ActionCancel   = "cancel"
)

// CallWindow is how long a call/recall keeps showing on the announcement
// feed the display polls.
const CallWindow = 10 * time.Second

// Queue maps to the queues table.
type Queue struct {
	ID        int64      `db:"id" json:"id"`
	PatientID int64      `db:"patient_id" json:"patientId"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	CalledAt  *time.Time `db:"called_at" json:"calledAt,omitempty"`
}

// Active reports whether the ticket still holds the patient's place.
func (q *Queue) Active() bool {
	return q.Status == StatusWaiting || q.Status == StatusCalled
}

// TicketPatient is the patient summary embedded in queue listings.
type TicketPatient struct {
	ID        int64  `json:"id"`
	HN        string `json:"hn"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Ticket is a queue entry joined with its patient.
type Ticket struct {
	Queue
	Patient TicketPatient `json:"patient"`
}

// ActiveCall is one row of the announcement feed.
type ActiveCall struct {
	ID          int64     `json:"id"`
	HN          string    `json:"hn"`
	PatientName string    `json:"patient_name"`
	BedNumber   *string   `json:"bed_number"`
	CalledAt    time.Time `json:"called_at"`
}

var (
	ErrNotFound        = errors.New("queue not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDuplicateActive = errors.New("patient already has an active queue")
	ErrUnknownAction   = errors.New("unknown queue action")
	ErrMissingField    = errors.New("missing required field")
)

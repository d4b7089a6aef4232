package queue

import (
	"context"
	"fmt"
)

// Service is the queue manager. Each write here is single-row, so unlike the
// bed engine no operation spans a transaction.
type Service struct {
	repo     Repository
	patients PatientChecker
}

func NewService(repo Repository, patients PatientChecker) *Service {
	return &Service{repo: repo, patients: patients}
}

// Enqueue creates a waiting ticket for the patient. A patient can hold at
// most one active ticket at a time.
func (s *Service) Enqueue(ctx context.Context, patientID int64) (*Queue, error) {
	if patientID == 0 {
		return nil, fmt.Errorf("%w: patientId is required", ErrMissingField)
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPatientNotFound
	}
	active, err := s.repo.FindActive(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrDuplicateActive
	}
	return s.repo.Insert(ctx, patientID)
}

// EnsureTicket enqueues the patient unless an active ticket already exists.
// Registration uses this so re-registering front desk mistakes stay quiet.
func (s *Service) EnsureTicket(ctx context.Context, patientID int64) error {
	active, err := s.repo.FindActive(ctx, patientID)
	if err != nil {
		return err
	}
	if active != nil {
		return nil
	}
	_, err = s.repo.Insert(ctx, patientID)
	return err
}

// Apply advances one ticket. call and recall both re-announce: status is set
// to called, called_at re-stamped and a queue_calls row appended; complete
// and cancel are terminal.
func (s *Service) Apply(ctx context.Context, id int64, action string) error {
	if action == "" {
		return fmt.Errorf("%w: action is required", ErrMissingField)
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	switch action {
	case ActionCall, ActionRecall:
		if err := s.repo.MarkCalled(ctx, id); err != nil {
			return err
		}
		return s.repo.AppendCall(ctx, id)
	case ActionComplete:
		return s.repo.SetStatus(ctx, id, StatusCompleted)
	case ActionCancel:
		return s.repo.SetStatus(ctx, id, StatusCancelled)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

// List returns the waiting tickets oldest first and the called tickets most
// recently announced first.
func (s *Service) List(ctx context.Context) (waiting, called []*Ticket, err error) {
	waiting, err = s.repo.ListWaiting(ctx)
	if err != nil {
		return nil, nil, err
	}
	called, err = s.repo.ListCalled(ctx)
	if err != nil {
		return nil, nil, err
	}
	return waiting, called, nil
}

// ActiveCalls returns the announcement feed: tickets called within the feed
// window, newest first.
func (s *Service) ActiveCalls(ctx context.Context) ([]*ActiveCall, error) {
	return s.repo.ActiveCalls(ctx, CallWindow)
}

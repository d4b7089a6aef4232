package patient

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	queue  Enqueuer
	logger zerolog.Logger
}

func NewService(repo Repository, queue Enqueuer, logger zerolog.Logger) *Service {
	return &Service{repo: repo, queue: queue, logger: logger}
}

// Register creates a patient and puts them on the waiting queue the way the
// front desk expects. A queue failure does not undo the registration; the
// ticket can be re-added manually.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.HN == "" || p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("%w: hn, firstName, lastName required", ErrMissingField)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	if s.queue != nil {
		if err := s.queue.EnsureTicket(ctx, p.ID); err != nil {
			s.logger.Warn().Err(err).Str("hn", p.HN).Msg("auto-enqueue after registration failed")
		}
	}
	return nil
}

func (s *Service) Lookup(ctx context.Context, hn string) (*Patient, error) {
	if hn == "" {
		return nil, fmt.Errorf("%w: hn is required", ErrMissingField)
	}
	return s.repo.GetByHN(ctx, hn)
}

// NextHN generates the next free hospital number: highest on file plus one,
// zero-padded.
func (s *Service) NextHN(ctx context.Context) (string, error) {
	max, err := s.repo.MaxHN(ctx)
	if err != nil {
		return "", err
	}
	return FormatHN(max + 1), nil
}

// ResolveHN returns the numeric id for a hospital number. This is the lookup
// the bed engine uses during admission.
func (s *Service) ResolveHN(ctx context.Context, hn string) (int64, error) {
	p, err := s.repo.GetByHN(ctx, hn)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

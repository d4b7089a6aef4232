package display

import "context"

// Service is the view aggregator feeding the public "now serving" screen.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Worklist returns the ranked board. Missing status text renders as "-" so
// the display never shows an empty cell.
func (s *Service) Worklist(ctx context.Context) ([]*Entry, error) {
	entries, err := s.repo.Worklist(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Status == "" {
			e.Status = "-"
		}
	}
	return entries, nil
}

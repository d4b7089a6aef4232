package display

import "context"

// Repository produces the ranked worklist. Rows come back ordered by
// (esi_level asc, sort_time asc); severity wins over wait time.
type Repository interface {
	Worklist(ctx context.Context) ([]*Entry, error)
}

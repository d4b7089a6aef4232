package patient

import (
	"errors"
	"fmt"
	"time"
)

// HNWidth is the fixed width of a hospital number: zero-padded digits.
const HNWidth = 7

// Patient maps to the patients table. Records are written once at
// registration and never updated.
type Patient struct {
	ID        int64     `db:"id" json:"id"`
	HN        string    `db:"hn" json:"hn"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

var (
	ErrNotFound     = errors.New("patient not found")
	ErrDuplicateHN  = errors.New("hn already exists")
	ErrMissingField = errors.New("missing required field")
)

// FormatHN renders a numeric hospital number in its canonical zero-padded
// form.
func FormatHN(n int64) string {
	return fmt.Sprintf("%0*d", HNWidth, n)
}

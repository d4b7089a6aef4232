package display

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarter/er/internal/domain/bed"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

// Worklist unions open bed episodes with the waiting queue. Patients whose
// episode already says they went home are left off the board.
func (r *repoPG) Worklist(ctx context.Context) ([]*Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.hn, b.bed_number, h.delivery_status,
			COALESCE(h.esi_level, $1) AS esi_level,
			COALESCE(h.admission_time, h.performed_at) AS sort_time,
			'bed' AS source
		FROM patient_bed_history h
		JOIN patients p ON p.id = h.patient_id
		JOIN beds b ON b.id = h.bed_id
		WHERE h.discharge_time IS NULL
			AND (h.delivery_status IS NULL OR h.delivery_status != $2)

		UNION ALL

		SELECT p.hn, NULL, $3,
			$4 AS esi_level,
			q.created_at AS sort_time,
			'queue' AS source
		FROM queues q
		JOIN patients p ON p.id = q.patient_id
		WHERE q.status = 'waiting'

		ORDER BY esi_level ASC, sort_time ASC`,
		SeverityUntriaged, string(bed.DeliveryGoneHome), QueueWaitingStatus, SeverityQueued)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var status *string
		var sortTime interface{}
		if err := rows.Scan(&e.HN, &e.BedNumber, &status, &e.ESILevel, &sortTime, &e.Source); err != nil {
			return nil, err
		}
		if status != nil {
			e.Status = *status
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

package bed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarter/er/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Bed Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const bedCols = `id, bed_number, zone, status, patient_id, esi_level, admitted_at, updated_at`

func (r *repoPG) scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.BedNumber, &b.Zone, &b.Status, &b.PatientID, &b.ESILevel, &b.AdmittedAt, &b.UpdatedAt)
	return &b, err
}

func (r *repoPG) GetByNumber(ctx context.Context, bedNumber string) (*Bed, error) {
	b, err := r.scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM beds WHERE bed_number = $1`, bedNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBedNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) List(ctx context.Context) ([]*View, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT b.id, b.bed_number, b.zone, b.status, b.patient_id, b.esi_level, b.admitted_at, b.updated_at,
			h.delivery_status, h.other_symptoms,
			p.id, p.hn, p.first_name, p.last_name
		FROM beds b
		LEFT JOIN patients p ON p.id = b.patient_id
		LEFT JOIN patient_bed_history h
			ON h.patient_id = b.patient_id AND h.bed_id = b.id AND h.discharge_time IS NULL
		ORDER BY b.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*View
	for rows.Next() {
		var v View
		var pID *int64
		var pHN, pFirst, pLast *string
		if err := rows.Scan(&v.ID, &v.BedNumber, &v.Zone, &v.Status, &v.PatientID, &v.ESILevel, &v.AdmittedAt, &v.UpdatedAt,
			&v.DeliveryStatus, &v.OtherSymptoms,
			&pID, &pHN, &pFirst, &pLast); err != nil {
			return nil, err
		}
		v.Label = LabelFor(v.BedNumber)
		if pID != nil {
			v.Patient = &Occupant{ID: *pID, HN: *pHN, FirstName: *pFirst, LastName: *pLast}
		}
		views = append(views, &v)
	}
	return views, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'occupied'),
			(SELECT COUNT(*) FROM queues WHERE status = 'waiting')
		FROM beds`).Scan(&s.Available, &s.Occupied, &s.QueueCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) SetESI(ctx context.Context, bedNumber string, esiLevel int) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE beds SET esi_level = $1, updated_at = NOW() WHERE bed_number = $2`, esiLevel, bedNumber)
	return err
}

// Occupy flips the bed to occupied only if it is still available, closing the
// check-then-act window between validation and write.
func (r *repoPG) Occupy(ctx context.Context, bedNumber string, patientID int64, esiLevel *int) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET status = 'occupied', patient_id = $1, esi_level = $2, admitted_at = NOW(), updated_at = NOW()
		WHERE bed_number = $3 AND status = 'available'`, patientID, esiLevel, bedNumber)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Clear releases an occupied bed; false means it was not occupied anymore.
func (r *repoPG) Clear(ctx context.Context, bedNumber string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET status = 'available', patient_id = NULL, esi_level = NULL, admitted_at = NULL, updated_at = NOW()
		WHERE bed_number = $1 AND status = 'occupied'`, bedNumber)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// =========== History Repository ===========

type historyRepoPG struct{ pool *pgxpool.Pool }

func NewHistoryRepoPG(pool *pgxpool.Pool) HistoryRepository { return &historyRepoPG{pool: pool} }

func (r *historyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const historyCols = `id, patient_id, bed_id, action, esi_level, delivery_status, other_symptoms,
	admission_time, discharge_time, performed_at`

func (r *historyRepoPG) scanEntry(row pgx.Row) (*HistoryEntry, error) {
	var h HistoryEntry
	err := row.Scan(&h.ID, &h.PatientID, &h.BedID, &h.Action, &h.ESILevel, &h.DeliveryStatus, &h.OtherSymptoms,
		&h.AdmissionTime, &h.DischargeTime, &h.PerformedAt)
	return &h, err
}

func (r *historyRepoPG) Insert(ctx context.Context, h *HistoryEntry) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_bed_history (patient_id, bed_id, action, esi_level, delivery_status, other_symptoms, admission_time, performed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, admission_time, performed_at`,
		h.PatientID, h.BedID, h.Action, h.ESILevel, h.DeliveryStatus, h.OtherSymptoms).
		Scan(&h.ID, &h.AdmissionTime, &h.PerformedAt)
}

func (r *historyRepoPG) GetOpen(ctx context.Context, patientID, bedID int64) (*HistoryEntry, error) {
	h, err := r.scanEntry(r.conn(ctx).QueryRow(ctx, `
		SELECT `+historyCols+` FROM patient_bed_history
		WHERE patient_id = $1 AND bed_id = $2 AND discharge_time IS NULL
		LIMIT 1`, patientID, bedID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *historyRepoPG) UpdateOpenESI(ctx context.Context, patientID, bedID int64, esiLevel int) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_bed_history SET esi_level = $1
		WHERE patient_id = $2 AND bed_id = $3 AND discharge_time IS NULL`, esiLevel, patientID, bedID)
	return err
}

func (r *historyRepoPG) UpdateOpenStatus(ctx context.Context, patientID, bedID int64, deliveryStatus string, otherSymptoms *string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_bed_history SET delivery_status = $1, other_symptoms = $2
		WHERE patient_id = $3 AND bed_id = $4 AND discharge_time IS NULL`, deliveryStatus, otherSymptoms, patientID, bedID)
	return err
}

func (r *historyRepoPG) CloseOpen(ctx context.Context, patientID, bedID int64, deliveryStatus string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_bed_history SET discharge_time = NOW(), delivery_status = $1
		WHERE patient_id = $2 AND bed_id = $3 AND discharge_time IS NULL`, deliveryStatus, patientID, bedID)
	return err
}

func (r *historyRepoPG) CloseOpenTransferred(ctx context.Context, patientID, bedID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_bed_history
		SET discharge_time = NOW(), delivery_status = COALESCE(delivery_status, '') || $1
		WHERE patient_id = $2 AND bed_id = $3 AND discharge_time IS NULL`, TransferredSuffix, patientID, bedID)
	return err
}

func (r *historyRepoPG) ListByBed(ctx context.Context, bedID int64, limit, offset int) ([]*HistoryEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_bed_history WHERE bed_id = $1`, bedID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+historyCols+` FROM patient_bed_history
		WHERE bed_id = $1 ORDER BY performed_at DESC LIMIT $2 OFFSET $3`, bedID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*HistoryEntry
	for rows.Next() {
		h, err := r.scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, rows.Err()
}

package queue

import (
	"context"
	"errors"
	"time"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const queueCols = `id, patient_id, status, created_at, called_at`

func (r *repoPG) scanQueue(row pgx.Row) (*Queue, error) {
	var q Queue
	err := row.Scan(&q.ID, &q.PatientID, &q.Status, &q.CreatedAt, &q.CalledAt)
	return &q, err
}

func (r *repoPG) Insert(ctx context.Context, patientID int64) (*Queue, error) {
	q := &Queue{PatientID: patientID, Status: StatusWaiting}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO queues (patient_id, status, created_at)
		VALUES ($1, 'waiting', NOW())
		RETURNING id, created_at`, patientID).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Queue, error) {
	q, err := r.scanQueue(r.conn(ctx).QueryRow(ctx, `SELECT `+queueCols+` FROM queues WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repoPG) FindActive(ctx context.Context, patientID int64) (*Queue, error) {
	q, err := r.scanQueue(r.conn(ctx).QueryRow(ctx, `
		SELECT `+queueCols+` FROM queues
		WHERE patient_id = $1 AND status IN ('waiting', 'called')
		LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repoPG) listTickets(ctx context.Context, where, order string) ([]*Ticket, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT q.id, q.patient_id, q.status, q.created_at, q.called_at,
			p.id, p.hn, p.first_name, p.last_name
		FROM queues q
		JOIN patients p ON p.id = q.patient_id
		WHERE `+where+` ORDER BY `+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.PatientID, &t.Status, &t.CreatedAt, &t.CalledAt,
			&t.Patient.ID, &t.Patient.HN, &t.Patient.FirstName, &t.Patient.LastName); err != nil {
			return nil, err
		}
		tickets = append(tickets, &t)
	}
	return tickets, rows.Err()
}

func (r *repoPG) ListWaiting(ctx context.Context) ([]*Ticket, error) {
	return r.listTickets(ctx, `q.status = 'waiting'`, `q.created_at ASC`)
}

func (r *repoPG) ListCalled(ctx context.Context) ([]*Ticket, error) {
	return r.listTickets(ctx, `q.status = 'called'`, `q.called_at DESC`)
}

func (r *repoPG) MarkCalled(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE queues SET status = 'called', called_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE queues SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (r *repoPG) AppendCall(ctx context.Context, queueID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO queue_calls (queue_id, called_at) VALUES ($1, NOW())`, queueID)
	return err
}

func (r *repoPG) ActiveCalls(ctx context.Context, window time.Duration) ([]*ActiveCall, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT q.id, p.hn, p.first_name || ' ' || p.last_name, q.called_at
		FROM queues q
		JOIN patients p ON p.id = q.patient_id
		WHERE q.status = 'called' AND q.called_at >= NOW() - $1::interval
		ORDER BY q.called_at DESC`, window)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []*ActiveCall
	for rows.Next() {
		var c ActiveCall
		if err := rows.Scan(&c.ID, &c.HN, &c.PatientName, &c.CalledAt); err != nil {
			return nil, err
		}
		calls = append(calls, &c)
	}
	return calls, rows.Err()
}

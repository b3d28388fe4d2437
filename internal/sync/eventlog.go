// Package syncx keeps the append-only change log written next to every
// mutation of the question bank.
package syncx

import (
	"context"
	"database/sql"
	"time"
)

type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`      // e.g. ExamPatched
	Key       string `json:"key"`       // natural key: exam/10
	ChangeID  string `json:"change_id"` // groups the events of one call
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type EventRepo struct {
	db     DBTX
	siteID string
}

func NewEventRepo(db DBTX, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, change_id, data, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.SiteID, e.Type, e.Key, e.ChangeID, e.DataJSON, e.CreatedAt)
	return err
}

// List returns events with a sequence number greater than after, oldest first.
func (r *EventRepo) List(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, change_id, data, created_at
		   FROM event_log WHERE seq > $1 ORDER BY seq LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.ChangeID, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

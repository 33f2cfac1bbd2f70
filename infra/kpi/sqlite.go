package kpi

import (
	"database/sql"
	"time"

	core "github.com/harsheyeditor/OneBlood/core/kpi"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS donor_kpi (
        donor_id TEXT,
        day INTEGER,
        notified INTEGER,
        accepted INTEGER,
        PRIMARY KEY(donor_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or updates the KPI record.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO donor_kpi (donor_id, day, notified, accepted)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(donor_id, day) DO UPDATE SET
            notified = notified + excluded.notified,
            accepted = accepted + excluded.accepted`,
		r.DonorID, d.Unix(), r.Notified, r.Accepted)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(donorID string, start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT donor_id, day, notified, accepted
        FROM donor_kpi WHERE donor_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		donorID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var r core.Record
		var ts int64
		if err := rows.Scan(&r.DonorID, &ts, &r.Notified, &r.Accepted); err != nil {
			return nil, err
		}
		r.Date = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoTimeline is returned when the database holds no matching day.
var ErrNoTimeline = errors.New("no timeline in database")

// Store provides read-only access to a pipeline SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the database in read-only mode with WAL.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dates returns every stored day, newest first.
func (s *Store) Dates() ([]string, error) {
	rows, err := s.db.Query(`SELECT date FROM timelines ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query timelines: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Timeline returns the day row for date. An empty date selects the newest.
func (s *Store) Timeline(date string) (*Timeline, error) {
	var row *sql.Row
	if date == "" {
		row = s.db.QueryRow(`
			SELECT date, total_duration FROM timelines
			ORDER BY date DESC
			LIMIT 1
		`)
	} else {
		row = s.db.QueryRow(`
			SELECT date, total_duration FROM timelines
			WHERE date = ?
		`, date)
	}

	var tl Timeline
	var total sql.NullFloat64
	if err := row.Scan(&tl.Date, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoTimeline
		}
		return nil, fmt.Errorf("scan timeline: %w", err)
	}
	if total.Valid {
		tl.TotalDuration = total.Float64
	}
	return &tl, nil
}

// RecordingsForDate returns the recordings of one day in pipeline order.
func (s *Store) RecordingsForDate(date string) ([]Recording, error) {
	rows, err := s.db.Query(`
		SELECT filename, date, timestamp, duration_seconds, mean_rms, peak_rms,
			rms_values, output_file, seq
		FROM recordings
		WHERE date = ?
		ORDER BY seq ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var recs []Recording
	for rows.Next() {
		var r Recording
		var ts float64
		var values sql.NullString
		if err := rows.Scan(&r.Filename, &r.Date, &ts, &r.DurationSeconds,
			&r.MeanRMS, &r.PeakRMS, &values, &r.OutputFile, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		r.Timestamp = timeFromUnix(ts)
		if values.Valid && values.String != "" {
			if err := json.Unmarshal([]byte(values.String), &r.RMSValues); err != nil {
				return nil, fmt.Errorf("decode rms_values for %s: %w", r.Filename, err)
			}
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// Package db provides read-only SQLite access to timeline documents written
// by the recording pipeline.
package db

import "time"

// Timeline is one day row.
type Timeline struct {
	Date          string
	TotalDuration float64
}

// Recording is one recording row, already decoded.
type Recording struct {
	Filename        string
	Date            string
	Timestamp       time.Time
	DurationSeconds float64
	MeanRMS         float64
	PeakRMS         float64
	RMSValues       []float64
	OutputFile      string
	Seq             int
}

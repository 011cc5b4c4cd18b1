// Package timeline holds the day of noise recordings rendered by the chart.
package timeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// Segment is one measured time window with its pre-computed loudness
// statistics. Segments are immutable once parsed.
type Segment struct {
	Filename        string    `json:"filename"`
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds float64   `json:"duration_seconds"`
	MeanRMS         float64   `json:"mean_rms"`
	PeakRMS         float64   `json:"peak_rms"`
	RMSValues       []float64 `json:"rms_values,omitempty"`
	OutputFile      string    `json:"output_file"`
}

// Document is a full day of segments, in producer order.
type Document struct {
	Date          string    `json:"date"`
	Recordings    []Segment `json:"recordings"`
	TotalDuration float64   `json:"total_duration"`

	// Source is where the document was read from.
	Source string `json:"-"`
	// Synthetic marks a document built by Synthesize instead of loaded.
	Synthetic bool `json:"-"`
}

// DefaultMaxPeak is returned by MaxPeak when no segment has a positive peak.
const DefaultMaxPeak = 1.0

// MaxPeak returns the largest PeakRMS across all segments.
func (d *Document) MaxPeak() float64 {
	if d == nil {
		return DefaultMaxPeak
	}
	peak := 0.0
	for _, r := range d.Recordings {
		if r.PeakRMS > peak {
			peak = r.PeakRMS
		}
	}
	if peak <= 0 {
		return DefaultMaxPeak
	}
	return peak
}

// Len returns the number of segments.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Recordings)
}

// Find returns the segment with the given filename.
func (d *Document) Find(filename string) (*Segment, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Recordings {
		if d.Recordings[i].Filename == filename {
			return &d.Recordings[i], true
		}
	}
	return nil, false
}

// Producers write timestamps both with and without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are
// taken as local time.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}

// UnmarshalJSON accepts the timestamp layouts in timestampLayouts.
func (s *Segment) UnmarshalJSON(data []byte) error {
	type plain Segment
	var raw struct {
		plain
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Segment(raw.plain)
	if raw.Timestamp != "" {
		ts, err := ParseTimestamp(raw.Timestamp)
		if err != nil {
			return fmt.Errorf("segment %s: %w", raw.Filename, err)
		}
		s.Timestamp = ts
	}
	return nil
}

package timeline

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	synthHours      = 24
	synthSubSamples = 12
	synthDuration   = 3600
)

// Synthesize builds a sample day: one segment per hour following a fixed
// diurnal pattern with bounded random jitter. It only exists so the chart
// can be exercised without pipeline output. A nil rng uses a random seed.
func Synthesize(rng *rand.Rand) *Document {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	doc := &Document{
		Date:       "2024-01-01",
		Recordings: make([]Segment, 0, synthHours),
		Source:     "synthesized",
		Synthetic:  true,
	}
	for hour := 0; hour < synthHours; hour++ {
		mean, peak := diurnalLevels(hour)
		mean = max(0, mean+(rng.Float64()-0.5)*0.1)
		peak = max(0, peak+(rng.Float64()-0.5)*0.2)

		values := make([]float64, synthSubSamples)
		for i := range values {
			v := mean + (rng.Float64()-0.5)*mean
			values[i] = min(peak, max(0, v))
		}

		doc.Recordings = append(doc.Recordings, Segment{
			Filename:        fmt.Sprintf("recording_%d", hour),
			Timestamp:       time.Date(2024, time.January, 1, hour, 0, 0, 0, time.Local),
			DurationSeconds: synthDuration,
			MeanRMS:         mean,
			PeakRMS:         peak,
			RMSValues:       values,
			OutputFile:      fmt.Sprintf("recording_%d_anonymized.mp3", hour),
		})
	}
	doc.TotalDuration = float64(len(doc.Recordings) * synthDuration)
	return doc
}

// diurnalLevels returns the base mean and peak RMS for an hour. Ranges
// overlap at their edges; the first match wins.
func diurnalLevels(hour int) (mean, peak float64) {
	switch {
	case hour >= 6 && hour <= 9: // morning commute
		return 0.4, 0.8
	case hour >= 9 && hour <= 17: // daytime
		return 0.25, 0.5
	case hour >= 17 && hour <= 22: // evening
		return 0.35, 0.7
	default: // night
		return 0.05, 0.15
	}
}

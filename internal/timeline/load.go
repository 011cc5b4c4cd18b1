package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwulff/roadnoise/internal/db"
)

// DefaultSource is where the pipeline writes the day's document.
const DefaultSource = "./out/timeline_data.json"

const sqlitePrefix = "sqlite:"

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Load reads a timeline document from source. Sources are an http(s) URL,
// "sqlite:<path>[#<date>]", a path ending in .sqlite or .db, or a JSON file.
func Load(ctx context.Context, source string) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch {
	case isURL(source):
		doc, err = loadHTTP(ctx, source)
	case isSQLite(source):
		path, date := splitSQLite(source)
		doc, err = loadSQLite(path, date)
	default:
		doc, err = loadFile(source)
	}
	if err != nil {
		return nil, err
	}
	doc.Source = source
	return doc, nil
}

// LoadOrSynthesize loads source and falls back to a synthesized document on
// any failure. The fallback is logged, never returned as an error.
func LoadOrSynthesize(ctx context.Context, source string, rng *rand.Rand) *Document {
	doc, err := Load(ctx, source)
	if err != nil {
		log.Printf("timeline: load %s failed: %v; using synthesized fallback", source, err)
		return Synthesize(rng)
	}
	log.Printf("timeline: loaded %s (%s, %d recordings)", source, doc.Date, doc.Len())
	return doc
}

// Decode parses a JSON timeline document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	return &doc, nil
}

func loadHTTP(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timeline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch timeline: status %s", resp.Status)
	}
	return Decode(resp.Body)
}

func loadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func loadSQLite(path, date string) (*Document, error) {
	store, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	tl, err := store.Timeline(date)
	if err != nil {
		return nil, err
	}
	recs, err := store.RecordingsForDate(tl.Date)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Date:          tl.Date,
		TotalDuration: tl.TotalDuration,
		Recordings:    make([]Segment, 0, len(recs)),
	}
	for _, r := range recs {
		doc.Recordings = append(doc.Recordings, Segment{
			Filename:        r.Filename,
			Timestamp:       r.Timestamp,
			DurationSeconds: r.DurationSeconds,
			MeanRMS:         r.MeanRMS,
			PeakRMS:         r.PeakRMS,
			RMSValues:       r.RMSValues,
			OutputFile:      r.OutputFile,
		})
	}
	return doc, nil
}

// Dates lists the days a SQLite source holds, newest first. Other sources
// hold a single day and return nil.
func Dates(source string) ([]string, error) {
	if !isSQLite(source) {
		return nil, nil
	}
	path, _ := splitSQLite(source)
	store, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Dates()
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func isSQLite(source string) bool {
	if strings.HasPrefix(source, sqlitePrefix) {
		return true
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".sqlite", ".db":
		return true
	}
	return false
}

func splitSQLite(source string) (path, date string) {
	path = strings.TrimPrefix(source, sqlitePrefix)
	if i := strings.LastIndexByte(path, '#'); i >= 0 {
		path, date = path[:i], path[i+1:]
	}
	return path, date
}

// ErrNotWatchable is returned by Watch for sources that are not local files.
var ErrNotWatchable = errors.New("timeline source is not a local file")

// LocalPath returns the filesystem path behind source, if it has one.
func LocalPath(source string) (string, bool) {
	if source == "" || isURL(source) {
		return "", false
	}
	if isSQLite(source) {
		path, _ := splitSQLite(source)
		return path, true
	}
	return source, true
}

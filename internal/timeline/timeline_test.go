package timeline

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

const sampleJSON = `{
	"date": "2024-03-02",
	"recordings": [
		{
			"filename": "seg_000.wav",
			"timestamp": "2024-03-02T08:00:00",
			"duration_seconds": 60,
			"mean_rms": 0.4,
			"peak_rms": 0.6,
			"rms_values": [0.1, 0.6, 0.3],
			"output_file": "seg_000_anonymized.mp3"
		},
		{
			"filename": "seg_001.wav",
			"timestamp": "2024-03-02T09:00:00Z",
			"duration_seconds": 60,
			"mean_rms": 0.05,
			"peak_rms": 0.2,
			"output_file": "seg_001_anonymized.mp3"
		}
	],
	"total_duration": 120
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "timeline_data.json", sampleJSON)

	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Date != "2024-03-02" {
		t.Errorf("date = %q", doc.Date)
	}
	if doc.Len() != 2 {
		t.Fatalf("recordings = %d, want 2", doc.Len())
	}
	if doc.Source != path {
		t.Errorf("source = %q, want %q", doc.Source, path)
	}
	if doc.Synthetic {
		t.Error("loaded document should not be synthetic")
	}

	first := doc.Recordings[0]
	if first.Timestamp.Hour() != 8 {
		t.Errorf("zone-less timestamp hour = %d, want 8 local", first.Timestamp.Hour())
	}
	if len(first.RMSValues) != 3 {
		t.Errorf("rms_values = %v", first.RMSValues)
	}
	if doc.Recordings[1].RMSValues != nil {
		t.Errorf("missing rms_values should decode as nil, got %v", doc.Recordings[1].RMSValues)
	}
	if got := doc.MaxPeak(); got != 0.6 {
		t.Errorf("MaxPeak = %v, want 0.6", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "read timeline") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "bad.json", `{"date": "x", "recordings": [`)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("expected decode error")
	}

	path = writeFile(t, "badts.json", `{"recordings": [{"filename": "a", "timestamp": "yesterday"}]}`)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("expected timestamp error")
	}
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/out/timeline_data.json" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, sampleJSON)
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/out/timeline_data.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Len() != 2 {
		t.Errorf("recordings = %d, want 2", doc.Len())
	}

	if _, err := Load(context.Background(), srv.URL+"/missing.json"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.sqlite")
	rawDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ts := float64(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC).Unix())
	stmts := []string{
		`CREATE TABLE timelines (date TEXT PRIMARY KEY, total_duration REAL)`,
		`CREATE TABLE recordings (filename TEXT, date TEXT, timestamp REAL, duration_seconds REAL,
			mean_rms REAL, peak_rms REAL, rms_values TEXT, output_file TEXT, seq INTEGER)`,
		`INSERT INTO timelines VALUES ('2024-01-01', 60)`,
		`INSERT INTO timelines VALUES ('2023-12-31', 0)`,
		fmt.Sprintf(`INSERT INTO recordings VALUES ('a.wav', '2024-01-01', %f, 60, 0.4, 0.6, '[0.1,0.6]', 'a.mp3', 1)`, ts),
	}
	for _, s := range stmts {
		if _, err := rawDB.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	rawDB.Close()

	for _, source := range []string{path, "sqlite:" + path + "#2024-01-01"} {
		doc, err := Load(context.Background(), source)
		if err != nil {
			t.Fatalf("Load(%q): %v", source, err)
		}
		if doc.Date != "2024-01-01" || doc.Len() != 1 {
			t.Errorf("Load(%q) = %s with %d recordings", source, doc.Date, doc.Len())
		}
		if doc.Recordings[0].OutputFile != "a.mp3" {
			t.Errorf("output file = %q", doc.Recordings[0].OutputFile)
		}
	}

	dates, err := Dates(path)
	if err != nil {
		t.Fatalf("Dates: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2024-01-01" {
		t.Errorf("dates = %v, want newest first", dates)
	}
	if dates, err := Dates("timeline.json"); dates != nil || err != nil {
		t.Errorf("JSON source dates = %v, %v; want nil", dates, err)
	}
}

func TestLoadOrSynthesizeFallsBack(t *testing.T) {
	doc := LoadOrSynthesize(context.Background(), filepath.Join(t.TempDir(), "nope.json"), rand.New(rand.NewPCG(1, 2)))
	if !doc.Synthetic {
		t.Error("fallback document should be marked synthetic")
	}
	if doc.Len() != 24 {
		t.Errorf("fallback recordings = %d, want 24", doc.Len())
	}
}

func TestMaxPeakEmpty(t *testing.T) {
	var nilDoc *Document
	if got := nilDoc.MaxPeak(); got != DefaultMaxPeak {
		t.Errorf("nil MaxPeak = %v", got)
	}
	empty := &Document{}
	if got := empty.MaxPeak(); got != DefaultMaxPeak {
		t.Errorf("empty MaxPeak = %v, want %v", got, DefaultMaxPeak)
	}
	zero := &Document{Recordings: []Segment{{PeakRMS: 0}, {PeakRMS: 0}}}
	if got := zero.MaxPeak(); got != DefaultMaxPeak {
		t.Errorf("all-zero MaxPeak = %v, want %v", got, DefaultMaxPeak)
	}
}

func TestFind(t *testing.T) {
	doc := &Document{Recordings: []Segment{{Filename: "a"}, {Filename: "b"}}}
	seg, ok := doc.Find("b")
	if !ok || seg != &doc.Recordings[1] {
		t.Errorf("Find(b) = %v, %v", seg, ok)
	}
	if _, ok := doc.Find("c"); ok {
		t.Error("Find(c) should fail")
	}
}

func TestSynthesizeStructure(t *testing.T) {
	doc := Synthesize(rand.New(rand.NewPCG(7, 7)))

	if doc.Len() != 24 {
		t.Fatalf("recordings = %d, want 24", doc.Len())
	}
	if doc.TotalDuration != 24*3600 {
		t.Errorf("total = %v", doc.TotalDuration)
	}
	for i, r := range doc.Recordings {
		if r.Timestamp.Hour() != i {
			t.Errorf("recording %d hour = %d", i, r.Timestamp.Hour())
		}
		if r.Filename != fmt.Sprintf("recording_%d", i) {
			t.Errorf("filename = %q", r.Filename)
		}
		if r.MeanRMS < 0 || r.PeakRMS < 0 {
			t.Errorf("recording %d has negative levels: %v/%v", i, r.MeanRMS, r.PeakRMS)
		}
		for _, v := range r.RMSValues {
			if v < 0 || v > r.PeakRMS {
				t.Errorf("recording %d sub-sample %v outside [0, %v]", i, v, r.PeakRMS)
			}
		}
	}

	// Night stays below the morning commute regardless of jitter.
	if doc.Recordings[3].PeakRMS >= doc.Recordings[7].PeakRMS {
		t.Errorf("3am peak %v should be below 7am peak %v",
			doc.Recordings[3].PeakRMS, doc.Recordings[7].PeakRMS)
	}
}

func TestSynthesizeDeterministicWithSeed(t *testing.T) {
	a := Synthesize(rand.New(rand.NewPCG(3, 4)))
	b := Synthesize(rand.New(rand.NewPCG(3, 4)))
	for i := range a.Recordings {
		if a.Recordings[i].MeanRMS != b.Recordings[i].MeanRMS {
			t.Fatalf("recording %d differs across identical seeds", i)
		}
	}
}

func TestLocalPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"./out/timeline_data.json", "./out/timeline_data.json", true},
		{"sqlite:/data/noise.db#2024-01-01", "/data/noise.db", true},
		{"https://example.com/t.json", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := LocalPath(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("LocalPath(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestWatchReportsWrites(t *testing.T) {
	path := writeFile(t, "timeline_data.json", sampleJSON)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := Watch(ctx, path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification within 5s")
	}

	cancel()
	for range changes {
	}
}

func TestWatchRejectsURL(t *testing.T) {
	if _, err := Watch(context.Background(), "https://example.com/t.json"); err != ErrNotWatchable {
		t.Errorf("err = %v, want ErrNotWatchable", err)
	}
}

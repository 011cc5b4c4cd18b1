// Package mcpserver exposes the day's timeline to MCP clients as read-only
// tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jwulff/roadnoise/internal/intensity"
	"github.com/jwulff/roadnoise/internal/playback"
	"github.com/jwulff/roadnoise/internal/segview"
	"github.com/jwulff/roadnoise/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Server answers tool calls from the timeline at Source. The document is
// reread on every call so pipeline updates show up without a restart.
type Server struct {
	Source    string
	AssetBase string
}

// New returns an MCP server with every tool registered.
func New(source, assetBase string) *server.MCPServer {
	s := &Server{Source: source, AssetBase: assetBase}
	ms := server.NewMCPServer("roadnoise", Version, server.WithToolCapabilities(false))
	s.Register(ms)
	return ms
}

// Register adds the timeline tools to ms.
func (s *Server) Register(ms *server.MCPServer) {
	ms.AddTool(mcp.NewTool("timeline_summary",
		mcp.WithDescription("Summarize the day's road-noise timeline: date, segment count, loudest segment and how many segments fall in each intensity band."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleSummary)

	ms.AddTool(mcp.NewTool("list_segments",
		mcp.WithDescription("List recording segments in chronological order with their loudness and intensity band."),
		mcp.WithString("band",
			mcp.Description("Only return segments in this intensity band"),
			mcp.Enum(bandLabels()...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleList)

	ms.AddTool(mcp.NewTool("segment_detail",
		mcp.WithDescription("Show one segment with its sub-sample readings, bar geometry and audio location."),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("Segment filename as returned by list_segments"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleDetail)
}

func (s *Server) load(ctx context.Context) *timeline.Document {
	return timeline.LoadOrSynthesize(ctx, s.Source, nil)
}

// SegmentInfo is one row of list_segments.
type SegmentInfo struct {
	Filename string  `json:"filename"`
	Time     string  `json:"time"`
	MeanRMS  float64 `json:"mean_rms"`
	PeakRMS  float64 `json:"peak_rms"`
	Band     string  `json:"band"`
	Width    float64 `json:"width_fraction"`
}

// Summary is the result of timeline_summary.
type Summary struct {
	Date          string         `json:"date"`
	Source        string         `json:"source"`
	Synthetic     bool           `json:"synthetic"`
	Recordings    int            `json:"recordings"`
	TotalDuration float64        `json:"total_duration_seconds"`
	MaxPeak       float64        `json:"max_peak"`
	Loudest       *SegmentInfo   `json:"loudest,omitempty"`
	Bands         map[string]int `json:"bands"`
	// AvailableDates lists the other days a SQLite source can serve.
	AvailableDates []string `json:"available_dates,omitempty"`
}

// Detail is the result of segment_detail.
type Detail struct {
	SegmentInfo
	Timestamp       string    `json:"timestamp"`
	DurationSeconds float64   `json:"duration_seconds"`
	RMSValues       []float64 `json:"rms_values"`
	SubBars         []float64 `json:"sub_bars"`
	Audio           string    `json:"audio"`
}

func (s *Server) handleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.load(ctx)
	maxPeak := doc.MaxPeak()

	sum := Summary{
		Date:          doc.Date,
		Source:        doc.Source,
		Synthetic:     doc.Synthetic,
		Recordings:    doc.Len(),
		TotalDuration: doc.TotalDuration,
		MaxPeak:       maxPeak,
		Bands:         make(map[string]int),
	}
	for _, b := range intensity.Bands() {
		sum.Bands[b.String()] = 0
	}
	if !doc.Synthetic {
		dates, err := timeline.Dates(s.Source)
		if err != nil {
			log.Printf("mcp: list dates of %s: %v", s.Source, err)
		}
		sum.AvailableDates = dates
	}
	for i := range doc.Recordings {
		seg := &doc.Recordings[i]
		info := describe(seg, maxPeak)
		sum.Bands[info.Band]++
		if sum.Loudest == nil || seg.PeakRMS > sum.Loudest.PeakRMS {
			sum.Loudest = &info
		}
	}
	return jsonResult(sum)
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		filter    intensity.Band
		useFilter bool
	)
	if label := req.GetString("band", ""); label != "" {
		b, ok := parseBand(label)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown band %q; want one of %s", label, strings.Join(bandLabels(), ", "))), nil
		}
		filter, useFilter = b, true
	}

	doc := s.load(ctx)
	maxPeak := doc.MaxPeak()
	segments := make([]SegmentInfo, 0, doc.Len())
	for i := range doc.Recordings {
		info := describe(&doc.Recordings[i], maxPeak)
		if useFilter && info.Band != filter.String() {
			continue
		}
		segments = append(segments, info)
	}
	return jsonResult(segments)
}

func (s *Server) handleDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc := s.load(ctx)
	seg, ok := doc.Find(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no segment named %q in the %s timeline", name, doc.Date)), nil
	}

	g := segview.Measure(seg, doc.MaxPeak())
	return jsonResult(Detail{
		SegmentInfo:     describe(seg, doc.MaxPeak()),
		Timestamp:       seg.Timestamp.Format(time.RFC3339),
		DurationSeconds: seg.DurationSeconds,
		RMSValues:       seg.RMSValues,
		SubBars:         g.SubBars,
		Audio:           playback.ResolveAsset(s.AssetBase, seg.OutputFile),
	})
}

func describe(seg *timeline.Segment, maxPeak float64) SegmentInfo {
	g := segview.Measure(seg, maxPeak)
	return SegmentInfo{
		Filename: seg.Filename,
		Time:     seg.Timestamp.Local().Format("15:04"),
		MeanRMS:  seg.MeanRMS,
		PeakRMS:  seg.PeakRMS,
		Band:     g.Band.String(),
		Width:    g.WidthFraction,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func bandLabels() []string {
	var labels []string
	for _, b := range intensity.Bands() {
		labels = append(labels, b.String())
	}
	return labels
}

func parseBand(label string) (intensity.Band, bool) {
	for _, b := range intensity.Bands() {
		if strings.EqualFold(b.String(), label) {
			return b, true
		}
	}
	return 0, false
}

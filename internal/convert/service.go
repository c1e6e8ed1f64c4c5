// Package convert is the application facade: it resolves systems, normalizes
// tracks, serializes documents and renders previews, logging each step and
// counting it in the metrics registry.
package convert

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pspoerri/tra2kml/internal/config"
	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/encode"
	"github.com/pspoerri/tra2kml/internal/export"
	"github.com/pspoerri/tra2kml/internal/logging"
	"github.com/pspoerri/tra2kml/internal/metrics"
	"github.com/pspoerri/tra2kml/internal/preview"
	"github.com/pspoerri/tra2kml/internal/tra"
	"github.com/pspoerri/tra2kml/internal/track"
)

// Options configure a Service.
type Options struct {
	Concurrency   int // workers per track and files loaded in parallel; 0 = NumCPU
	Policy        track.FailurePolicy
	ExportFormat  string // default document format, "kml" when empty
	Export        export.Options
	PreviewFormat string // default image format, "png" when empty
	Preview       preview.Options
	ImageQuality  int
	Progress      track.Progress // receives one Increment per normalized record
}

// OptionsFromConfig maps loaded configuration to service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Concurrency:   cfg.Convert.Concurrency,
		Policy:        cfg.Convert.FailurePolicy(),
		ExportFormat:  cfg.Export.Format,
		Export:        export.Options{DocumentName: cfg.Export.DocumentName},
		PreviewFormat: cfg.Preview.Format,
		Preview:       preview.Options{Width: cfg.Preview.Width, Height: cfg.Preview.Height},
		ImageQuality:  cfg.Preview.Quality,
	}
}

// Document is a serialized export or preview.
type Document struct {
	Data          []byte
	Format        string
	ContentType   string
	FileExtension string
}

// Service is safe for concurrent use.
type Service struct {
	logger *slog.Logger
	opts   Options
}

// NewService creates a service. A nil logger discards output.
func NewService(logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = "kml"
	}
	if opts.PreviewFormat == "" {
		opts.PreviewFormat = "png"
	}
	if opts.ImageQuality <= 0 {
		opts.ImageQuality = 85
	}
	return &Service{logger: logger, opts: opts}
}

func (s *Service) normalizer() track.Normalizer {
	return track.Normalizer{
		Concurrency: s.opts.Concurrency,
		Policy:      s.opts.Policy,
		Progress:    s.opts.Progress,
	}
}

// ListSupportedSystems returns the catalog in display order.
func (s *Service) ListSupportedSystems() []coord.SystemInfo {
	return coord.SupportedSystems()
}

// Transform converts one raw point in the system named by key.
func (s *Service) Transform(raw coord.RawPoint, key string) (coord.GeographicPoint, error) {
	sys, err := coord.Lookup(key)
	if err != nil {
		return coord.GeographicPoint{}, err
	}
	g, err := coord.Transform(raw, sys)
	if err != nil {
		metrics.TransformFailures.WithLabelValues(sys.Key).Inc()
		return coord.GeographicPoint{}, err
	}
	metrics.PointsTransformed.WithLabelValues(sys.Key).Inc()
	if !coord.IsPlausible(g) {
		metrics.PointsOutOfBounds.WithLabelValues(sys.Key).Inc()
	}
	return g, nil
}

// NormalizeTrack transforms raw records in the system named by key.
func (s *Service) NormalizeTrack(name string, raw []track.RawRecord, key string) (*track.Track, error) {
	start := time.Now()
	t, err := s.normalizer().NormalizeTrack(name, raw, key)
	if err != nil {
		metrics.TracksNormalized.WithLabelValues(systemLabel(key), "error").Inc()
		logging.LogError(s.logger, "track normalization failed", err,
			slog.String("track", name),
			slog.String("system", key),
			slog.Int("records", len(raw)))
		return nil, err
	}
	s.observe(t, time.Since(start))
	return t, nil
}

// systemLabel bounds metric label values to catalog keys.
func systemLabel(key string) string {
	if sys, err := coord.Lookup(key); err == nil {
		return sys.Key
	}
	return "unsupported"
}

func (s *Service) observe(t *track.Track, elapsed time.Duration) {
	st := t.Stats()
	metrics.ObserveTrack(t.System.Key, st.Resolved, st.Unresolved, st.OutOfBounds)
	metrics.TracksNormalized.WithLabelValues(t.System.Key, "ok").Inc()

	attrs := []slog.Attr{
		slog.String("track", t.Name),
		slog.String("system", t.System.Key),
		slog.Int("records", st.Records),
		slog.Int("resolved", st.Resolved),
		slog.Int("unresolved", st.Unresolved),
		slog.Int("out_of_bounds", st.OutOfBounds),
		slog.Duration("duration", elapsed),
	}
	logging.LogOperation(s.logger, "track_normalized", attrs...)
	if st.OutOfBounds > 0 {
		s.logger.Warn("track has points outside the plausibility envelope",
			"track", t.Name, "system", t.System.Key, "count", st.OutOfBounds)
	}
}

// LoadTRA reads a TRA file and normalizes it. The track is named after the
// file without its extension.
func (s *Service) LoadTRA(path, key string) (*track.Track, error) {
	f, err := tra.ReadFile(path)
	if err != nil {
		logging.LogError(s.logger, "reading TRA file failed", err, slog.String("path", path))
		return nil, err
	}
	return s.NormalizeTrack(TrackName(path), f.RawRecords(), key)
}

// TrackName derives a display name from a file path.
func TrackName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadBatch loads every path in parallel and adds the tracks to a new batch
// in input order, coloring them from cursor. The first failing path (in input
// order) aborts the batch. A nil cursor starts a fresh default palette.
func (s *Service) LoadBatch(paths []string, key string, cursor *track.PaletteCursor) (*track.Batch, error) {
	if len(paths) == 0 {
		return nil, export.ErrEmptyBatch
	}
	if _, err := coord.Lookup(key); err != nil {
		return nil, err
	}

	workers := s.opts.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(paths))

	tracks := make([]*track.Track, len(paths))
	errs := make([]error, len(paths))

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tracks[i], errs[i] = s.LoadTRA(paths[i], key)
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", paths[i], err)
		}
	}

	if cursor == nil {
		cursor = track.NewPaletteCursor(nil)
	}
	b := track.NewBatch()
	b.Ingest(tracks, cursor)
	logging.LogOperation(s.logger, "batch_loaded",
		slog.Int("tracks", b.Len()),
		slog.String("system", key))
	return b, nil
}

func (s *Service) exporter(format string) (export.Exporter, error) {
	if format == "" {
		format = s.opts.ExportFormat
	}
	return export.NewExporter(format, s.opts.Export)
}

// SerializeSingleTrack renders the whole track and the selected records.
// An empty format uses the configured default.
func (s *Service) SerializeSingleTrack(t *track.Track, selected []int, format string) (*Document, error) {
	exp, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	data, err := exp.Single(t, selected)
	if err != nil {
		logging.LogError(s.logger, "single-track export failed", err,
			slog.String("track", nameOf(t)),
			slog.String("format", exp.Format()))
		return nil, err
	}
	metrics.DocumentsExported.WithLabelValues(exp.Format(), "single").Inc()
	logging.LogOperation(s.logger, "document_exported",
		slog.String("mode", "single"),
		slog.String("track", t.Name),
		slog.String("format", exp.Format()),
		slog.Int("selected", len(selected)),
		slog.Int("bytes", len(data)))
	return &Document{Data: data, Format: exp.Format(), ContentType: exp.ContentType(), FileExtension: exp.FileExtension()}, nil
}

func nameOf(t *track.Track) string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// SerializeBatch renders one line per entry. An empty format uses the
// configured default.
func (s *Service) SerializeBatch(entries []track.Entry, format string) (*Document, error) {
	exp, err := s.exporter(format)
	if err != nil {
		return nil, err
	}
	data, err := exp.Batch(entries)
	if err != nil {
		logging.LogError(s.logger, "batch export failed", err,
			slog.Int("entries", len(entries)),
			slog.String("format", exp.Format()))
		return nil, err
	}
	metrics.DocumentsExported.WithLabelValues(exp.Format(), "batch").Inc()
	logging.LogOperation(s.logger, "document_exported",
		slog.String("mode", "batch"),
		slog.Int("entries", len(entries)),
		slog.String("format", exp.Format()),
		slog.Int("bytes", len(data)))
	return &Document{Data: data, Format: exp.Format(), ContentType: exp.ContentType(), FileExtension: exp.FileExtension()}, nil
}

// Preview renders lines to an image. An empty format uses the configured
// default.
func (s *Service) Preview(lines []preview.Line, format string) (*Document, error) {
	if format == "" {
		format = s.opts.PreviewFormat
	}
	enc, err := encode.NewEncoder(format, s.opts.ImageQuality)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := preview.Encode(lines, s.opts.Preview, enc)
	if err != nil {
		logging.LogError(s.logger, "preview failed", err, slog.String("format", enc.Format()))
		return nil, err
	}
	metrics.PreviewsRendered.WithLabelValues(enc.Format()).Inc()
	logging.LogOperation(s.logger, "preview_rendered",
		slog.String("format", enc.Format()),
		slog.Int("lines", len(lines)),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)))
	return &Document{Data: data, Format: enc.Format(), ContentType: enc.ContentType(), FileExtension: enc.FileExtension()}, nil
}

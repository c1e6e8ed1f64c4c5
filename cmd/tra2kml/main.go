package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pspoerri/tra2kml/internal/config"
	"github.com/pspoerri/tra2kml/internal/convert"
	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/logging"
	"github.com/pspoerri/tra2kml/internal/preview"
	"github.com/pspoerri/tra2kml/internal/tra"
	"github.com/pspoerri/tra2kml/internal/track"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		configPath  string
		system      string
		format      string
		selection   string
		docName     string
		previewPath string
		onError     string
		concurrency int
		listSystems bool
		showVersion bool
		progress    bool
		verbose     bool
	)

	flag.StringVar(&configPath, "config", "", "Config file (default: tra2kml.yaml in . or ./configs)")
	flag.StringVar(&system, "system", "", "Source coordinate system key (default from config, see -list-systems)")
	flag.StringVar(&format, "format", "", "Document format: kml, geojson (default from output extension)")
	flag.StringVar(&selection, "select", "", "Record selection for single-track export, e.g. \"0-10,15\" or \"all\"")
	flag.StringVar(&docName, "name", "", "Document name (default: track name or \"Batch export\")")
	flag.StringVar(&previewPath, "preview", "", "Also render a preview image (.png, .jpg or .webp)")
	flag.StringVar(&onError, "on-error", "", "Per-point failure policy: fail, keep (default from config)")
	flag.IntVar(&concurrency, "concurrency", -1, "Number of parallel workers (default from config, 0 = all CPUs)")
	flag.BoolVar(&listSystems, "list-systems", false, "List supported coordinate systems and exit")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&progress, "progress", false, "Show a progress bar while transforming")
	flag.BoolVar(&verbose, "verbose", false, "Verbose log output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tra2kml [flags] <input.tra|dir...> <output.kml|output.geojson>\n\n")
		fmt.Fprintf(os.Stderr, "Convert TRA track files to KML or GeoJSON in WGS84.\n")
		fmt.Fprintf(os.Stderr, "With -select and one input, writes the full track plus the selection;\n")
		fmt.Fprintf(os.Stderr, "otherwise writes one colored line per input file.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("tra2kml %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if listSystems {
		printSystems()
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(nil, "Loading config", err)
	}
	if system != "" {
		cfg.Convert.System = system
	}
	if onError != "" {
		cfg.Convert.OnError = onError
	}
	if concurrency >= 0 {
		cfg.Convert.Concurrency = concurrency
	}
	if docName != "" {
		cfg.Export.DocumentName = docName
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fatal(nil, "Invalid settings", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	args := flag.Args()
	if len(args) < 2 {
		flag.Usage()
		os.Exit(1)
	}
	outputPath := args[len(args)-1]
	inputPaths := args[:len(args)-1]

	if format == "" {
		format = formatFromPath(outputPath, cfg.Export.Format)
	}

	traFiles, err := collectTRA(inputPaths)
	if err != nil {
		fatal(logger, "Collecting input files", err)
	}
	if len(traFiles) == 0 {
		fatal(logger, "Collecting input files", fmt.Errorf("no .tra files found in the specified inputs"))
	}

	opts := convert.OptionsFromConfig(cfg)
	var bar *track.ProgressBar
	if progress {
		bar = track.NewProgressBar(os.Stderr, "Transforming", "points", estimateRecords(traFiles))
		opts.Progress = bar
	}
	svc := convert.NewService(logger, opts)

	sys, _ := coord.Lookup(cfg.Convert.System)
	fmt.Printf("tra2kml %s (commit %s, built %s)\n", version, commit, buildDate)
	fmt.Printf("  %-14s %s (%s)\n", "System:", sys.Key, sys.Name)
	fmt.Printf("  %-14s %s\n", "Format:", format)
	fmt.Printf("  %-14s %s\n", "On error:", cfg.Convert.FailurePolicy())
	fmt.Printf("  %-14s %d file(s)\n", "Input:", len(traFiles))
	fmt.Printf("  %-14s %s\n", "Output:", outputPath)

	start := time.Now()
	var (
		doc   *convert.Document
		lines []preview.Line
	)
	if selection != "" {
		if len(traFiles) != 1 {
			fatal(logger, "Single-track export", fmt.Errorf("-select needs exactly one input file, got %d", len(traFiles)))
		}
		t, err := svc.LoadTRA(traFiles[0], cfg.Convert.System)
		finish(bar)
		if err != nil {
			fatal(logger, "Loading track", err)
		}
		selected, err := applySelection(t, selection)
		if err != nil {
			fatal(logger, "Parsing selection", err)
		}
		if doc, err = svc.SerializeSingleTrack(t, selected, format); err != nil {
			fatal(logger, "Exporting track", err)
		}
		if previewPath != "" {
			if lines, err = preview.TrackLines(t, selected); err != nil {
				fatal(logger, "Preview", err)
			}
		}
		reportTrack(t)
	} else {
		b, err := svc.LoadBatch(traFiles, cfg.Convert.System, track.NewPaletteCursor(nil))
		finish(bar)
		if err != nil {
			fatal(logger, "Loading tracks", err)
		}
		if doc, err = svc.SerializeBatch(b.Entries(), format); err != nil {
			fatal(logger, "Exporting batch", err)
		}
		if previewPath != "" {
			lines = preview.EntryLines(b.Entries())
		}
		for _, e := range b.Entries() {
			reportTrack(e.Track)
		}
	}

	if err := os.WriteFile(outputPath, doc.Data, 0o644); err != nil {
		fatal(logger, "Writing output", err)
	}

	if previewPath != "" {
		img, err := svc.Preview(lines, formatFromPath(previewPath, cfg.Preview.Format))
		if err != nil {
			fatal(logger, "Preview", err)
		}
		if err := os.WriteFile(previewPath, img.Data, 0o644); err != nil {
			fatal(logger, "Writing preview", err)
		}
		fmt.Printf("Preview: %s, %s\n", humanSize(int64(len(img.Data))), previewPath)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	fmt.Printf("Done: %s, %v → %s\n", humanSize(int64(len(doc.Data))), elapsed, outputPath)
}

func fatal(logger *slog.Logger, msg string, err error) {
	if logger != nil {
		logging.LogError(logger, msg, err)
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func finish(bar *track.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}

func printSystems() {
	var category coord.Category
	for _, s := range coord.SupportedSystems() {
		if s.Category != category {
			category = s.Category
			fmt.Printf("%s:\n", category)
		}
		fmt.Printf("  %-20s EPSG:%-6d %s\n", s.Key, s.EPSG, s.Name)
	}
}

func reportTrack(t *track.Track) {
	st := t.Stats()
	fmt.Printf("  %-14s %d records, %d resolved", t.Name+":", st.Records, st.Resolved)
	if st.Unresolved > 0 {
		fmt.Printf(", %d unresolved", st.Unresolved)
	}
	if n := len(t.Selection()); n > 0 {
		fmt.Printf(", %d selected", n)
	}
	if st.OutOfBounds > 0 {
		fmt.Printf(", WARNING: %d outside the expected region", st.OutOfBounds)
	}
	fmt.Println()
}

// formatFromPath picks a format from the file extension, or fallback.
func formatFromPath(path, fallback string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "kml", "geojson", "png", "webp":
		return ext
	case "json":
		return "geojson"
	case "jpg", "jpeg":
		return "jpeg"
	}
	return fallback
}

// collectTRA resolves input paths to a list of .tra files. Directory
// contents are sorted by name.
func collectTRA(paths []string) ([]string, error) {
	var result []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, fmt.Errorf("readdir %s: %w", p, err)
			}
			var names []string
			for _, e := range entries {
				if !e.IsDir() && isTRA(e.Name()) {
					names = append(names, e.Name())
				}
			}
			sort.Strings(names)
			for _, n := range names {
				result = append(result, filepath.Join(p, n))
			}
		} else if isTRA(p) {
			result = append(result, p)
		}
	}
	return result, nil
}

func isTRA(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".tra")
}

// estimateRecords derives the record count from file sizes: one header
// record plus the elements.
func estimateRecords(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil {
			if n := fi.Size()/tra.RecordSize - 1; n > 0 {
				total += n
			}
		}
	}
	return total
}

func humanSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

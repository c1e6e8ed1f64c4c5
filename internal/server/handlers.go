package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/pspoerri/tra2kml/internal/convert"
	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/preview"
	"github.com/pspoerri/tra2kml/internal/tra"
	"github.com/pspoerri/tra2kml/internal/track"
)

type transformRequest struct {
	System string   `json:"system"`
	First  *float64 `json:"first"`
	Second *float64 `json:"second"`
}

type transformResponse struct {
	System    string  `json:"system"`
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
	Plausible bool    `json:"plausible"`
}

type recordRequest struct {
	First      float64        `json:"first"`
	Second     float64        `json:"second"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type singleExportRequest struct {
	Name     string          `json:"name"`
	System   string          `json:"system"`
	Records  []recordRequest `json:"records"`
	Selected []int           `json:"selected"`
}

type batchTrackRequest struct {
	Name    string          `json:"name"`
	Color   string          `json:"color,omitempty"`
	Records []recordRequest `json:"records"`
}

type batchRequest struct {
	System string              `json:"system"`
	Tracks []batchTrackRequest `json:"tracks"`
}

// recordResponse carries non-finite numbers as null.
type recordResponse struct {
	Index       int            `json:"index"`
	First       *float64       `json:"first"`
	Second      *float64       `json:"second"`
	Lon         *float64       `json:"lon,omitempty"`
	Lat         *float64       `json:"lat,omitempty"`
	OutOfBounds bool           `json:"outOfBounds,omitempty"`
	Error       string         `json:"error,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

type trackResponse struct {
	Name    string           `json:"name"`
	System  string           `json:"system"`
	Stats   track.Stats      `json:"stats"`
	Bounds  *coord.Envelope  `json:"bounds,omitempty"`
	Records []recordResponse `json:"records"`
}

func newTrackResponse(t *track.Track) trackResponse {
	resp := trackResponse{
		Name:    t.Name,
		System:  t.System.Key,
		Stats:   t.Stats(),
		Records: make([]recordResponse, len(t.Records)),
	}
	if env, ok := t.Bounds(); ok {
		resp.Bounds = &env
	}
	for i, r := range t.Records {
		rr := recordResponse{
			Index:       r.Index,
			First:       finite(r.Point.First),
			Second:      finite(r.Point.Second),
			OutOfBounds: r.OutOfBounds,
			Attributes:  finiteAttributes(r.Attributes),
		}
		if r.Geo != nil {
			lon, lat := r.Geo.Lon, r.Geo.Lat
			rr.Lon, rr.Lat = &lon, &lat
		}
		if r.Err != nil {
			rr.Error = r.Err.Error()
		}
		resp.Records[i] = rr
	}
	return resp
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// finiteAttributes replaces NaN and infinite values, which JSON cannot
// represent, with nil.
func finiteAttributes(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if f, ok := v.(float64); ok && finite(f) == nil {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}

func slogPath(r *http.Request) slog.Attr {
	return slog.String("path", r.URL.Path)
}

func (s *Server) system(key string) string {
	if key == "" {
		return s.defaultSystem
	}
	return key
}

// decodeJSON reads a size-limited JSON body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return badRequest("malformed JSON body", err)
	}
	if dec.More() {
		return badRequest("malformed JSON body", errors.New("trailing data after object"))
	}
	return nil
}

func rawRecords(in []recordRequest) []track.RawRecord {
	out := make([]track.RawRecord, len(in))
	for i, r := range in {
		out[i] = track.RawRecord{Point: coord.RawPoint{First: r.First, Second: r.Second}, Attributes: r.Attributes}
	}
	return out
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) systemsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.svc.ListSupportedSystems())
}

func (s *Server) transformHandler(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.First == nil || req.Second == nil {
		s.fail(w, r, badRequest("first and second are required", nil))
		return
	}

	key := s.system(req.System)
	g, err := s.svc.Transform(coord.RawPoint{First: *req.First, Second: *req.Second}, key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sys, _ := coord.Lookup(key)
	s.writeJSON(w, r, http.StatusOK, transformResponse{
		System:    sys.Key,
		Lon:       g.Lon,
		Lat:       g.Lat,
		Plausible: coord.IsPlausible(g),
	})
}

// tracksHandler normalizes a TRA file sent as the raw request body.
func (s *Server) tracksHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		name = "track"
	}

	f, err := tra.Decode(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.svc.NormalizeTrack(name, f.RawRecords(), s.system(q.Get("system")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newTrackResponse(t))
}

func (s *Server) exportSingleHandler(w http.ResponseWriter, r *http.Request) {
	var req singleExportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	name := req.Name
	if name == "" {
		name = "track"
	}

	t, err := s.svc.NormalizeTrack(name, rawRecords(req.Records), s.system(req.System))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := t.Select(req.Selected...); err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := s.svc.SerializeSingleTrack(t, t.Selection(), r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeDocument(w, r, name, doc)
}

// buildBatch normalizes every track of req. Tracks without an explicit color
// take the next color of a cursor fresh for this request.
func (s *Server) buildBatch(req batchRequest) (*track.Batch, error) {
	if len(req.Tracks) == 0 {
		return nil, badRequest("batch has no tracks", nil)
	}
	key := s.system(req.System)
	cursor := track.NewPaletteCursor(nil)
	b := track.NewBatch()
	for i, tr := range req.Tracks {
		name := tr.Name
		if name == "" {
			name = "track " + strconv.Itoa(i+1)
		}
		var c track.Color
		if tr.Color != "" {
			var err error
			if c, err = track.ParseColor(tr.Color); err != nil {
				return nil, badRequest("track "+strconv.Itoa(i), err)
			}
		} else {
			c = cursor.Next()
		}
		t, err := s.svc.NormalizeTrack(name, rawRecords(tr.Records), key)
		if err != nil {
			return nil, err
		}
		b.Add(t, c)
	}
	return b, nil
}

func (s *Server) exportBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.buildBatch(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := s.svc.SerializeBatch(b.Entries(), r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeDocument(w, r, "batch", doc)
}

func (s *Server) previewHandler(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.buildBatch(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := s.svc.Preview(preview.EntryLines(b.Entries()), r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeDocument(w, r, "preview", doc)
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, name string, doc *convert.Document) {
	ext := doc.FileExtension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name + ext}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		s.logger.Debug("writing response body", "error", err, "path", r.URL.Path)
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dronedb/ddb/internal/adapters/vector"
	"github.com/dronedb/ddb/internal/domain"
)

// entryResponse is the JSON projection of a domain.Entry returned by
// /api/entries and /api/search.
type entryResponse struct {
	Path     string          `json:"path"`
	Hash     string          `json:"hash,omitempty"`
	Type     string          `json:"type"`
	MTime    int64           `json:"mtime"`
	Size     int64           `json:"size"`
	Meta     domain.Metadata `json:"meta,omitempty"`
	Point    *pointResponse  `json:"point,omitempty"`
	Polygon  [][2]float64    `json:"polygon,omitempty"`
}

type pointResponse struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt,omitempty"`
}

func toEntryResponse(e domain.Entry) entryResponse {
	out := entryResponse{
		Path:  e.Path,
		Hash:  e.Hash,
		Type:  e.Type.String(),
		MTime: e.MTime,
		Size:  e.Size,
		Meta:  e.Meta,
	}
	if e.PointGeom != nil {
		out.Point = &pointResponse{Lon: e.PointGeom.Lon, Lat: e.PointGeom.Lat, Alt: e.PointGeom.Alt}
	}
	if e.PolygonGeom != nil {
		ring := make([][2]float64, 0, len(e.PolygonGeom.Ring))
		for _, v := range e.PolygonGeom.Ring {
			ring = append(ring, [2]float64{v.Lon, v.Lat})
		}
		out.Polygon = ring
	}
	return out
}

// handleEntries serves GET /api/entries?path=<path>, returning path and
// every descendant entry.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	entries, err := s.tree.List(r.Context(), path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleSearch serves GET /api/search?q=<pattern>, returning entries whose
// path matches a glob-style pattern. When format=kml, the matched
// entries' footprints are rendered as a KML document instead of JSON.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pattern := query.Get("q")
	if pattern == "" {
		s.writeError(w, http.StatusBadRequest, "missing required query parameter: q")
		return
	}

	maxDepth := -1
	if raw := query.Get("max_depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid max_depth")
			return
		}
		maxDepth = parsed
	}
	isFolder := query.Get("folder") == "true"

	entries, err := s.tree.Match(r.Context(), pattern, maxDepth, isFolder)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if query.Get("format") == "kml" {
		s.writeKML(w, entries)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// writeKML renders every entry carrying a point or polygon footprint as a
// KML Placemark.
func (s *Server) writeKML(w http.ResponseWriter, entries []domain.Entry) {
	footprints := make([]vector.Footprint, 0, len(entries))
	for _, e := range entries {
		if e.PointGeom == nil && e.PolygonGeom == nil {
			continue
		}
		footprints = append(footprints, vector.Footprint{
			Path:    e.Path,
			Point:   e.PointGeom,
			Polygon: e.PolygonGeom,
		})
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.WriteHeader(http.StatusOK)
	if err := vector.WriteKML(w, footprints); err != nil {
		s.logger.Error("failed to write KML response", "error", err)
	}
}

// handleHealth reports overall engine health and status detail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health.GetStatus(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

// handleLiveness reports whether the process itself can serve requests.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
		return
	}
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
}

// handleReadiness reports whether a working tree is open and servable.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

// handleOpenAPI serves the OpenAPI specification as JSON.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	spec, err := getOpenAPIJSON()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load OpenAPI spec")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec)
}

// handleSwaggerUI serves a minimal Swagger UI page pointed at /openapi.json.
func (s *Server) handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(swaggerUIPage))
}

const swaggerUIPage = `<!DOCTYPE html>
<html>
<head><title>ddb API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
window.onload = () => {
  SwaggerUIBundle({url: '/openapi.json', dom_id: '#swagger-ui'});
};
</script>
</body>
</html>`

// writeJSON writes v as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error envelope.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
	"github.com/nerrad567/remoteid-mesh/internal/report"
)

// DetectionView is a registry record as served by the API.
type DetectionView struct {
	report.Detection
	LastSeen string `json:"last_seen"`
	Active   bool   `json:"active"`
}

// handleListDetections returns every device currently held in the registry
// in slot order. ?active=true limits the list to devices seen
// within stale_after.
func (s *Server) handleListDetections(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	now := s.now()

	records := s.registry.Snapshot()
	views := make([]DetectionView, 0, len(records))
	for _, rec := range records {
		v := s.viewOf(rec, now)
		if activeOnly && !v.Active {
			continue
		}
		views = append(views, v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"detections": views,
		"count":      len(views),
		"capacity":   s.registry.Capacity(),
	})
}

// handleGetDetection returns the record for a single MAC address.
func (s *Server) handleGetDetection(w http.ResponseWriter, r *http.Request) {
	addr, err := remoteid.ParseAddress(chi.URLParam(r, "mac"))
	if err != nil {
		writeBadRequest(w, "invalid MAC address")
		return
	}

	rec, ok := s.registry.Lookup(addr)
	if !ok {
		writeNotFound(w, "device not in registry")
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(rec, s.now()))
}

func (s *Server) viewOf(rec remoteid.DeviceRecord, now time.Time) DetectionView {
	d := report.NewDetection(rec)
	if s.aliases != nil {
		if name, ok := s.aliases.Alias(d.MAC); ok {
			d.Alias = name
		}
	}
	v := DetectionView{
		Detection: d,
		Active:    now.Sub(rec.LastSeen) <= s.staleAfter,
	}
	if !rec.LastSeen.IsZero() {
		v.LastSeen = rec.LastSeen.UTC().Format(time.RFC3339)
	}
	return v
}

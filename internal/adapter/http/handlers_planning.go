package adapthttp

import (
	"net/http"
	"strconv"

	"astroplanner/internal/app"
)

func (s *Server) handleVisibleTargets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locationID, err := strconv.ParseInt(q.Get("location_id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "location_id is required")
		return
	}
	targets, err := s.svc.Visibility.Visible(r.Context(), userFrom(r.Context()).ID, locationID, q.Get("when_local"), q.Get("tz"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Geocode.Lookup(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	var q app.CalendarQuery
	var err error
	if q.LocationID, err = int64Query(r, "location_id"); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.From, err = timeQuery(r, "start_from"); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.To, err = timeQuery(r, "start_to"); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	minutes, err := int64Query(r, "duration_minutes")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	q.DurationMinutes = int(minutes)
	q.Status = r.URL.Query().Get("status")

	body, err := s.svc.Calendar.Export(r.Context(), userFrom(r.Context()).ID, q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="astroplanner.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

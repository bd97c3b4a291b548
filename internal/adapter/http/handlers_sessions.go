package adapthttp

import (
	"net/http"

	"astroplanner/internal/domain"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var f domain.SessionFilter
	var err error
	if f.LocationID, err = int64Query(r, "location_id"); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if st := r.URL.Query().Get("status"); st != "" {
		if f.Status, err = domain.ParseStatus(st); err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	items, err := s.svc.Sessions.List(r.Context(), userFrom(r.Context()).ID, f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in domain.SessionInput
	if err := parseJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.svc.Sessions.Create(r.Context(), userFrom(r.Context()).ID, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	sess, err := s.svc.Sessions.Get(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	var patch domain.SessionPatch
	if err := parseJSON(r, &patch); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.svc.Sessions.Update(r.Context(), userFrom(r.Context()).ID, id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	if err := s.svc.Sessions.Delete(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionWeather accepts a tz parameter for symmetry with the client;
// the forecast is keyed by the stored UTC instant so it is not needed.
func (s *Server) handleSessionWeather(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	snap, err := s.svc.Forecast.SessionWeather(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	items, err := s.svc.Logs.List(r.Context(), userFrom(r.Context()).ID, sessionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	var in domain.LogInput
	if err := parseJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	l, err := s.svc.Logs.Create(r.Context(), userFrom(r.Context()).ID, sessionID, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleUpdateLog(w http.ResponseWriter, r *http.Request) {
	sessionID, ok1 := pathID(r, "id")
	logID, ok2 := pathID(r, "logId")
	if !ok1 || !ok2 {
		writeDetail(w, http.StatusNotFound, "Log not found")
		return
	}
	var in domain.LogInput
	if err := parseJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	l, err := s.svc.Logs.Update(r.Context(), userFrom(r.Context()).ID, sessionID, logID, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	sessionID, ok1 := pathID(r, "id")
	logID, ok2 := pathID(r, "logId")
	if !ok1 || !ok2 {
		writeDetail(w, http.StatusNotFound, "Log not found")
		return
	}
	if err := s.svc.Logs.Delete(r.Context(), userFrom(r.Context()).ID, sessionID, logID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package adapthttp

import (
	"net/http"

	"astroplanner/internal/domain"
)

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Locations.List(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var in domain.LocationInput
	if err := parseJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	loc, err := s.svc.Locations.Create(r.Context(), userFrom(r.Context()).ID, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Location not found")
		return
	}
	loc, err := s.svc.Locations.Get(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Location not found")
		return
	}
	var in domain.LocationInput
	if err := parseJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	loc, err := s.svc.Locations.Update(r.Context(), userFrom(r.Context()).ID, id, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Location not found")
		return
	}
	if err := s.svc.Locations.Delete(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

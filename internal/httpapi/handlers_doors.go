package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/janus-access/server/internal/janus/service"
)

func (s *Server) handleCreateDoor(w http.ResponseWriter, r *http.Request) {
	var in service.CreateDoorInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	d, err := s.doors.CreateDoor(r.Context(), currentUser(r), in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, d)
}

func (s *Server) handleListDoors(w http.ResponseWriter, r *http.Request) {
	list, err := s.doors.ListDoors(r.Context(), currentUser(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) handleGetDoor(w http.ResponseWriter, r *http.Request) {
	d, err := s.doors.GetDoor(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDoor(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateDoorInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	d, err := s.doors.UpdateDoor(r.Context(), currentUser(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

func (s *Server) handleDeactivateDoor(w http.ResponseWriter, r *http.Request) {
	if err := s.doors.DeactivateDoor(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) handleGrantAccess(w http.ResponseWriter, r *http.Request) {
	doorID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")

	if err := s.doors.GrantAccess(r.Context(), currentUser(r), doorID, userID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"status": "granted"})
}

func (s *Server) handleRevokeAccess(w http.ResponseWriter, r *http.Request) {
	doorID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")

	if err := s.doors.RevokeAccess(r.Context(), currentUser(r), doorID, userID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "revoked"})
}

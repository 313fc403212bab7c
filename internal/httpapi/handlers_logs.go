package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/janus-access/server/internal/janus/store"
	"github.com/janus-access/server/internal/janus/types"
)

func (s *Server) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	f, err := parseEventFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.logs.Query(r.Context(), currentUser(r), f)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, page)
}

func (s *Server) handleLogImage(w http.ResponseWriter, r *http.Request) {
	rc, err := s.logs.GetImage(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = io.Copy(w, rc)
}

type filterError string

func (e filterError) Error() string { return string(e) }

func parseEventFilter(r *http.Request) (store.EventFilter, error) {
	q := r.URL.Query()
	f := store.EventFilter{
		DoorID: q.Get("door_id"),
		UserID: q.Get("user_id"),
	}

	if v := q.Get("event_type"); v != "" {
		et := types.EventType(v)
		if !types.IsValidEventType(et) {
			return f, filterError("unknown event_type")
		}
		f.EventType = et
	}
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, filterError("start must be RFC 3339")
		}
		f.Start = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, filterError("end must be RFC 3339")
		}
		f.End = &t
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, filterError("page must be a positive integer")
		}
		f.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, filterError("limit must be a positive integer")
		}
		f.Limit = n
	}
	return f, nil
}

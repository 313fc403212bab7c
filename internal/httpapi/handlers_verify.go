package httpapi

import (
	"net/http"

	"github.com/janus-access/server/internal/janus/types"
)

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req types.VerifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dec, err := s.verify.VerifyCode(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, dec)
}

func (s *Server) handleVerifyFace(w http.ResponseWriter, r *http.Request) {
	var req types.VerifyFaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dec, err := s.verify.VerifyFace(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, dec)
}

func (s *Server) handleVerifyDouble(w http.ResponseWriter, r *http.Request) {
	var req types.DoubleVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dec, err := s.verify.VerifyDouble(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, dec)
}

func (s *Server) handleMotion(w http.ResponseWriter, r *http.Request) {
	var req types.MotionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.verify.ReportMotion(r.Context(), req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

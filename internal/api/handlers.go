package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/cardforge/pkg/buildinfo"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/table"
)

// maxRequestBytes caps a render request body.
const maxRequestBytes = 1 << 20

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	Row   map[string]string `json:"row"`
	Index int               `json:"index"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Get(),
		"font":    s.comp.FontSource(),
	})
}

func (s *Server) config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.comp.Config())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Index < 0 {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "index must not be negative"))
		return
	}

	card, err := s.comp.Render(r.Context(), req.Index, table.Row(req.Row))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	data, err := s.comp.Bytes(card)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if card.PhotoErr != nil {
		s.logger.Warn("photo not placed", "name", card.Name, "err", card.PhotoErr)
	}

	w.Header().Set("Content-Type", contentType(s.comp.Format()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", card.Name))
	w.Header().Set("X-Photo-Outcome", card.Photo.String())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func contentType(f imaging.Format) string {
	switch f {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	}
	return "image/jpeg"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

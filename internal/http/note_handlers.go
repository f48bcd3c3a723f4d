package httpapi

import (
	"net/http"

	"keep-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := s.Inventory.ListNotes(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]NoteDTO{"items": mapSlice(items, toNoteDTO)})
}

func (s *Server) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req services.NoteInput
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := s.Inventory.CreateNote(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toNoteDTO(note))
}

func (s *Server) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req services.NoteInput
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := s.Inventory.UpdateNote(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "noteId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toNoteDTO(note))
}

func (s *Server) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.Inventory.DeleteNote(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "noteId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetInsurance(w http.ResponseWriter, r *http.Request) {
	insurance, err := s.Inventory.GetInsurance(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if insurance == nil {
		WriteJSON(w, http.StatusOK, map[string]*InsuranceDTO{"insurance": nil})
		return
	}
	dto := toInsuranceDTO(*insurance)
	WriteJSON(w, http.StatusOK, map[string]*InsuranceDTO{"insurance": &dto})
}

func (s *Server) PutInsurance(w http.ResponseWriter, r *http.Request) {
	var req services.InsuranceInput
	if !decodeJSON(w, r, &req) {
		return
	}
	insurance, err := s.Inventory.PutInsurance(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	dto := toInsuranceDTO(insurance)
	WriteJSON(w, http.StatusOK, map[string]*InsuranceDTO{"insurance": &dto})
}

func (s *Server) DeleteInsurance(w http.ResponseWriter, r *http.Request) {
	if err := s.Inventory.DeleteInsurance(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

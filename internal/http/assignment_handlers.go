package httpapi

import (
	"net/http"

	"keep-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) AssignAsset(w http.ResponseWriter, r *http.Request) {
	var req services.AssignInput
	if !decodeJSON(w, r, &req) {
		return
	}
	assignment, err := s.Inventory.Assign(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toAssignmentDTO(assignment))
}

func (s *Server) ReturnAsset(w http.ResponseWriter, r *http.Request) {
	var req services.ReturnInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	assignment, err := s.Inventory.Return(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAssignmentDTO(assignment))
}

func (s *Server) ListAssignments(w http.ResponseWriter, r *http.Request) {
	items, err := s.Inventory.ListAssignments(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]AssignmentDTO{"items": mapSlice(items, toAssignmentDTO)})
}

func (s *Server) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	var req services.AssignmentUpdateInput
	if !decodeJSON(w, r, &req) {
		return
	}
	assignment, err := s.Inventory.UpdateAssignment(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assignmentId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAssignmentDTO(assignment))
}

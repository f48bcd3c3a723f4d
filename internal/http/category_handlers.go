package httpapi

import (
	"net/http"

	"keep-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.Inventory.ListCategories(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]CategoryDTO{"items": mapSlice(items, toCategoryDTO)})
}

func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req services.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := s.Inventory.CreateCategory(r.Context(), CurrentPrincipal(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toCategoryDTO(category))
}

func (s *Server) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req services.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := s.Inventory.UpdateCategory(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "categoryId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCategoryDTO(category))
}

func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.Inventory.DeleteCategory(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "categoryId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

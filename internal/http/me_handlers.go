package httpapi

import (
	"net/http"

	"keep-backend-go/internal/services"
)

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	principal := CurrentPrincipal(r)
	ctx := r.Context()
	if err := s.Inventory.EnsureProfile(ctx, principal, CurrentEmail(r), nil); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	profile, err := s.Inventory.GetProfile(ctx, principal, principal.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]ProfileDTO{"user": toProfileDTO(profile)})
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}
	principal := CurrentPrincipal(r)
	profile, err := s.Inventory.UpdateProfile(r.Context(), principal, principal.ID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]ProfileDTO{"user": toProfileDTO(profile)})
}

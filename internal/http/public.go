package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PublicAsset is the finder view reached through a QR code.
func (s *Server) PublicAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.Inventory.PublicAssetByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toPublicAssetDTO(asset))
}

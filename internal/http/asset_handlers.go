package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"keep-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

type AssetPageResponse struct {
	Items    []AssetDTO `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

func (s *Server) ListAssets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := services.AssetFilter{
		Status:     strings.TrimSpace(query.Get("status")),
		CategoryID: strings.TrimSpace(query.Get("category")),
		Query:      query.Get("q"),
		Page:       parseInt(query.Get("page"), 1),
		PageSize:   parseInt(query.Get("pageSize"), 20),
	}
	page, err := s.Inventory.ListAssets(r.Context(), CurrentPrincipal(r), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, AssetPageResponse{
		Items:    mapSlice(page.Items, toAssetDTO),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

func (s *Server) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req services.AssetInput
	if !decodeJSON(w, r, &req) {
		return
	}
	asset, err := s.Inventory.CreateAsset(r.Context(), CurrentPrincipal(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toAssetDTO(asset))
}

func (s *Server) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.Inventory.GetAsset(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAssetDTO(asset))
}

func (s *Server) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req services.AssetPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	asset, err := s.Inventory.UpdateAsset(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAssetDTO(asset))
}

func (s *Server) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.Inventory.DeleteAsset(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssetQR renders the finder link of an asset as a PNG.
func (s *Server) AssetQR(w http.ResponseWriter, r *http.Request) {
	asset, err := s.Inventory.GetAsset(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	size := parseInt(r.URL.Query().Get("size"), 256)
	if size < 64 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(s.finderURL(asset.QRCode), qrcode.Medium, size)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) finderURL(token string) string {
	return strings.TrimRight(s.Config.PublicBaseURL, "/") + "/found/" + token
}

func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	items, err := s.Inventory.Search(r.Context(), CurrentPrincipal(r), r.URL.Query().Get("q"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]AssetDTO{"items": mapSlice(items, toAssetDTO)})
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

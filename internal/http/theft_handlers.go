package httpapi

import (
	"net/http"
	"strings"

	"keep-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func (s *Server) ReportTheft(w http.ResponseWriter, r *http.Request) {
	var req services.TheftReportInput
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := s.Inventory.ReportTheft(r.Context(), CurrentPrincipal(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	// Finders only get an acknowledgement, never the stored report.
	WriteJSON(w, http.StatusCreated, map[string]string{"id": report.ID, "status": report.Status})
}

func (s *Server) ListTheftReports(w http.ResponseWriter, r *http.Request) {
	s.listTheftReports(w, r, strings.TrimSpace(r.URL.Query().Get("assetId")))
}

func (s *Server) AssetTheftReports(w http.ResponseWriter, r *http.Request) {
	s.listTheftReports(w, r, chi.URLParam(r, "assetId"))
}

func (s *Server) listTheftReports(w http.ResponseWriter, r *http.Request, assetID string) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	items, err := s.Inventory.ListTheftReports(r.Context(), CurrentPrincipal(r), assetID, status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]TheftReportDTO{"items": mapSlice(items, toTheftReportDTO)})
}

func (s *Server) UpdateTheftReport(w http.ResponseWriter, r *http.Request) {
	var req services.TheftStatusInput
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := s.Inventory.UpdateTheftReport(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "reportId"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toTheftReportDTO(report))
}

// TheftSocket streams new theft reports on the caller's assets. Browsers
// cannot set headers on websocket requests, so the access token travels in
// the query string.
func (s *Server) TheftSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	principal, _, err := s.Tokens.ParseAccess(token)
	if err != nil || !principal.Authenticated() {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if s.Hub == nil {
		WriteError(w, http.StatusServiceUnavailable, "Notifications unavailable")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.Hub.Add(principal.ID, conn)
	defer func() {
		s.Hub.Remove(principal.ID, conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.Config.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.Config.CorsOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

package httpapi

import (
	"net/http"

	"keep-backend-go/internal/services"
)

func (s *Server) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Inventory.Stats(r.Context(), CurrentPrincipal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) DashboardReminders(w http.ResponseWriter, r *http.Request) {
	days := parseInt(r.URL.Query().Get("days"), 0)
	reminders, err := s.Inventory.Reminders(r.Context(), CurrentPrincipal(r), days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, reminders)
}

func (s *Server) AdminStatus(w http.ResponseWriter, r *http.Request) {
	status := services.CaptureStatus(r.Context(), s.DB, s.Config.Storage.LocalPath, s.Log)
	WriteJSON(w, http.StatusOK, status)
}

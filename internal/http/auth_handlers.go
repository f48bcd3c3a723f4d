package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"keep-backend-go/internal/policy"
	"keep-backend-go/internal/services"

	"go.uber.org/zap"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    int64       `json:"expiresAt"`
	User         *ProfileDTO `json:"user"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := services.CreateUser(r.Context(), s.DB, s.Tokens, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.issueTokens(w, r, profile.ID, profile.Email, http.StatusCreated)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" {
		WriteError(w, http.StatusBadRequest, "Authentication failed")
		return
	}
	user, err := services.FindUserByEmail(r.Context(), s.DB, email)
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if user.Status != services.UserStatusActive {
		WriteError(w, http.StatusForbidden, "Authentication failed")
		return
	}
	if !s.Tokens.VerifyPassword(req.Password, user.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if err := services.SetLastLogin(r.Context(), s.DB, user.ID); err != nil {
		s.Log.Warn("last login update failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.issueTokens(w, r, user.ID, user.Email, http.StatusOK)
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, err := s.Tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	status, err := services.GetUserStatus(r.Context(), s.DB, userID)
	if err != nil || status != services.UserStatusActive {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	s.issueTokens(w, r, userID, "", http.StatusOK)
}

// Logout is stateless; clients drop their tokens.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// issueTokens makes sure the profile row exists, then signs a token pair
// carrying the profile role.
func (s *Server) issueTokens(w http.ResponseWriter, r *http.Request, userID, email string, status int) {
	ctx := r.Context()
	role, err := services.FetchRole(ctx, s.DB, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	principal := policy.Principal{ID: userID, Role: role}
	if email != "" {
		if err := s.Inventory.EnsureProfile(ctx, principal, email, nil); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	profile, err := s.Inventory.GetProfile(ctx, principal, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pair, err := s.Tokens.IssuePair(userID, profile.Email, profile.Role)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	dto := toProfileDTO(profile)
	WriteJSON(w, status, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         &dto,
	})
}

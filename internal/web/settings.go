package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/auth"
)

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "settings.html", &PageData{
		Title:   "Account",
		User:    GetWebClaims(r.Context()),
		Success: takeFlash(w, r),
	})
}

// SettingsSubmit handles POST /settings (password change).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	page := &PageData{Title: "Account", User: claims}
	if current == "" || next == "" {
		page.Error = "Enter your current and new password."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "settings.html", page)
		return
	}

	err := auth.ChangePassword(r.Context(), s.DB, claims.UserID(), current, next)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		page.Error = "Current password is incorrect."
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "settings.html", page)
		return
	case errors.Is(err, auth.ErrInvalidAccount):
		page.Error = err.Error()
		s.Templates.RenderStatus(w, http.StatusBadRequest, "settings.html", page)
		return
	case err != nil:
		slog.Error("failed to change password", "error", err)
		page.Error = "Could not update your password."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "settings.html", page)
		return
	}

	slog.Info("user changed own password", "user", claims.UserID())
	setFlash(w, "Password changed.")
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

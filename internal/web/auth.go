package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/auth"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign in", Success: takeFlash(w, r)})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	if email == "" || password == "" {
		s.Templates.RenderStatus(w, http.StatusBadRequest, "login.html", &PageData{
			Title: "Sign in",
			Error: "Enter your email and password.",
		})
		return
	}

	user, err := auth.SignIn(r.Context(), s.DB, email, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("failed to sign in", "error", err)
		}
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", &PageData{
			Title: "Sign in",
			Error: "Wrong email or password.",
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user)
	if err != nil {
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "login.html", &PageData{
			Title: "Sign in",
			Error: "Could not sign you in.",
		})
		return
	}

	setAuthCookie(w, token)
	slog.Info("user logged in", "user", user.ID)
	http.Redirect(w, r, "/browse", http.StatusSeeOther)
}

// SignupPage handles GET /signup.
func (s *Server) SignupPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "signup.html", &PageData{Title: "Create account"})
}

// SignupSubmit handles POST /signup.
func (s *Server) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	user, err := auth.SignUp(r.Context(), s.DB, r.FormValue("email"), r.FormValue("full_name"), r.FormValue("password"))
	if err != nil {
		status, msg := http.StatusBadRequest, err.Error()
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			status = http.StatusConflict
		case !errors.Is(err, auth.ErrInvalidAccount):
			slog.Error("failed to sign up", "error", err)
			status, msg = http.StatusInternalServerError, "Could not create your account."
		}
		s.Templates.RenderStatus(w, status, "signup.html", &PageData{Title: "Create account", Error: msg})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user)
	if err != nil {
		setFlash(w, "Account created. Please sign in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	setAuthCookie(w, token)
	slog.Info("account created", "user", user.ID)
	http.Redirect(w, r, "/browse", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil {
		if err := auth.Revoke(r.Context(), s.DB, claims); err != nil {
			slog.Error("failed to revoke token", "error", err)
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
